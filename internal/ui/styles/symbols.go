package styles

// Symbols holds the marker set used in status output.
type Symbols struct {
	OK      string
	Warning string
	Error   string
	Fresh   string
	Expired string
}

var currentSymbols = Symbols{
	OK:      "✓",
	Warning: "!",
	Error:   "✕",
	Fresh:   "●",
	Expired: "○",
}

// CurrentSymbols returns the active symbol set.
func CurrentSymbols() Symbols {
	return currentSymbols
}

// StatusOK renders text behind a green check mark.
func StatusOK(text string) string {
	return SuccessStyle.Render(currentSymbols.OK) + " " + text
}

// StatusWarning renders text behind an orange warning marker.
func StatusWarning(text string) string {
	return WarningStyle.Render(currentSymbols.Warning) + " " + text
}

// StatusError renders text behind a red cross.
func StatusError(text string) string {
	return ErrorStyle.Render(currentSymbols.Error) + " " + text
}

// FreshnessSymbol returns a marker for a cache entry: filled while
// fresh, hollow once expired.
func FreshnessSymbol(expired bool) string {
	if expired {
		return MutedStyle.Render(currentSymbols.Expired)
	}
	return SuccessStyle.Render(currentSymbols.Fresh)
}
