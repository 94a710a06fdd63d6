package doctor

// IssueCategory groups issues by type.
type IssueCategory string

const (
	// CategoryCache covers problems inside the holders blob.
	CategoryCache IssueCategory = "cache"
	// CategoryState covers the files next to the blob: preload state,
	// watchlist, lookup history and leftover temp files.
	CategoryState IssueCategory = "state"
	// CategoryAPI covers reachability of the dashboard API.
	CategoryAPI IssueCategory = "api"
)

// Issue represents a single problem found during diagnosis. Key names
// the affected item key, file or URL. FixAction selects the repair in
// fixAllIssues; issues without one are report-only.
type Issue struct {
	Key         string
	Description string
	FixAction   string
	Category    IssueCategory
}

// IssueStats tracks counts for the summary printed before the issue
// list.
type IssueStats struct {
	EntriesFresh   int  // entries the next load keeps
	EntriesExpired int  // entries past the TTL
	EntriesOver    int  // fresh entries beyond max_entries
	OrphanHalves   int  // keys present in only one of the blob's maps
	BlobUnreadable bool // blob exists but does not parse
	TempFiles      int  // leftovers from interrupted writes
	StateIssues    int  // preload, watchlist or history problems
	APIUnreachable bool
	APISkipped     bool // no client supplied, check not run
}
