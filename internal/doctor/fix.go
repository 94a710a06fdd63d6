package doctor

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/history"
	"github.com/Ruutuli/whohas/internal/output"
	"github.com/Ruutuli/whohas/internal/preload"
)

// fixAllIssues applies fixes for all detected issues. The per-entry
// cache fixes share one compaction: opening the store drops expired,
// half and over-capacity entries, compacting writes the cleaned state
// back. Caller holds the cache lock.
func fixAllIssues(p *output.Printer, logger *log.Logger, dir string, cfg cache.Config, issues []Issue) error {
	var fixed int
	var failed int

	compacted := false
	var compactErr error
	compact := func() error {
		if !compacted {
			compacted = true
			compactErr = cache.Open(dir, cfg, logger).Compact()
		}
		return compactErr
	}

	for _, issue := range issues {
		switch issue.FixAction {
		case "prune":
			if err := compact(); err != nil {
				p.Printf("  ✗ Failed to prune %q: %v\n", issue.Key, err)
				failed++
			} else {
				p.Printf("  ✓ Pruned expired entry %q\n", issue.Key)
				fixed++
			}

		case "drop":
			if err := compact(); err != nil {
				p.Printf("  ✗ Failed to drop %q: %v\n", issue.Key, err)
				failed++
			} else {
				p.Printf("  ✓ Dropped half entry %q\n", issue.Key)
				fixed++
			}

		case "evict":
			if err := compact(); err != nil {
				p.Printf("  ✗ Failed to evict %q: %v\n", issue.Key, err)
				failed++
			} else {
				p.Printf("  ✓ Evicted %q (over capacity)\n", issue.Key)
				fixed++
			}

		case "delete_blob":
			if err := os.Remove(cache.BlobPath(dir)); err != nil && !os.IsNotExist(err) {
				p.Printf("  ✗ Failed to remove holders blob: %v\n", err)
				failed++
			} else {
				p.Printf("  ✓ Removed unreadable holders blob\n")
				fixed++
			}

		case "remove_temp":
			if err := os.Remove(filepath.Join(dir, issue.Key)); err != nil && !os.IsNotExist(err) {
				p.Printf("  ✗ Failed to remove %q: %v\n", issue.Key, err)
				failed++
			} else {
				p.Printf("  ✓ Removed leftover %q\n", issue.Key)
				fixed++
			}

		case "reset_state":
			if err := preload.SaveState(dir, preload.State{}); err != nil {
				p.Printf("  ✗ Failed to reset preload state: %v\n", err)
				failed++
			} else {
				p.Printf("  ✓ Reset preload state\n")
				fixed++
			}

		case "remove_history":
			if err := os.Remove(history.Path(dir)); err != nil && !os.IsNotExist(err) {
				p.Printf("  ✗ Failed to remove lookup history: %v\n", err)
				failed++
			} else {
				p.Printf("  ✓ Removed unreadable lookup history\n")
				fixed++
			}

		case "enable_manually":
			// Turning preloading back on is a decision, not a repair.
			p.Printf("  ⚠ Preloading stays off. Run 'whohas preload enable' to turn it back on.\n")
			failed++

		case "inspect_manually":
			p.Printf("  ⚠ Cannot fix %q: user-managed file. Inspect or remove it: %s\n",
				issue.Key, filepath.Join(dir, issue.Key))
			failed++

		default:
			// An unreachable API has no repair.
			p.Printf("  ⚠ Cannot fix %s: %s\n", issue.Key, issue.Description)
			failed++
		}
	}

	if failed > 0 {
		p.Printf("\nFixed %d issues, %d failed.\n", fixed, failed)
	} else {
		p.Printf("\nFixed %d issues.\n", fixed)
	}
	return nil
}
