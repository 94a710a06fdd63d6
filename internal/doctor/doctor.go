package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ruutuli/whohas/internal/api"
	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/output"
)

// Run performs diagnostic checks on the state directory and the API and
// optionally fixes issues. client may be nil to skip the API check.
func Run(ctx context.Context, cfg *config.Config, client *api.Client, fix bool) error {
	dir, err := cfg.StateDir()
	if err != nil {
		return fmt.Errorf("failed to resolve state directory: %w", err)
	}
	ccfg := cache.Config{TTL: cfg.Cache.TTL.Duration, MaxEntries: cfg.Cache.MaxEntries}

	// Hold the lock across check and fix so no other whohas process
	// rewrites the blob in between.
	lock := cache.NewFileLock(cache.LockPath(dir))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	defer lock.Unlock()

	p := output.FromContext(ctx)

	var stats IssueStats
	var allIssues []Issue

	// Category 1: holders blob
	p.Println("Checking holders cache...")
	cacheIssues, fresh := checkCache(dir, ccfg, time.Now())
	for i := range cacheIssues {
		cacheIssues[i].Category = CategoryCache
	}
	allIssues = append(allIssues, cacheIssues...)
	stats.EntriesFresh = fresh
	for _, issue := range cacheIssues {
		switch issue.FixAction {
		case "prune":
			stats.EntriesExpired++
		case "drop":
			stats.OrphanHalves++
		case "evict":
			stats.EntriesOver++
		case "delete_blob":
			stats.BlobUnreadable = true
		}
	}

	// Category 2: state files next to the blob
	p.Println("Checking state files...")
	stateIssues := checkState(dir)
	for i := range stateIssues {
		stateIssues[i].Category = CategoryState
	}
	allIssues = append(allIssues, stateIssues...)
	for _, issue := range stateIssues {
		if issue.FixAction == "remove_temp" {
			stats.TempFiles++
		} else {
			stats.StateIssues++
		}
	}

	// Category 3: the dashboard API
	if client == nil {
		stats.APISkipped = true
	} else {
		p.Println("Checking API...")
		apiIssues := checkAPI(ctx, client)
		for i := range apiIssues {
			apiIssues[i].Category = CategoryAPI
		}
		allIssues = append(allIssues, apiIssues...)
		stats.APIUnreachable = len(apiIssues) > 0
	}

	printSummary(p, stats)

	if len(allIssues) == 0 {
		p.Println("\n✓ No issues found")
		return nil
	}

	p.Printf("\nFound %d issues:\n", len(allIssues))
	printIssuesByCategory(p, allIssues)

	if fix {
		return fixAllIssues(p, log.FromContext(ctx), dir, ccfg, allIssues)
	}

	p.Println("\nRun 'whohas doctor --fix' to repair.")
	return nil
}

// printSummary prints a categorized summary.
func printSummary(p *output.Printer, stats IssueStats) {
	p.Println()

	if stats.BlobUnreadable {
		p.Println("  ✗ holders blob unreadable")
	} else {
		p.Printf("  ✓ %d fresh cache entries\n", stats.EntriesFresh)
	}
	if stats.EntriesExpired > 0 {
		p.Printf("  ⚠ %d expired entries\n", stats.EntriesExpired)
	}
	if stats.OrphanHalves > 0 {
		p.Printf("  ⚠ %d half entries (value or timestamp missing)\n", stats.OrphanHalves)
	}
	if stats.EntriesOver > 0 {
		p.Printf("  ⚠ %d entries beyond max_entries\n", stats.EntriesOver)
	}
	if stats.TempFiles > 0 {
		p.Printf("  ⚠ %d leftover temp files\n", stats.TempFiles)
	}
	if stats.StateIssues > 0 {
		p.Printf("  ⚠ %d state file issues\n", stats.StateIssues)
	}

	switch {
	case stats.APISkipped:
	case stats.APIUnreachable:
		p.Println("  ✗ API unreachable")
	default:
		p.Println("  ✓ API reachable")
	}
}

// printIssuesByCategory groups and prints issues in check order.
func printIssuesByCategory(p *output.Printer, issues []Issue) {
	byCategory := make(map[IssueCategory][]Issue)
	for _, issue := range issues {
		byCategory[issue.Category] = append(byCategory[issue.Category], issue)
	}

	categoryNames := map[IssueCategory]string{
		CategoryCache: "Cache issues",
		CategoryState: "State file issues",
		CategoryAPI:   "API issues",
	}

	for _, cat := range []IssueCategory{CategoryCache, CategoryState, CategoryAPI} {
		catIssues := byCategory[cat]
		if len(catIssues) == 0 {
			continue
		}

		p.Printf("\n%s:\n", categoryNames[cat])
		for _, issue := range catIssues {
			p.Printf("  • %s: %s\n", issue.Key, issue.Description)
		}
	}
}
