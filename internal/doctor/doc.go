// Package doctor provides diagnostic and repair functionality for the
// whohas state directory.
//
// The doctor package detects and optionally repairs issues including:
//
//   - Cache issues: an unreadable holders blob, expired entries, half
//     entries where only the value or only the timestamp survived, and
//     entries beyond max_entries.
//
//   - State file issues: leftover temp files from interrupted writes,
//     unreadable preload state, watchlist or lookup history, and a
//     tripped preload breaker.
//
//   - API issues: the dashboard API not answering at its configured
//     address.
//
// # Usage
//
// Run diagnostics:
//
//	err := doctor.Run(ctx, cfg, client, false)  // check only
//	err := doctor.Run(ctx, cfg, client, true)   // check and fix
//
// Fixes stay on the safe side: a tripped breaker is never re-enabled
// and the user-managed watchlist is never deleted; both are reported
// with instructions instead.
//
// Issues are grouped into three categories:
//
//   - [CategoryCache]: problems inside the holders blob
//   - [CategoryState]: problems with the files next to it
//   - [CategoryAPI]: the dashboard API is unreachable
//
// Each [Issue] includes a description and, where one exists, a fix
// action.
package doctor
