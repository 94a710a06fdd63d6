package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Ruutuli/whohas/internal/cache"
	"github.com/Ruutuli/whohas/internal/config"
	"github.com/Ruutuli/whohas/internal/resolve"
	"github.com/Ruutuli/whohas/internal/watchlist"
)

// Completion helpers. They must stay silent: anything written to
// stderr during __complete garbles the shell's completion display,
// so errors degrade to "no suggestions".

// completeKeys suggests cached and watched keys.
func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg := config.FromContext(cmd.Context())
	dir, err := cfg.StateDir()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	known := cache.Open(dir, cacheConfig(cfg), log.New(io.Discard)).Keys()
	if wl, err := watchlist.Load(dir); err == nil {
		known = resolve.Known(known, wl.Keys)
	}

	return prefixFilter(known, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeCachedKeys suggests only keys present in the cache.
func completeCachedKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg := config.FromContext(cmd.Context())
	dir, err := cfg.StateDir()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	keys := cache.Open(dir, cacheConfig(cfg), log.New(io.Discard)).Keys()
	return prefixFilter(keys, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeWatchedKeys suggests only keys on the watchlist.
func completeWatchedKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg := config.FromContext(cmd.Context())
	dir, err := cfg.StateDir()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	wl, err := watchlist.Load(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return prefixFilter(wl.Keys, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func prefixFilter(keys []string, toComplete string) []string {
	var matches []string
	for _, key := range keys {
		if strings.HasPrefix(key, toComplete) {
			matches = append(matches, key)
		}
	}
	return matches
}
