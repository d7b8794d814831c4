package game

import (
	"fmt"
	"strings"
)

// UniqueDisplayName returns base unchanged when it is free, otherwise
// "base (k)" for the smallest k >= 2 not already taken. Gaps left by
// departed players are reused.
func UniqueDisplayName(existing []string, base string) string {
	trimmed := strings.TrimSpace(base)
	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[name] = struct{}{}
	}
	if _, ok := taken[trimmed]; !ok {
		return trimmed
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s (%d)", trimmed, counter)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
