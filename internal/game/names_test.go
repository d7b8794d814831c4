package game

import "testing"

func TestUniqueDisplayName(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		base     string
		want     string
	}{
		{"free name unchanged", []string{"Bob"}, "Alice", "Alice"},
		{"first clash", []string{"Alice"}, "Alice", "Alice (2)"},
		{"second clash", []string{"Alice", "Alice (2)"}, "Alice", "Alice (3)"},
		{"fills gap", []string{"Alice", "Alice (3)"}, "Alice", "Alice (2)"},
		{"trims base", []string{}, "  Alice  ", "Alice"},
		{"trimmed base clashes", []string{"Alice"}, " Alice ", "Alice (2)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UniqueDisplayName(tc.existing, tc.base); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
