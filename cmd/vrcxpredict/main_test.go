package main

import (
	"testing"
	"time"
)

func TestParseAt(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ref := time.Date(2024, 3, 21, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"empty means now", "", time.Time{}},
		{"wall clock in zone", "2024-03-20 21:00", time.Date(2024, 3, 20, 13, 0, 0, 0, time.UTC)},
		{"explicit offset", "2024-03-20T21:00:00Z", time.Date(2024, 3, 20, 21, 0, 0, 0, time.UTC)},
		{"slash date", "2024/3/20", time.Date(2024, 3, 19, 16, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAt(tt.in, ref, loc)
			if err != nil {
				t.Fatalf("parseAt(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAtNatural(t *testing.T) {
	ref := time.Date(2024, 3, 21, 19, 0, 0, 0, time.UTC)
	got, err := parseAt("yesterday", ref, time.UTC)
	if err != nil {
		t.Fatalf("parseAt: %v", err)
	}
	if y, m, d := got.Date(); y != 2024 || m != time.March || d != 20 {
		t.Errorf("yesterday = %v, want 2024-03-20", got)
	}
}
