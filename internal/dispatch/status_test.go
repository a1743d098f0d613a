package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		label  string
		raw    string
		expect Status
	}{
		{"empty label is unlinked", "", "Cleared", StatusUnlinked},
		{"sentinel wins over cleared", "unlinked", "cleared", StatusUnlinked},
		{"sentinel any case", "  UnLinked ", "inbound", StatusUnlinked},
		{"cleared", "DP-001", "Cleared", StatusCleared},
		{"cleared substring any case", "DP-001", "  CLEARED by AR ", StatusCleared},
		{"inbound", "DP-001", "Inbound", StatusInbound},
		{"inbound substring", "DP-001", "partially inbound", StatusInbound},
		{"clear beats inbound", "DP-001", "inbound cleared", StatusCleared},
		{"empty raw defaults", "DP-001", "", StatusForDispatch},
		{"unknown raw defaults", "DP-001", "Loaded", StatusForDispatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Classify(tc.label, tc.raw))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("for dispatch")
	assert.True(t, ok)
	assert.Equal(t, StatusForDispatch, s)

	s, ok = ParseStatus("ALL")
	assert.True(t, ok)
	assert.Empty(t, s)

	_, ok = ParseStatus("shipped")
	assert.False(t, ok)
}
