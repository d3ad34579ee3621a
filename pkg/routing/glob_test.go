package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobMatch(t *testing.T) {
	testCases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*.pdf", "report.pdf", true},
		{"*.pdf", "report.PDF", true}, // literals compare case-insensitively
		{"*.pdf", "report.pdf.bak", false},
		{"report_?.csv", "report_1.csv", true},
		{"report_?.csv", "report_12.csv", false},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "abc", true},
		{"a*b*c", "aXXbYY", false},
		{"*", "", true},
		{"*", "anything at all", true},
		{"?", "", false},
		{"?", "x", true},
		{"exact.txt", "exact.txt", true},
		{"exact.txt", "exact.txd", false},
		{"", "", true},
		{"", "x", false},
		{"scan-*-??.tiff", "scan-2024-07.tiff", true},
		{"scan-*-??.tiff", "scan-2024-7.tiff", false},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern+"/"+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GlobMatch(tc.pattern, tc.name))
		})
	}
}
