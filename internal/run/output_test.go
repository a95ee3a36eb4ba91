package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Florida", "Florida"},
		{"New York", "New_York"},
		{"St. John's / County", "St_John_s_County"},
		{"  padded  ", "padded"},
		{"___", ""},
		{"", ""},
		{"a--b__c", "a_b_c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}

func TestOutputName(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	assert.Equal(t, "Florida_NG911_20260314_092653.csv",
		OutputName("Florida", "NG911", ".csv", at, false))
	assert.Equal(t, "New_York_Mayor_20260314_092653_incomplete.xlsx",
		OutputName("New York", "Mayor", ".xlsx", at, true))
}
