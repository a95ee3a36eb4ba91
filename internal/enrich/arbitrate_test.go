package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbitrate(t *testing.T) {
	tests := []struct {
		name       string
		primary    string
		confidence string
		reFind     bool
		score      int
		want       Disposition
	}{
		{"refind high score promotes", "old@x.gov", "85", true, 92, Promote},
		{"refind below 90 does not promote alone", "old@x.gov", "90", true, 88, StoreAlternative},
		{"beats existing confidence", "old@x.gov", "70", false, 75, Promote},
		{"ties with existing go alternative", "old@x.gov", "75", false, 75, StoreAlternative},
		{"empty primary promotes", "", "", false, 65, Promote},
		{"zero primary promotes", "0", "", false, 65, Promote},
		{"mid score stored as alternative", "old@x.gov", "", false, 75, StoreAlternative},
		{"low score discarded", "old@x.gov", "", false, 65, Discard},
		{"blank confidence never beats", "old@x.gov", "", true, 89, StoreAlternative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arbitrate(tt.primary, tt.confidence, tt.reFind, tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArbitrateNonNumericConfidence(t *testing.T) {
	_, err := Arbitrate("old@x.gov", "high", false, 95)
	require.Error(t, err)
}
