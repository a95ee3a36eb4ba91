package enrich

import (
	"strconv"

	"github.com/rotisserie/eris"
)

// Disposition says what to do with an email candidate from the finder.
type Disposition int

const (
	// Discard drops the candidate; its score clears no bar.
	Discard Disposition = iota
	// StoreAlternative records the candidate in the Alternative Email
	// fields, leaving the primary email untouched.
	StoreAlternative
	// Promote makes the candidate the primary email and moves the prior
	// primary (and its confidence) into the Alternative Email fields.
	Promote
)

// Arbitrate decides where a finder candidate lands.
//
// Promote when the row was flagged for re-discovery and the candidate scores
// at least 90, when the candidate beats the recorded confidence, or when no
// primary email is recorded at all. A blank recorded confidence only matters
// through the empty-primary clause; the conjunction is kept exactly as the
// production rule states it. Otherwise a score of at least 70 is kept as an
// alternative, and anything lower is discarded.
func Arbitrate(primaryEmail, primaryConfidence string, reFind bool, score int) (Disposition, error) {
	beatsExisting := false
	if primaryConfidence != "" {
		existing, err := strconv.Atoi(primaryConfidence)
		if err != nil {
			return Discard, eris.Wrapf(err, "enrich: non-numeric confidence %q", primaryConfidence)
		}
		beatsExisting = score > existing
	}

	noPrimary := primaryEmail == "" || primaryEmail == "0"

	switch {
	case (reFind && score >= 90) || beatsExisting || noPrimary:
		return Promote, nil
	case score >= 70:
		return StoreAlternative, nil
	default:
		return Discard, nil
	}
}
