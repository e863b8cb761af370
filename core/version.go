package core

import (
	"fmt"
	"strconv"
	"strings"
)

// maxVersionLen is the column width of the version field in OJS.
const maxVersionLen = 8

// StageVersion is a workflow position like "3.0.5": stage, round within the stage, and a terminal discriminator.
// Terminal 0 denotes a reviewer-facing and 5 an author-facing sub-version.
type StageVersion struct {
	Stage    int
	Round    int
	Terminal int
}

// ParseStageVersion parses "stage.round.terminal". All parts must be non-negative integers.
func ParseStageVersion(s string) (StageVersion, error) {
	if s == "" || len(s) > maxVersionLen {
		return StageVersion{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}
	var parts = strings.Split(s, ".")
	if len(parts) != 3 {
		return StageVersion{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}
	var nums [3]int
	for i, part := range parts {
		// Atoi accepts signs, we don't
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			return StageVersion{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return StageVersion{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
		}
		nums[i] = n
	}
	return StageVersion{Stage: nums[0], Round: nums[1], Terminal: nums[2]}, nil
}

// MustParseStageVersion is like ParseStageVersion but panics on error. For constants only.
func MustParseStageVersion(s string) StageVersion {
	v, err := ParseStageVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v StageVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Stage, v.Round, v.Terminal)
}

// IsAuthorSubversion returns true if the version is meant to be edited by the authors.
func (v StageVersion) IsAuthorSubversion() bool {
	return v.Terminal == 5
}

// Less compares lexicographically over (stage, round, terminal).
func (v StageVersion) Less(other StageVersion) bool {
	if v.Stage != other.Stage {
		return v.Stage < other.Stage
	}
	if v.Round != other.Round {
		return v.Round < other.Round
	}
	return v.Terminal < other.Terminal
}

// FirstVersion is the version of the document which is sent to the journal initially.
var FirstVersion = StageVersion{Stage: 1}

// CopyeditDraftVersion is the only version which can be submitted as copyedit draft.
var CopyeditDraftVersion = StageVersion{Stage: 4}
