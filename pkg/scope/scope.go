// Package scope encodes and decodes the composite course-section identifiers
// used to address tasks, evaluations and notifications. A scope string is
// either a bare course id (one UUID, 5 hyphen groups) or a course id and a
// section id concatenated with a hyphen (10 hyphen groups). Legacy stores mix
// both shapes freely, so decoding returns a tagged variant instead of letting
// every consumer re-derive the group-count heuristic.
package scope

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind discriminates the decoded shapes of a scope identifier.
type Kind int

const (
	// KindMalformed marks identifiers that are neither a bare course id nor
	// a composite pair. The raw value is preserved for diagnostics.
	KindMalformed Kind = iota
	// KindBare marks a lone course id. The section is unknown and callers
	// must disambiguate, typically via the single-section fallback.
	KindBare
	// KindComposite marks a fully qualified course-section pair.
	KindComposite
)

const (
	groupsPerID = 5
	groupsPair  = 2 * groupsPerID
)

var uuidShape = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Ref is the decoded form of a scope identifier.
type Ref struct {
	Kind      Kind
	CourseID  string
	SectionID string
	Raw       string
}

// Ambiguous reports whether the reference still needs disambiguation before
// it can be used for membership lookups.
func (r Ref) Ambiguous() bool {
	return r.Kind != KindComposite
}

func (r Ref) String() string {
	switch r.Kind {
	case KindComposite:
		return fmt.Sprintf("composite(%s, %s)", r.CourseID, r.SectionID)
	case KindBare:
		return fmt.Sprintf("bare(%s)", r.CourseID)
	default:
		return fmt.Sprintf("malformed(%s)", r.Raw)
	}
}

// Decode classifies a scope identifier by hyphen-group count. It never fails:
// unrecognizable input yields a malformed reference whose CourseID carries the
// raw value so callers can still attempt label-based fallbacks.
func Decode(raw string) Ref {
	groups := strings.Split(raw, "-")

	switch len(groups) {
	case groupsPair:
		courseID := strings.Join(groups[:groupsPerID], "-")
		sectionID := strings.Join(groups[groupsPerID:], "-")
		if !uuidShape.MatchString(courseID) || !uuidShape.MatchString(sectionID) {
			return Ref{Kind: KindMalformed, CourseID: raw, Raw: raw}
		}
		return Ref{Kind: KindComposite, CourseID: courseID, SectionID: sectionID, Raw: raw}
	case groupsPerID:
		if !uuidShape.MatchString(raw) {
			return Ref{Kind: KindMalformed, CourseID: raw, Raw: raw}
		}
		return Ref{Kind: KindBare, CourseID: raw, Raw: raw}
	default:
		return Ref{Kind: KindMalformed, CourseID: raw, Raw: raw}
	}
}

// Encode joins a course id and a section id into the composite wire form.
// Decode(Encode(c, s)) yields an unambiguous composite reference for any pair
// of well-formed ids.
func Encode(courseID, sectionID string) string {
	return courseID + "-" + sectionID
}
