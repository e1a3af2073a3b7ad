package models

import (
	"time"

	"github.com/lib/pq"
)

// UserProfile is the denormalized per-user cache of assignment data. It is
// derived state: always reproducible from Assignment + Course + Section
// records and only ever written through the reconciliation pass.
type UserProfile struct {
	UserID             string         `db:"user_id" json:"user_id"`
	Role               UserRole       `db:"role" json:"role"`
	ActiveCourseLabels pq.StringArray `db:"active_course_labels" json:"active_course_labels"`
	SectionLabel       *string        `db:"section_label" json:"section_label"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ProfileDiff is one pending profile update produced by the reconciler.
// Applying diffs is the caller's concern; computing them is pure.
type ProfileDiff struct {
	UserID             string   `json:"user_id"`
	ActiveCourseLabels []string `json:"active_course_labels"`
	SectionLabel       *string  `json:"section_label"`
}

// Equal reports whether the diff target matches the stored profile, using
// structural equality on the label list and the section label.
func (d ProfileDiff) Equal(p UserProfile) bool {
	if len(d.ActiveCourseLabels) != len(p.ActiveCourseLabels) {
		return false
	}
	for i, label := range d.ActiveCourseLabels {
		if p.ActiveCourseLabels[i] != label {
			return false
		}
	}
	if (d.SectionLabel == nil) != (p.SectionLabel == nil) {
		return false
	}
	if d.SectionLabel != nil && *d.SectionLabel != *p.SectionLabel {
		return false
	}
	return true
}
