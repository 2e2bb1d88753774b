// Package model defines the data structures used throughout the application.
//
// A Candidate is stored as one document: its remarks are embedded inside it
// rather than living in a table of their own. Every write to a remark is
// therefore a write to exactly one candidate document, which is what lets the
// storage backends keep remark mutations atomic without cross-row locking.
package model

import "time"

// DefaultReviewer is the reviewer name a remark reports when none was stored.
const DefaultReviewer = "Interviewer"

// Candidate is a student/candidate record tracked through the interview process.
//
// The `_id` JSON name keeps the wire format compatible with existing dashboard
// clients, which address both candidates and remarks by `_id`.
type Candidate struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Branch      string    `json:"branch"`
	Reg         string    `json:"reg"` // registration number
	Phone       string    `json:"phone"`
	Priority    *float64  `json:"priority,omitempty"` // 1 = high, 2 = medium, 3 = low
	Reason      string    `json:"reason"`
	Domain      string    `json:"domain"`
	BestProject string    `json:"bestProject"`
	Remarks     []Remark  `json:"remarks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Remark is one interviewer's note and rating, owned by exactly one Candidate.
//
// By is a pointer so that "never set" survives a round trip through storage:
// nil means the caller did not name a reviewer, while a pointer to "" means
// the caller explicitly sent an empty name.
type Remark struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	Rating    float64   `json:"rating"`
	By        *string   `json:"by,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reviewer returns the reviewer name, substituting DefaultReviewer when unset.
func (r Remark) Reviewer() string {
	if r.By == nil {
		return DefaultReviewer
	}
	return *r.By
}

// RemarkPatch lists the remark fields an edit changes. Nil fields are left alone.
type RemarkPatch struct {
	Text   *string
	Rating *float64
	By     *string
}

// ApplyDefaults fills read-time defaults after a candidate is decoded from storage.
// Repositories call it on every document they return.
func (c *Candidate) ApplyDefaults() {
	if c.Remarks == nil {
		c.Remarks = []Remark{}
	}
	for i := range c.Remarks {
		if c.Remarks[i].By == nil {
			by := DefaultReviewer
			c.Remarks[i].By = &by
		}
	}
}

// AppendRemark adds r to the end of the remark list (most recent last).
func (c *Candidate) AppendRemark(r Remark) {
	c.Remarks = append(c.Remarks, r)
}

// PatchRemark applies p to the remark with the given id.
// It reports false, leaving the candidate untouched, if no remark matches.
func (c *Candidate) PatchRemark(remarkID string, p RemarkPatch) bool {
	for i := range c.Remarks {
		if c.Remarks[i].ID != remarkID {
			continue
		}
		if p.Text != nil {
			c.Remarks[i].Text = *p.Text
		}
		if p.Rating != nil {
			c.Remarks[i].Rating = *p.Rating
		}
		if p.By != nil {
			by := *p.By
			c.Remarks[i].By = &by
		}
		return true
	}
	return false
}

// RemoveRemark drops every remark with the given id, keeping the relative
// order of the rest. It reports whether anything was removed.
func (c *Candidate) RemoveRemark(remarkID string) bool {
	kept := c.Remarks[:0]
	removed := false
	for _, r := range c.Remarks {
		if r.ID == remarkID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	c.Remarks = kept
	return removed
}

// LatestRemark returns the most recently appended remark.
func (c *Candidate) LatestRemark() (Remark, bool) {
	if len(c.Remarks) == 0 {
		return Remark{}, false
	}
	return c.Remarks[len(c.Remarks)-1], true
}
