package repository

import (
	"time"

	"github.com/rs/xid"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/model"
)

// MsgRemarkNotFound is returned when an edit cannot resolve its
// (candidate id, remark id) pair. Which half failed is not reported.
const MsgRemarkNotFound = "candidate or remark not found"

// NewID returns a fresh document identifier.
//
// xid ids are 20 URL-safe characters and sort by creation time, e.g.
// "cv37rs3pp9olc6atsptg".
func NewID() string {
	return xid.New().String()
}

// Now is the write timestamp stamped on documents. Millisecond precision
// keeps stored values identical across the SQLite and Postgres backends.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// PrepareCreate assigns identity and timestamps to a new candidate.
// Remarks are only ever created through AppendRemark, so any supplied by the
// caller are discarded.
func PrepareCreate(c *model.Candidate) {
	now := Now()
	c.ID = NewID()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Remarks = []model.Remark{}
}

// Mutation edits a decoded candidate document in place.
// It reports whether the document changed; unchanged documents are not written.
type Mutation func(c *model.Candidate) (changed bool, err error)

// AppendRemark returns a Mutation that appends r with a fresh id and
// creation time. The stamped remark is written back through r.
func AppendRemark(r *model.Remark) Mutation {
	return func(c *model.Candidate) (bool, error) {
		r.ID = NewID()
		r.CreatedAt = Now()
		c.AppendRemark(*r)
		return true, nil
	}
}

// PatchRemark returns a Mutation that edits one remark, or fails with
// apperror.ErrNotFound when the remark id is unknown.
func PatchRemark(remarkID string, p model.RemarkPatch) Mutation {
	return func(c *model.Candidate) (bool, error) {
		if !c.PatchRemark(remarkID, p) {
			return false, apperror.NotFoundMessage(MsgRemarkNotFound)
		}
		return true, nil
	}
}

// RemoveRemark returns a Mutation that pulls a remark. An unknown remark id
// is not an error: the document is simply left as it was.
func RemoveRemark(remarkID string) Mutation {
	return func(c *model.Candidate) (bool, error) {
		return c.RemoveRemark(remarkID), nil
	}
}
