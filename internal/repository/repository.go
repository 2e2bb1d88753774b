// Package repository declares the storage contract for candidate documents.
//
// Two implementations exist: repository/sqlite (embedded, one JSON document
// per row) and repository/postgres (JSONB documents behind a pgx pool). Both
// honour the same ordering and not-found rules, so the service layer never
// knows which one it is talking to.
package repository

import (
	"context"

	"github.com/sakif/interview-tracker/internal/model"
)

// ListOptions narrows a List call. The zero value lists every candidate.
type ListOptions struct {
	Domain string // exact, case-sensitive match when non-empty
}

// CandidateRepository stores candidate documents and their embedded remarks.
//
// Every remark method mutates exactly one candidate document in a single
// atomic write and returns the full document as stored afterwards.
type CandidateRepository interface {
	Create(ctx context.Context, c *model.Candidate) error
	GetByID(ctx context.Context, id string) (*model.Candidate, error)

	// List returns candidates ordered by priority ascending (missing
	// priorities last), then branch ascending, then insertion order.
	List(ctx context.Context, opts ListOptions) ([]model.Candidate, error)

	// AppendRemark adds r at the end of the candidate's remark list,
	// assigning its ID and CreatedAt.
	AppendRemark(ctx context.Context, candidateID string, r model.Remark) (*model.Candidate, error)

	// UpdateRemark returns apperror.ErrNotFound when either id does not resolve.
	UpdateRemark(ctx context.Context, candidateID, remarkID string, p model.RemarkPatch) (*model.Candidate, error)

	// DeleteRemark returns apperror.ErrNotFound only when the candidate is
	// missing; an unknown remark id leaves the document unchanged.
	DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error)

	Ping(ctx context.Context) error
	Close() error
}
