// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes candidate documents
//
// The service accepts plain Go values, never *http.Request, so the same rules
// apply whether a remark comes from the JSON API, the server-rendered
// dashboard or a test.
//
// THE DEPENDENCY CHAIN:
//
//	main.go creates:  Store → CandidateService → Handlers
//	At runtime:       Handler calls Service calls Repository
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/events"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/repository"
)

// Rating bounds, inclusive on both ends.
const (
	MinRating = 0
	MaxRating = 10
)

// Validation messages. Clients match on these strings, so they are part of
// the API.
const (
	MsgTextRequired      = "text is required"
	MsgAppendRatingRange = "rating must be 0-10"
	MsgTextNonEmpty      = "text must be a non-empty string"
	MsgEditRatingRange   = "rating must be between 0 and 10"
)

// RemarkInput is the body of an add- or edit-remark request.
//
// Each field keeps track of whether it was sent at all, which the rules below
// depend on: an omitted `by` is different from `"by": null`. omitzero keeps an
// absent field absent when the API client encodes the same type.
type RemarkInput struct {
	Text   model.OptionalString `json:"text,omitzero"`
	Rating model.OptionalNumber `json:"rating,omitzero"`
	By     model.OptionalString `json:"by,omitzero"`
}

// CandidateService handles business logic for candidates and their remarks.
type CandidateService struct {
	repo      repository.CandidateRepository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewCandidateService creates a new CandidateService.
// A nil publisher disables remark events.
func NewCandidateService(repo repository.CandidateRepository, publisher events.Publisher, logger *slog.Logger) *CandidateService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CandidateService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Create saves a new candidate. Fields are stored as given; the repository
// assigns identity, timestamps and an empty remark list.
func (s *CandidateService) Create(ctx context.Context, c *model.Candidate) (*model.Candidate, error) {
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, s.storeFailure("Failed to create user", err, slog.String("name", c.Name))
	}

	s.logger.Info("candidate created",
		slog.String("id", c.ID),
		slog.String("domain", c.Domain),
	)
	return c, nil
}

// GetByID retrieves one candidate.
// Returns apperror.ErrNotFound if the candidate doesn't exist.
func (s *CandidateService) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFoundMessage("candidate id is required")
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.passThrough("Failed to fetch user", err, slog.String("id", id))
	}
	return c, nil
}

// List returns every candidate, or only those whose domain equals domain
// exactly when it is non-empty, in dashboard order.
func (s *CandidateService) List(ctx context.Context, domain string) ([]model.Candidate, error) {
	candidates, err := s.repo.List(ctx, repository.ListOptions{Domain: domain})
	if err != nil {
		return nil, s.storeFailure("Failed to fetch users", err, slog.String("domain", domain))
	}
	return candidates, nil
}

// AddRemark validates in and appends it as the candidate's newest remark.
//
// Rules:
//   - text must be a non-blank string; it is stored trimmed
//   - rating must be a finite number (or numeric string) within [0, 10]
//   - by: omitted → no reviewer stored (reads as "Interviewer");
//     a non-blank string → trimmed; anything else → ""
func (s *CandidateService) AddRemark(ctx context.Context, candidateID string, in RemarkInput) (*model.Candidate, error) {
	if !in.Text.IsString() || in.Text.Trimmed() == "" {
		return nil, apperror.ValidationFailed("text", MsgTextRequired)
	}
	if !validRating(in.Rating) {
		return nil, apperror.ValidationFailed("rating", MsgAppendRatingRange)
	}

	remark := model.Remark{
		Text:   in.Text.Trimmed(),
		Rating: in.Rating.Value(),
		By:     reviewer(in.By),
	}

	c, err := s.repo.AppendRemark(ctx, candidateID, remark)
	if err != nil {
		return nil, s.passThrough("Failed to save remark", err, slog.String("candidate_id", candidateID))
	}

	added, _ := c.LatestRemark()
	s.logger.Info("remark added",
		slog.String("candidate_id", c.ID),
		slog.String("remark_id", added.ID),
		slog.Float64("rating", added.Rating),
	)
	s.publish(ctx, events.RemarkAdded, c.ID, added.ID, &remark.Rating)
	return c, nil
}

// EditRemark changes any subset of a remark's text, rating and reviewer.
// Omitted fields are left alone. An unknown candidate and an unknown remark
// produce the same not-found error.
func (s *CandidateService) EditRemark(ctx context.Context, candidateID, remarkID string, in RemarkInput) (*model.Candidate, error) {
	var patch model.RemarkPatch

	if in.Text.Present() {
		if !in.Text.IsString() || in.Text.Trimmed() == "" {
			return nil, apperror.ValidationFailed("text", MsgTextNonEmpty)
		}
		text := in.Text.Trimmed()
		patch.Text = &text
	}
	if in.Rating.Present() {
		if !validRating(in.Rating) {
			return nil, apperror.ValidationFailed("rating", MsgEditRatingRange)
		}
		rating := in.Rating.Value()
		patch.Rating = &rating
	}
	if in.By.Present() {
		by := in.By.Trimmed()
		patch.By = &by
	}

	c, err := s.repo.UpdateRemark(ctx, candidateID, remarkID, patch)
	if err != nil {
		return nil, s.passThrough("Failed to update remark", err,
			slog.String("candidate_id", candidateID),
			slog.String("remark_id", remarkID),
		)
	}

	s.logger.Info("remark edited",
		slog.String("candidate_id", c.ID),
		slog.String("remark_id", remarkID),
	)
	s.publish(ctx, events.RemarkEdited, c.ID, remarkID, patch.Rating)
	return c, nil
}

// DeleteRemark removes a remark. Deleting a remark that is already gone
// succeeds and returns the candidate unchanged.
func (s *CandidateService) DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error) {
	c, err := s.repo.DeleteRemark(ctx, candidateID, remarkID)
	if err != nil {
		return nil, s.passThrough("Failed to delete remark", err,
			slog.String("candidate_id", candidateID),
			slog.String("remark_id", remarkID),
		)
	}

	s.logger.Info("remark deleted",
		slog.String("candidate_id", c.ID),
		slog.String("remark_id", remarkID),
	)
	s.publish(ctx, events.RemarkDeleted, c.ID, remarkID, nil)
	return c, nil
}

func validRating(r model.OptionalNumber) bool {
	return r.Present() && r.Valid() && r.Value() >= MinRating && r.Value() <= MaxRating
}

// reviewer maps the request's `by` onto what gets stored.
func reviewer(by model.OptionalString) *string {
	if !by.Present() {
		return nil
	}
	name := by.Trimmed()
	return &name
}

// publish sends a remark event. A failure is logged and otherwise ignored:
// the remark is already committed.
func (s *CandidateService) publish(ctx context.Context, typ events.Type, candidateID, remarkID string, rating *float64) {
	ev := events.RemarkEvent{
		Type:        typ,
		CandidateID: candidateID,
		RemarkID:    remarkID,
		Rating:      rating,
		At:          repository.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish remark event",
			slog.String("type", string(typ)),
			slog.String("candidate_id", candidateID),
			slog.String("error", err.Error()),
		)
	}
}

// passThrough returns domain errors (not found, validation) untouched and
// turns anything else into an Unavailable error.
func (s *CandidateService) passThrough(op string, err error, attrs ...any) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrUnavailable) {
		return err
	}
	return s.storeFailure(op, err, attrs...)
}

func (s *CandidateService) storeFailure(op string, err error, attrs ...any) error {
	s.logger.Error(strings.ToLower(op), append(attrs, slog.String("error", err.Error()))...)
	return apperror.Unavailable(op, err)
}
