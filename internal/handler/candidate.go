// Package handler contains the HTTP request handlers for the tracker.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming HTTP request (path params, query, body)
//  2. Call the service layer
//  3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules. Validation messages, reviewer defaults and
// not-found semantics all come from internal/service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/service"
)

// maxBodyBytes caps request bodies; remarks are short.
const maxBodyBytes = 1 << 20

// CandidateService is what the handlers need from the service layer.
// *service.CandidateService satisfies it.
type CandidateService interface {
	Create(ctx context.Context, c *model.Candidate) (*model.Candidate, error)
	GetByID(ctx context.Context, id string) (*model.Candidate, error)
	List(ctx context.Context, domain string) ([]model.Candidate, error)
	AddRemark(ctx context.Context, candidateID string, in service.RemarkInput) (*model.Candidate, error)
	EditRemark(ctx context.Context, candidateID, remarkID string, in service.RemarkInput) (*model.Candidate, error)
	DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error)
}

// CandidateHandler serves the JSON API under /users.
type CandidateHandler struct {
	svc    CandidateService
	logger *slog.Logger
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(svc CandidateService, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{svc: svc, logger: logger}
}

// CreateCandidateRequest is the body of POST /users.
//
// Only these fields are read. Anything else in the body, including _id,
// remarks and timestamps, is ignored.
type CreateCandidateRequest struct {
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Branch      string               `json:"branch"`
	Reg         string               `json:"reg"`
	Phone       string               `json:"phone"`
	Priority    model.OptionalNumber `json:"priority"`
	Reason      string               `json:"reason"`
	Domain      string               `json:"domain"`
	BestProject string               `json:"bestProject"`
}

// toCandidate converts the request into a model, rejecting a priority that
// was sent but is not a number.
func (req CreateCandidateRequest) toCandidate() (*model.Candidate, error) {
	c := &model.Candidate{
		Name:        req.Name,
		Email:       req.Email,
		Branch:      req.Branch,
		Reg:         req.Reg,
		Phone:       req.Phone,
		Reason:      req.Reason,
		Domain:      req.Domain,
		BestProject: req.BestProject,
	}
	if req.Priority.Present() {
		if !req.Priority.Valid() {
			return nil, apperror.ValidationFailed("priority", "priority must be a number")
		}
		p := req.Priority.Value()
		c.Priority = &p
	}
	return c, nil
}

// HandleList returns candidates in dashboard order, optionally narrowed to
// one domain.
//
// HTTP: GET /users?domain=web
func (h *CandidateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.List(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// HandleGetByID returns one candidate.
//
// HTTP: GET /users/{id}
func (h *CandidateHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleCreate stores a new candidate.
//
// HTTP: POST /users
// REQUEST BODY: {"name": "Asha", "branch": "CSE", "priority": 1, ...}
func (h *CandidateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCandidateRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := req.toCandidate()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleAddRemark appends a remark.
//
// HTTP: POST /users/remarks/{id}
// REQUEST BODY: {"text": "strong DSA", "rating": 8, "by": "Meera"}
func (h *CandidateHandler) HandleAddRemark(w http.ResponseWriter, r *http.Request) {
	var in service.RemarkInput
	if !h.decode(w, r, &in) {
		return
	}

	c, err := h.svc.AddRemark(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleEditRemark changes any of a remark's text, rating and reviewer.
//
// HTTP: PUT /users/{userId}/remarks/{remarkId}
// REQUEST BODY: {"rating": 9}
func (h *CandidateHandler) HandleEditRemark(w http.ResponseWriter, r *http.Request) {
	var in service.RemarkInput
	if !h.decode(w, r, &in) {
		return
	}

	c, err := h.svc.EditRemark(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "remarkId"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleDeleteRemark removes a remark. Deleting one that is already gone
// still returns 200 with the candidate.
//
// HTTP: DELETE /users/{userId}/remarks/{remarkId}
func (h *CandidateHandler) HandleDeleteRemark(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.DeleteRemark(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "remarkId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// decode reads a JSON body into dst. An empty body decodes as {} so that
// validation, not the decoder, reports the missing fields.
func (h *CandidateHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		h.logger.Warn("invalid JSON body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return false
	}
	return true
}
