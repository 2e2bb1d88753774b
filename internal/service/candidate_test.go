package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/events"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/repository"
)

// =========================================================================
// MOCKS
// =========================================================================
//
// mockCandidateRepo keeps documents in a map and runs the same Mutation
// helpers the real stores use, so the service sees realistic results
// without a database.

type mockCandidateRepo struct {
	docs    map[string]*model.Candidate
	order   []string
	failAll error // when set, every call returns it
	calls   int
}

func newMockRepo() *mockCandidateRepo {
	return &mockCandidateRepo{docs: make(map[string]*model.Candidate)}
}

func (m *mockCandidateRepo) Create(_ context.Context, c *model.Candidate) error {
	m.calls++
	if m.failAll != nil {
		return m.failAll
	}
	repository.PrepareCreate(c)
	stored := *c
	m.docs[c.ID] = &stored
	m.order = append(m.order, c.ID)
	return nil
}

func (m *mockCandidateRepo) GetByID(_ context.Context, id string) (*model.Candidate, error) {
	m.calls++
	if m.failAll != nil {
		return nil, m.failAll
	}
	c, ok := m.docs[id]
	if !ok {
		return nil, apperror.NotFound("candidate", id)
	}
	return readCopy(c), nil
}

func (m *mockCandidateRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Candidate, error) {
	m.calls++
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := []model.Candidate{}
	for _, id := range m.order {
		c := m.docs[id]
		if opts.Domain != "" && c.Domain != opts.Domain {
			continue
		}
		out = append(out, *readCopy(c))
	}
	return out, nil
}

func (m *mockCandidateRepo) AppendRemark(_ context.Context, id string, r model.Remark) (*model.Candidate, error) {
	return m.mutate(id, repository.AppendRemark(&r))
}

func (m *mockCandidateRepo) UpdateRemark(_ context.Context, id, remarkID string, p model.RemarkPatch) (*model.Candidate, error) {
	c, err := m.mutate(id, repository.PatchRemark(remarkID, p))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage(repository.MsgRemarkNotFound)
	}
	return c, err
}

func (m *mockCandidateRepo) DeleteRemark(_ context.Context, id, remarkID string) (*model.Candidate, error) {
	return m.mutate(id, repository.RemoveRemark(remarkID))
}

func (m *mockCandidateRepo) Ping(context.Context) error { return m.failAll }
func (m *mockCandidateRepo) Close() error               { return nil }

func (m *mockCandidateRepo) mutate(id string, fn repository.Mutation) (*model.Candidate, error) {
	m.calls++
	if m.failAll != nil {
		return nil, m.failAll
	}
	c, ok := m.docs[id]
	if !ok {
		return nil, apperror.NotFound("candidate", id)
	}
	work := deepCopy(c)
	changed, err := fn(work)
	if err != nil {
		return nil, err
	}
	if changed {
		m.docs[id] = work
	}
	return readCopy(m.docs[id]), nil
}

func deepCopy(c *model.Candidate) *model.Candidate {
	cp := *c
	cp.Remarks = append([]model.Remark(nil), c.Remarks...)
	return &cp
}

func readCopy(c *model.Candidate) *model.Candidate {
	cp := deepCopy(c)
	cp.ApplyDefaults()
	return cp
}

type mockPublisher struct {
	events []events.RemarkEvent
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, ev events.RemarkEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestService() (*CandidateService, *mockCandidateRepo, *mockPublisher) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewCandidateService(repo, pub, logger), repo, pub
}

func seedCandidate(t *testing.T, svc *CandidateService) *model.Candidate {
	t.Helper()
	c, err := svc.Create(context.Background(), &model.Candidate{Name: "Asha", Domain: "web"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

// remarkInput decodes a JSON body the way the handler does, so tests exercise
// the real presence rules instead of hand-built values.
func remarkInput(t *testing.T, body string) RemarkInput {
	t.Helper()
	var in RemarkInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
	return in
}

func wantValidation(t *testing.T, err error, field, msg string) {
	t.Helper()
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var appErr *apperror.AppError
	errors.As(err, &appErr)
	if appErr.Field != field || appErr.Message != msg {
		t.Errorf("got (%q, %q), want (%q, %q)", appErr.Field, appErr.Message, field, msg)
	}
}

// =========================================================================
// CREATE / GET / LIST
// =========================================================================

func TestCreate_AssignsIdentity(t *testing.T) {
	svc, _, _ := newTestService()
	in := &model.Candidate{
		Name:    "Ravi",
		Remarks: []model.Remark{{Text: "smuggled in", Rating: 10}},
	}

	c, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" {
		t.Error("expected an id")
	}
	if c.CreatedAt.IsZero() || !c.CreatedAt.Equal(c.UpdatedAt) {
		t.Errorf("timestamps not stamped: %v / %v", c.CreatedAt, c.UpdatedAt)
	}
	if len(c.Remarks) != 0 {
		t.Errorf("expected client-supplied remarks to be dropped, got %d", len(c.Remarks))
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	for _, id := range []string{"nope", "   "} {
		if _, err := svc.GetByID(context.Background(), id); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("GetByID(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestList_DomainFilter(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, &model.Candidate{Name: "A", Domain: "web"})
	svc.Create(ctx, &model.Candidate{Name: "B", Domain: "ml"})

	all, err := svc.List(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("List all: %d, %v", len(all), err)
	}
	web, _ := svc.List(ctx, "web")
	if len(web) != 1 || web[0].Name != "A" {
		t.Errorf("expected only A for domain web, got %+v", web)
	}
}

func TestStoreFailure_IsUnavailable(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.failAll = errors.New("connection refused")

	_, err := svc.List(context.Background(), "")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var appErr *apperror.AppError
	errors.As(err, &appErr)
	if appErr.Message != "Failed to fetch users" {
		t.Errorf("unexpected message %q", appErr.Message)
	}

	_, err = svc.AddRemark(context.Background(), "x", remarkInput(t, `{"text":"ok","rating":5}`))
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("AddRemark: expected ErrUnavailable, got %v", err)
	}
}

// =========================================================================
// ADD REMARK
// =========================================================================

func TestAddRemark_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing text", `{"rating":5}`, "text", MsgTextRequired},
		{"empty text", `{"text":"","rating":5}`, "text", MsgTextRequired},
		{"blank text", `{"text":"   ","rating":5}`, "text", MsgTextRequired},
		{"numeric text", `{"text":42,"rating":5}`, "text", MsgTextRequired},
		{"null text", `{"text":null,"rating":5}`, "text", MsgTextRequired},
		{"missing rating", `{"text":"ok"}`, "rating", MsgAppendRatingRange},
		{"rating too high", `{"text":"ok","rating":11}`, "rating", MsgAppendRatingRange},
		{"negative rating", `{"text":"ok","rating":-0.5}`, "rating", MsgAppendRatingRange},
		{"word rating", `{"text":"ok","rating":"great"}`, "rating", MsgAppendRatingRange},
		{"null rating", `{"text":"ok","rating":null}`, "rating", MsgAppendRatingRange},
		{"bool rating", `{"text":"ok","rating":true}`, "rating", MsgAppendRatingRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestService()
			c := seedCandidate(t, svc)
			before := repo.calls

			_, err := svc.AddRemark(context.Background(), c.ID, remarkInput(t, tt.body))
			wantValidation(t, err, tt.field, tt.msg)

			if repo.calls != before {
				t.Error("validation failure must not reach the store")
			}
			if len(pub.events) != 0 {
				t.Error("validation failure must not publish")
			}
		})
	}
}

func TestAddRemark_Boundaries(t *testing.T) {
	svc, _, _ := newTestService()
	c := seedCandidate(t, svc)

	for _, body := range []string{
		`{"text":"low","rating":0}`,
		`{"text":"high","rating":10}`,
		`{"text":"string","rating":" 7.5 "}`,
	} {
		if _, err := svc.AddRemark(context.Background(), c.ID, remarkInput(t, body)); err != nil {
			t.Errorf("%s: unexpected error %v", body, err)
		}
	}

	got, _ := svc.GetByID(context.Background(), c.ID)
	if len(got.Remarks) != 3 || got.Remarks[2].Rating != 7.5 {
		t.Errorf("unexpected remarks: %+v", got.Remarks)
	}
}

func TestAddRemark_Reviewer(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"omitted", `{"text":"ok","rating":5}`, model.DefaultReviewer},
		{"trimmed", `{"text":"ok","rating":5,"by":"  Meera "}`, "Meera"},
		{"blank", `{"text":"ok","rating":5,"by":"   "}`, ""},
		{"null", `{"text":"ok","rating":5,"by":null}`, ""},
		{"number", `{"text":"ok","rating":5,"by":7}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			c := seedCandidate(t, svc)

			got, err := svc.AddRemark(context.Background(), c.ID, remarkInput(t, tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			r, _ := got.LatestRemark()
			if r.Reviewer() != tt.want {
				t.Errorf("reviewer = %q, want %q", r.Reviewer(), tt.want)
			}
		})
	}
}

func TestAddRemark_StoresTrimmedTextAndPublishes(t *testing.T) {
	svc, _, pub := newTestService()
	c := seedCandidate(t, svc)

	got, err := svc.AddRemark(context.Background(), c.ID, remarkInput(t, `{"text":"  solid DS  ","rating":8}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := got.LatestRemark()
	if r.Text != "solid DS" || r.ID == "" {
		t.Errorf("unexpected remark %+v", r)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != events.RemarkAdded || ev.CandidateID != c.ID || ev.RemarkID != r.ID {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Rating == nil || *ev.Rating != 8 {
		t.Errorf("expected rating 8 in event, got %v", ev.Rating)
	}
}

func TestAddRemark_PublishFailureIsNotFatal(t *testing.T) {
	svc, _, pub := newTestService()
	pub.err = errors.New("redis down")
	c := seedCandidate(t, svc)

	if _, err := svc.AddRemark(context.Background(), c.ID, remarkInput(t, `{"text":"ok","rating":5}`)); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestAddRemark_UnknownCandidate(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.AddRemark(context.Background(), "ghost", remarkInput(t, `{"text":"ok","rating":5}`))
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("no event expected for a failed append")
	}
}

// =========================================================================
// EDIT REMARK
// =========================================================================

func TestEditRemark_PartialUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	c := seedCandidate(t, svc)
	c, _ = svc.AddRemark(ctx, c.ID, remarkInput(t, `{"text":"first","rating":4,"by":"Meera"}`))
	remarkID := c.Remarks[0].ID

	got, err := svc.EditRemark(ctx, c.ID, remarkID, remarkInput(t, `{"rating":"9"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := got.Remarks[0]
	if r.Rating != 9 || r.Text != "first" || r.Reviewer() != "Meera" {
		t.Errorf("only rating should change, got %+v", r)
	}

	got, _ = svc.EditRemark(ctx, c.ID, remarkID, remarkInput(t, `{"text":"  revised ","by":{"name":"x"}}`))
	r = got.Remarks[0]
	if r.Text != "revised" || r.Reviewer() != "" || r.Rating != 9 {
		t.Errorf("unexpected remark after second edit: %+v", r)
	}
}

func TestEditRemark_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"blank text", `{"text":"  "}`, "text", MsgTextNonEmpty},
		{"null text", `{"text":null}`, "text", MsgTextNonEmpty},
		{"array text", `{"text":["a"]}`, "text", MsgTextNonEmpty},
		{"rating too high", `{"rating":10.01}`, "rating", MsgEditRatingRange},
		{"rating word", `{"rating":"ten"}`, "rating", MsgEditRatingRange},
		{"rating null", `{"rating":null}`, "rating", MsgEditRatingRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			_, err := svc.EditRemark(context.Background(), "any", "any", remarkInput(t, tt.body))
			wantValidation(t, err, tt.field, tt.msg)
		})
	}
}

func TestEditRemark_NotFound(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()
	c := seedCandidate(t, svc)
	c, _ = svc.AddRemark(ctx, c.ID, remarkInput(t, `{"text":"x","rating":1}`))
	pub.events = nil

	cases := map[string][2]string{
		"unknown candidate": {"ghost", c.Remarks[0].ID},
		"unknown remark":    {c.ID, "ghost"},
	}
	for name, ids := range cases {
		_, err := svc.EditRemark(ctx, ids[0], ids[1], remarkInput(t, `{"rating":2}`))
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
			continue
		}
		var appErr *apperror.AppError
		errors.As(err, &appErr)
		if appErr.Message != repository.MsgRemarkNotFound {
			t.Errorf("%s: message %q", name, appErr.Message)
		}
	}
	if len(pub.events) != 0 {
		t.Error("no event expected for failed edits")
	}
}

// =========================================================================
// DELETE REMARK
// =========================================================================

func TestDeleteRemark(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()
	c := seedCandidate(t, svc)
	for _, body := range []string{
		`{"text":"one","rating":1}`,
		`{"text":"two","rating":2}`,
		`{"text":"three","rating":3}`,
	} {
		c, _ = svc.AddRemark(ctx, c.ID, remarkInput(t, body))
	}

	got, err := svc.DeleteRemark(ctx, c.ID, c.Remarks[1].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Remarks) != 2 || got.Remarks[0].Text != "one" || got.Remarks[1].Text != "three" {
		t.Errorf("unexpected remarks after delete: %+v", got.Remarks)
	}
	if last := pub.events[len(pub.events)-1]; last.Type != events.RemarkDeleted {
		t.Errorf("expected delete event, got %s", last.Type)
	}

	// Deleting again is a no-op.
	again, err := svc.DeleteRemark(ctx, c.ID, c.Remarks[1].ID)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if len(again.Remarks) != 2 {
		t.Errorf("repeat delete changed remarks: %+v", again.Remarks)
	}

	if _, err := svc.DeleteRemark(ctx, "ghost", "x"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown candidate, got %v", err)
	}
}
