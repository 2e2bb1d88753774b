package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/repository"
)

// newTestStore connects to TEST_POSTGRES_URL and empties the candidates table.
// Tests are skipped when the variable is unset so `go test ./...` works
// without a database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	s, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.pool.Exec(ctx, `TRUNCATE candidates RESTART IDENTITY`)
	require.NoError(t, err)
	return s
}

func priority(p float64) *float64 { return &p }
func str(s string) *string         { return &s }

func TestEncodeDecode_KeepsUnsetReviewer(t *testing.T) {
	c := &model.Candidate{ID: "c1", Remarks: []model.Remark{{ID: "r1", Text: "x"}}}

	doc, err := encode(c)
	require.NoError(t, err)
	assert.NotContains(t, doc, `"by"`)

	back, err := decode([]byte(doc))
	require.NoError(t, err)
	assert.Nil(t, back.Remarks[0].By)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestStore_ListOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []model.Candidate{
		{Name: "A", Priority: priority(2), Branch: "CS", Domain: "web"},
		{Name: "B", Priority: priority(1), Branch: "EE", Domain: "web"},
		{Name: "C", Branch: "AA", Domain: "web"},
		{Name: "D", Priority: priority(1), Branch: "CS", Domain: "ml"},
	} {
		c := c
		require.NoError(t, s.Create(ctx, &c))
	}

	all, err := s.List(ctx, repository.ListOptions{})
	require.NoError(t, err)
	var got []string
	for _, c := range all {
		got = append(got, c.Name)
	}
	assert.Equal(t, []string{"D", "B", "A", "C"}, got)

	web, err := s.List(ctx, repository.ListOptions{Domain: "web"})
	require.NoError(t, err)
	assert.Len(t, web, 3)
}

func TestStore_RemarkLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &model.Candidate{Name: "A"}
	require.NoError(t, s.Create(ctx, c))

	c, err := s.AppendRemark(ctx, c.ID, model.Remark{Text: "Good", Rating: 7, By: str("Nishant")})
	require.NoError(t, err)
	require.Len(t, c.Remarks, 1)
	rid := c.Remarks[0].ID

	c, err = s.UpdateRemark(ctx, c.ID, rid, model.RemarkPatch{By: str("")})
	require.NoError(t, err)
	assert.Equal(t, "", c.Remarks[0].Reviewer())
	assert.Equal(t, "Good", c.Remarks[0].Text)

	_, err = s.UpdateRemark(ctx, c.ID, "missing", model.RemarkPatch{By: str("")})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	c, err = s.DeleteRemark(ctx, c.ID, "missing")
	require.NoError(t, err)
	assert.Len(t, c.Remarks, 1)

	c, err = s.DeleteRemark(ctx, c.ID, rid)
	require.NoError(t, err)
	assert.Empty(t, c.Remarks)

	_, err = s.DeleteRemark(ctx, "missing", rid)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestStore_GetByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
