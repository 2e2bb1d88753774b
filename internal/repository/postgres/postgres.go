// Package postgres implements repository.CandidateRepository on PostgreSQL,
// storing each candidate as a JSONB document.
//
// Remark mutations lock the candidate's row with SELECT … FOR UPDATE, edit
// the decoded document and write it back in the same transaction, so two
// requests editing one candidate's remarks can never lose each other's
// changes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/repository"
)

// Compile-time check that *Store satisfies the repository contract.
var _ repository.CandidateRepository = (*Store)(nil)

const (
	maxConns       = 10
	connectTimeout = 10 * time.Second
)

// Store is a pgx-pool backed candidate repository.
type Store struct {
	pool *pgxpool.Pool
}

// New creates the pool, verifies it with a ping and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return s, nil
}

// Ping verifies the pool can still reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS candidates (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			document   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_candidates_domain ON candidates ((document->>'domain'));
	`)
	if err != nil {
		return fmt.Errorf("creating candidates table: %w", err)
	}
	return nil
}

// Create inserts a new candidate document.
func (s *Store) Create(ctx context.Context, c *model.Candidate) error {
	repository.PrepareCreate(c)

	doc, err := encode(c)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidates (id, document, created_at, updated_at)
		 VALUES ($1, $2::jsonb, $3, $4)`,
		c.ID, doc, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating candidate: %w", err)
	}

	c.ApplyDefaults()
	return nil
}

// GetByID returns one candidate, or apperror.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	c, err := getDocument(ctx, s.pool, id, false)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	return c, nil
}

// List returns candidates ordered by priority (nulls last), branch and
// insertion order. COLLATE "C" makes branch comparison byte-wise regardless
// of the database locale.
func (s *Store) List(ctx context.Context, opts repository.ListOptions) ([]model.Candidate, error) {
	const orderBy = ` ORDER BY (document->>'priority')::double precision ASC NULLS LAST,
		(document->>'branch') COLLATE "C" ASC,
		seq ASC`

	var (
		rows pgx.Rows
		err  error
	)
	if opts.Domain != "" {
		rows, err = s.pool.Query(ctx, `SELECT document FROM candidates WHERE document->>'domain' = $1`+orderBy, opts.Domain)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT document FROM candidates`+orderBy)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: listing candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]model.Candidate, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("postgres: scanning candidate row: %w", err)
		}
		c, err := decode(doc)
		if err != nil {
			return nil, err
		}
		c.ApplyDefaults()
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating candidates: %w", err)
	}
	return candidates, nil
}

// AppendRemark pushes a remark onto the end of the candidate's list.
func (s *Store) AppendRemark(ctx context.Context, candidateID string, r model.Remark) (*model.Candidate, error) {
	return s.mutate(ctx, candidateID, repository.AppendRemark(&r))
}

// UpdateRemark edits one remark; unknown candidate and unknown remark share
// one not-found error.
func (s *Store) UpdateRemark(ctx context.Context, candidateID, remarkID string, p model.RemarkPatch) (*model.Candidate, error) {
	c, err := s.mutate(ctx, candidateID, repository.PatchRemark(remarkID, p))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage(repository.MsgRemarkNotFound)
	}
	return c, err
}

// DeleteRemark pulls one remark; an unknown remark id is a no-op.
func (s *Store) DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error) {
	return s.mutate(ctx, candidateID, repository.RemoveRemark(remarkID))
}

func (s *Store) mutate(ctx context.Context, id string, fn repository.Mutation) (*model.Candidate, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("postgres: beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after Commit

	c, err := getDocument(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	changed, err := fn(c)
	if err != nil {
		return nil, err
	}

	if changed {
		c.UpdatedAt = repository.Now()
		doc, err := encode(c)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE candidates SET document = $1::jsonb, updated_at = $2 WHERE id = $3`,
			doc, c.UpdatedAt, id,
		); err != nil {
			return nil, fmt.Errorf("postgres: updating candidate %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: committing candidate %s: %w", id, err)
	}

	c.ApplyDefaults()
	return c, nil
}

// rowQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getDocument(ctx context.Context, q rowQuerier, id string, forUpdate bool) (*model.Candidate, error) {
	query := `SELECT document FROM candidates WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var doc []byte
	if err := q.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("postgres: getting candidate %s: %w", id, err)
	}
	return decode(doc)
}
