package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/repository"
)

// Compile-time check that *DB satisfies the repository contract.
var _ repository.CandidateRepository = (*DB)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx, so lookups can run
// inside or outside a transaction.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a new candidate document.
// The caller's struct receives the generated ID and timestamps.
func (db *DB) Create(ctx context.Context, c *model.Candidate) error {
	repository.PrepareCreate(c)

	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("sqlite: encoding candidate: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO candidates (id, domain, branch, priority, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Domain,
		c.Branch,
		nullablePriority(c.Priority),
		string(doc),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating candidate: %w", err)
	}

	c.ApplyDefaults()
	return nil
}

// GetByID returns one candidate, or apperror.ErrNotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	c, err := getDocument(ctx, db.conn, id)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	return c, nil
}

// List returns candidates, optionally restricted to one domain.
//
// ORDERING:
//
//	priority IS NULL  → 0 for real priorities, 1 for missing ones (nulls last)
//	priority          → ascending
//	branch            → ascending, BINARY collation (byte-wise, case-sensitive)
//	seq               → insertion order for full ties
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Candidate, error) {
	query := `SELECT document FROM candidates`
	var args []any
	if opts.Domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, opts.Domain)
	}
	query += ` ORDER BY priority IS NULL, priority, branch COLLATE BINARY, seq`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]model.Candidate, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite: scanning candidate row: %w", err)
		}
		var c model.Candidate
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("sqlite: decoding candidate: %w", err)
		}
		c.ApplyDefaults()
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating candidates: %w", err)
	}

	return candidates, nil
}

// AppendRemark pushes a remark onto the end of the candidate's list.
func (db *DB) AppendRemark(ctx context.Context, candidateID string, r model.Remark) (*model.Candidate, error) {
	return db.mutate(ctx, candidateID, repository.AppendRemark(&r))
}

// UpdateRemark edits the fields set in p on one remark.
// A missing candidate and a missing remark produce the same not-found error.
func (db *DB) UpdateRemark(ctx context.Context, candidateID, remarkID string, p model.RemarkPatch) (*model.Candidate, error) {
	c, err := db.mutate(ctx, candidateID, repository.PatchRemark(remarkID, p))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundMessage(repository.MsgRemarkNotFound)
	}
	return c, err
}

// DeleteRemark pulls one remark from the candidate's list.
func (db *DB) DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error) {
	return db.mutate(ctx, candidateID, repository.RemoveRemark(remarkID))
}

// mutate runs a read-modify-write of one candidate document in a transaction.
//
//  1. read the document by id (NotFound if absent)
//  2. apply fn to the decoded candidate
//  3. if fn changed it, stamp updated_at and write the whole document back
//  4. commit
//
// Because the pool holds a single connection, no other transaction can
// interleave between steps 1 and 3.
func (db *DB) mutate(ctx context.Context, id string, fn repository.Mutation) (*model.Candidate, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	c, err := getDocument(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(c)
	if err != nil {
		return nil, err
	}

	if changed {
		c.UpdatedAt = repository.Now()
		doc, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encoding candidate %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE candidates SET document = ?, updated_at = ? WHERE id = ?`,
			string(doc), c.UpdatedAt, id,
		); err != nil {
			return nil, fmt.Errorf("sqlite: updating candidate %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing candidate %s: %w", id, err)
	}

	c.ApplyDefaults()
	return c, nil
}

// getDocument loads and decodes one candidate without applying defaults, so
// a document written back afterwards keeps unset reviewers unset.
func getDocument(ctx context.Context, q queryer, id string) (*model.Candidate, error) {
	var doc string
	err := q.QueryRowContext(ctx,
		`SELECT document FROM candidates WHERE id = ?`,
		id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("sqlite: getting candidate %s: %w", id, err)
	}

	var c model.Candidate
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("sqlite: decoding candidate %s: %w", id, err)
	}
	return &c, nil
}

func nullablePriority(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
