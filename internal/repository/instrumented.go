package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/model"
)

// Instrumented wraps a CandidateRepository and records the count, outcome
// and latency of every call.
type Instrumented struct {
	next     CandidateRepository
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ CandidateRepository = (*Instrumented)(nil)

// Instrument registers the store collectors with reg and wraps repo.
func Instrument(repo CandidateRepository, reg prometheus.Registerer) *Instrumented {
	in := &Instrumented{
		next: repo,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracker",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by name and outcome (ok, not_found, error).",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tracker",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency by name.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
	}
	reg.MustRegister(in.ops, in.duration)
	return in
}

func (in *Instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	in.ops.WithLabelValues(op, outcome).Inc()
	in.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (in *Instrumented) Create(ctx context.Context, c *model.Candidate) error {
	start := time.Now()
	err := in.next.Create(ctx, c)
	in.observe("create", start, err)
	return err
}

func (in *Instrumented) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	start := time.Now()
	c, err := in.next.GetByID(ctx, id)
	in.observe("get", start, err)
	return c, err
}

func (in *Instrumented) List(ctx context.Context, opts ListOptions) ([]model.Candidate, error) {
	start := time.Now()
	cs, err := in.next.List(ctx, opts)
	in.observe("list", start, err)
	return cs, err
}

func (in *Instrumented) AppendRemark(ctx context.Context, candidateID string, r model.Remark) (*model.Candidate, error) {
	start := time.Now()
	c, err := in.next.AppendRemark(ctx, candidateID, r)
	in.observe("append_remark", start, err)
	return c, err
}

func (in *Instrumented) UpdateRemark(ctx context.Context, candidateID, remarkID string, p model.RemarkPatch) (*model.Candidate, error) {
	start := time.Now()
	c, err := in.next.UpdateRemark(ctx, candidateID, remarkID, p)
	in.observe("update_remark", start, err)
	return c, err
}

func (in *Instrumented) DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error) {
	start := time.Now()
	c, err := in.next.DeleteRemark(ctx, candidateID, remarkID)
	in.observe("delete_remark", start, err)
	return c, err
}

func (in *Instrumented) Ping(ctx context.Context) error {
	return in.next.Ping(ctx)
}

func (in *Instrumented) Close() error {
	return in.next.Close()
}
