package solver

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// Request is one solve submitted to the worker. Seq is assigned by Submit.
type Request struct {
	Seq        uint64
	Mechanisms []Mechanism
	Targets    map[planner.ItemKey]float64
}

// Response pairs a solve outcome with the sequence number of its request.
type Response struct {
	Seq    uint64
	Result *Result
	Err    error
}

// Worker runs solves off the caller's goroutine. Requests are
// latest-wins: an in-flight solve is never cancelled, but its result is
// dropped if a newer request arrived while it ran, and queued requests
// superseded before they start are skipped entirely.
type Worker struct {
	requests chan Request
	results  chan Response
	latest   atomic.Uint64
	logger   *slog.Logger
}

// NewWorker creates a worker. Call Start to begin serving.
func NewWorker(logger *slog.Logger) *Worker {
	return &Worker{
		requests: make(chan Request, 16),
		results:  make(chan Response, 16),
		logger:   logger,
	}
}

// Start runs the solve loop until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Submit queues a solve and returns its sequence number. Any response with a
// lower sequence number is now stale.
func (w *Worker) Submit(mechanisms []Mechanism, targets map[planner.ItemKey]float64) uint64 {
	seq := w.latest.Add(1)
	req := Request{Seq: seq, Mechanisms: mechanisms, Targets: targets}
	for {
		select {
		case w.requests <- req:
			return seq
		default:
		}
		// Queue full: the oldest queued request is stale by definition.
		select {
		case <-w.requests:
		default:
		}
	}
}

// Results delivers responses for the newest request at their completion
// time. Stale responses are dropped before they reach the channel.
func (w *Worker) Results() <-chan Response {
	return w.results
}

func (w *Worker) run(ctx context.Context) {
	w.logger.Info("solver worker started")
	defer w.logger.Info("solver worker stopped")
	for {
		var req Request
		select {
		case <-ctx.Done():
			return
		case req = <-w.requests:
		}
		if req.Seq < w.latest.Load() {
			continue
		}

		result, err := Solve(req.Mechanisms, req.Targets)
		if req.Seq < w.latest.Load() {
			w.logger.Debug("discarding stale solve", "seq", req.Seq)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case w.results <- Response{Seq: req.Seq, Result: result, Err: err}:
		}
	}
}
