// Package engine wires the loaded game data, the flow calculators, the
// solver worker, and the plan store into the operations the serving
// surfaces expose.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
	"github.com/rsned/factorio-planner-server/internal/planner/db"
	"github.com/rsned/factorio-planner-server/internal/planner/flow"
	"github.com/rsned/factorio-planner-server/internal/planner/solver"
	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// Engine coordinates all planner operations.
type Engine struct {
	game   *data.Context
	plans  *db.PlanStore
	worker *solver.Worker
	logger *slog.Logger
}

// New creates an engine over loaded game data and an open database.
func New(game *data.Context, database *db.DB, logger *slog.Logger) *Engine {
	return &Engine{
		game:   game,
		plans:  db.NewPlanStore(database),
		worker: solver.NewWorker(logger),
		logger: logger,
	}
}

// Start launches the solver worker. It stops when ctx is done.
func (e *Engine) Start(ctx context.Context) {
	e.worker.Start(ctx)
}

// GameData exposes the loaded context to the serving surfaces.
func (e *Engine) GameData() *data.Context {
	return e.game
}

// Stats reports the loaded game data table sizes.
func (e *Engine) Stats() planner.ContextStats {
	return e.game.Stats()
}

// ComputeFlow evaluates one mechanism config into its flow and cost.
func (e *Engine) ComputeFlow(cfg planner.MechanismConfig) (*planner.FlowResponse, error) {
	mechanism, err := flow.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	f, err := mechanism.Flow(e.game)
	if err != nil {
		return nil, err
	}
	return &planner.FlowResponse{
		Label: cfg.Label,
		Flow:  e.flowEntries(f),
		Cost:  mechanism.Cost(e.game),
	}, nil
}

// buildProblem resolves a plan document into solver inputs.
func (e *Engine) buildProblem(doc *planner.PlanDoc) ([]solver.Mechanism, map[planner.ItemKey]float64, error) {
	mechanisms := make([]solver.Mechanism, 0, len(doc.Mechanisms))
	for i, cfg := range doc.Mechanisms {
		mechanism, err := flow.FromConfig(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("mechanism %d: %w", i, err)
		}
		f, err := mechanism.Flow(e.game)
		if err != nil {
			return nil, nil, fmt.Errorf("mechanism %d: %w", i, err)
		}
		mechanisms = append(mechanisms, solver.Mechanism{
			Label: cfg.Label,
			Flow:  f,
			Cost:  mechanism.Cost(e.game),
		})
	}

	targets := make(map[planner.ItemKey]float64, len(doc.Targets))
	for _, target := range doc.Targets {
		key, err := target.Item.Key()
		if err != nil {
			return nil, nil, fmt.Errorf("target: %w", err)
		}
		targets[key] += target.Rate
	}
	return mechanisms, targets, nil
}

// Solve runs a plan through the solver synchronously.
func (e *Engine) Solve(doc *planner.PlanDoc) (*planner.SolveResponse, error) {
	mechanisms, targets, err := e.buildProblem(doc)
	if err != nil {
		return nil, err
	}
	result, err := solver.Solve(mechanisms, targets)
	if err != nil {
		return nil, err
	}
	return e.solveResponse(doc, result), nil
}

// SubmitSolve queues a plan on the solver worker and returns the request's
// sequence number. Results arrive on SolveResults; anything with a lower
// sequence number is stale.
func (e *Engine) SubmitSolve(doc *planner.PlanDoc) (uint64, error) {
	mechanisms, targets, err := e.buildProblem(doc)
	if err != nil {
		return 0, err
	}
	return e.worker.Submit(mechanisms, targets), nil
}

// SolveResults delivers worker responses.
func (e *Engine) SolveResults() <-chan solver.Response {
	return e.worker.Results()
}

// SolveResponseOf converts a worker result for a document into wire form.
func (e *Engine) SolveResponseOf(doc *planner.PlanDoc, result *solver.Result) *planner.SolveResponse {
	return e.solveResponse(doc, result)
}

func (e *Engine) solveResponse(doc *planner.PlanDoc, result *solver.Result) *planner.SolveResponse {
	activities := make([]planner.MechanismActivity, len(result.Activities))
	for i, activity := range result.Activities {
		label := ""
		if i < len(doc.Mechanisms) {
			label = doc.Mechanisms[i].Label
		}
		activities[i] = planner.MechanismActivity{Index: i, Label: label, Activity: activity}
	}
	return &planner.SolveResponse{
		Activities: activities,
		Objective:  result.Objective,
		NetFlow:    e.flowEntries(result.NetFlow),
	}
}

// flowEntries renders a flow in the game data's display order.
func (e *Engine) flowEntries(f planner.Flow) []planner.FlowEntry {
	keys := make([]planner.ItemKey, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	e.game.SortKeys(keys)
	entries := make([]planner.FlowEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, planner.FlowEntry{Item: k.Ref(), Rate: f[k]})
	}
	return entries
}

// SavePlan stores a plan document, returning its ID.
func (e *Engine) SavePlan(ctx context.Context, id string, doc *planner.PlanDoc) (string, error) {
	return e.plans.SavePlan(ctx, id, doc)
}

// LoadPlan retrieves a stored plan; nil when the ID is unknown.
func (e *Engine) LoadPlan(ctx context.Context, id string) (*planner.PlanDoc, error) {
	return e.plans.LoadPlan(ctx, id)
}

// ListPlans lists stored plans.
func (e *Engine) ListPlans(ctx context.Context) ([]planner.PlanSummary, error) {
	return e.plans.ListPlans(ctx)
}

// DeletePlan removes a stored plan.
func (e *Engine) DeletePlan(ctx context.Context, id string) (bool, error) {
	return e.plans.DeletePlan(ctx, id)
}
