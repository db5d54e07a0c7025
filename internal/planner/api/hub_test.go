package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
	"github.com/rsned/factorio-planner-server/internal/planner/db"
	"github.com/rsned/factorio-planner-server/internal/planner/engine"
	"github.com/rsned/factorio-planner-server/internal/planner/solver"
	"github.com/rsned/factorio-planner-server/pkg/planner"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	usage := data.EnergyAmount(60)
	craftTime := 1.0
	amount := 1.0
	game := &data.Context{
		Items: map[string]*data.ItemPrototype{
			"iron-plate":      {Name: "iron-plate"},
			"iron-gear-wheel": {Name: "iron-gear-wheel"},
		},
		Fluids: map[string]*data.FluidPrototype{},
		Recipes: map[string]*data.RecipePrototype{
			"iron-gear-wheel": {
				Name:           "iron-gear-wheel",
				EnergyRequired: &craftTime,
				Ingredients:    []data.Ingredient{{Type: "item", Name: "iron-plate", Amount: 2}},
				Results:        []data.Result{{Type: "item", Name: "iron-gear-wheel", Amount: &amount}},
			},
		},
		Machines: map[string]*data.CraftingMachinePrototype{
			"assembler": {
				Name:          "assembler",
				CraftingSpeed: 1,
				EnergyUsage:   &usage,
				EnergySource:  data.EnergySource{Type: data.EnergyElectric, Effectivity: 1},
			},
		},
		Resources:    map[string]*data.ResourcePrototype{},
		Drills:       map[string]*data.MiningDrillPrototype{},
		Modules:      map[string]*data.ModulePrototype{},
		Beacons:      map[string]*data.BeaconPrototype{},
		Qualities:    []*data.QualityPrototype{{Name: "normal"}},
		QualityIndex: map[string]int{"normal": 0},
	}

	database, err := db.OpenAndInit(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(engine.New(game, database, logger), logger)
}

func TestHandleMessageComputeFlow(t *testing.T) {
	h := testHub(t)

	out := h.handleMessage(Message{
		Type:    "compute_flow",
		Payload: json.RawMessage(`{"recipe": {"recipe": "iron-gear-wheel", "machine": "assembler"}}`),
	})
	require.NotNil(t, out)
	assert.Equal(t, "flow_result", out.Type)
	assert.Empty(t, out.Error)
}

func TestHandleMessageComputeFlowBadRecipe(t *testing.T) {
	h := testHub(t)

	out := h.handleMessage(Message{
		Type:    "compute_flow",
		Payload: json.RawMessage(`{"recipe": {"recipe": "nope"}}`),
	})
	require.NotNil(t, out)
	assert.Equal(t, "error", out.Type)
	assert.Contains(t, out.Error, "nope")
}

func TestHandleMessageContextStats(t *testing.T) {
	h := testHub(t)

	out := h.handleMessage(Message{Type: "context_stats"})
	require.NotNil(t, out)
	assert.Equal(t, "context_stats", out.Type)
}

func TestHandleMessageUnknownType(t *testing.T) {
	h := testHub(t)

	out := h.handleMessage(Message{Type: "teleport"})
	require.NotNil(t, out)
	assert.Equal(t, "error", out.Type)
	assert.Contains(t, out.Error, "teleport")
}

func TestHandleSolveTracksLatest(t *testing.T) {
	h := testHub(t)

	payload := json.RawMessage(`{
		"plan": {
			"name": "gears",
			"mechanisms": [
				{"recipe": {"recipe": "iron-gear-wheel", "machine": "assembler"}}
			],
			"targets": [
				{"item": {"kind": "item", "name": "iron-gear-wheel"}, "rate": 10}
			]
		}
	}`)

	out := h.handleSolve(payload)
	assert.Equal(t, "solve_queued", out.Type)
	first := out.Seq

	out = h.handleSolve(payload)
	assert.Equal(t, "solve_queued", out.Type)
	assert.Greater(t, out.Seq, first)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, out.Seq, h.latestSeq)
	require.NotNil(t, h.latestDoc)
	assert.Equal(t, "gears", h.latestDoc.Name)
}

func TestHandleSolveRejectsBadPlan(t *testing.T) {
	h := testHub(t)

	out := h.handleSolve(json.RawMessage(`{"plan": {"mechanisms": [{}], "targets": []}}`))
	assert.Equal(t, "error", out.Type)
	assert.Contains(t, out.Error, "mechanism 0")
}

func TestDeliverStalenessFiltering(t *testing.T) {
	h := testHub(t)
	client := &Client{hub: h, send: make(chan []byte, 4)}
	h.clients[client] = true

	result := &solver.Result{Activities: []float64{1}, NetFlow: planner.Flow{}}

	// No document recorded yet: nothing goes out.
	h.deliver(solver.Response{Seq: 1, Result: result})
	assert.Empty(t, client.send)

	h.mu.Lock()
	h.latestDoc = &planner.PlanDoc{Name: "gears", Mechanisms: []planner.MechanismConfig{{Label: "gears"}}}
	h.latestSeq = 5
	h.mu.Unlock()

	// A result for an older request is dropped.
	h.deliver(solver.Response{Seq: 4, Result: result})
	assert.Empty(t, client.send)

	// The current request's result reaches the client.
	h.deliver(solver.Response{Seq: 5, Result: result})
	require.Len(t, client.send, 1)
	var out struct {
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
	}
	require.NoError(t, json.Unmarshal(<-client.send, &out))
	assert.Equal(t, "solve_result", out.Type)
	assert.Equal(t, uint64(5), out.Seq)
}

func TestDeliverBroadcastsErrors(t *testing.T) {
	h := testHub(t)
	client := &Client{hub: h, send: make(chan []byte, 4)}
	h.clients[client] = true

	h.mu.Lock()
	h.latestDoc = &planner.PlanDoc{Name: "gears"}
	h.latestSeq = 2
	h.mu.Unlock()

	h.deliver(solver.Response{Seq: 2, Err: &solver.SolveError{Kind: solver.KindInfeasible}})
	require.Len(t, client.send, 1)
	var out struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(<-client.send, &out))
	assert.Equal(t, "solve_error", out.Type)
	assert.Contains(t, out.Error, "infeasible")
}
