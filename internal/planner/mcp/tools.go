package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type                 string              `json:"type,omitempty"`
	Description          string              `json:"description,omitempty"`
	Default              any                 `json:"default,omitempty"`
	Enum                 []string            `json:"enum,omitempty"`
	Minimum              *float64            `json:"minimum,omitempty"`
	Maximum              *float64            `json:"maximum,omitempty"`
	Items                *Property           `json:"items,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *Property           `json:"additionalProperties,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		computeFlowTool(),
		solveTool(),
		savePlanTool(),
		loadPlanTool(),
		listPlansTool(),
		deletePlanTool(),
		contextStatsTool(),
	}
}

func mechanismProperty() Property {
	return Property{
		Type:        "object",
		Description: "One production step. Set exactly one of recipe, mining, source.",
		Properties: map[string]Property{
			"label": {Type: "string", Description: "Display label for the mechanism"},
			"recipe": {
				Type:        "object",
				Description: "A recipe crafted in a machine",
				Properties: map[string]Property{
					"recipe":          {Type: "string", Description: "Recipe prototype name"},
					"quality":         {Type: "integer", Description: "Quality tier the recipe is crafted at"},
					"machine":         {Type: "string", Description: "Crafting machine prototype name"},
					"machine_quality": {Type: "integer", Description: "Quality tier of the machine"},
					"modules":         {Type: "object", Description: "Module loadout: modules, beacons, extra effects"},
					"fuel":            {Type: "object", Description: "Concrete fuel for burner or fluid energy sources"},
				},
				Required: []string{"recipe"},
			},
			"mining": {
				Type:        "object",
				Description: "A resource drained by a mining drill",
				Properties: map[string]Property{
					"resource":      {Type: "string", Description: "Resource prototype name"},
					"drill":         {Type: "string", Description: "Mining drill prototype name"},
					"drill_quality": {Type: "integer", Description: "Quality tier of the drill"},
					"modules":       {Type: "object", Description: "Module loadout"},
					"fuel":          {Type: "object", Description: "Concrete fuel for burner or fluid energy sources"},
				},
				Required: []string{"resource", "drill"},
			},
			"source": {
				Type:        "object",
				Description: "An infinite external supply of one item",
				Properties: map[string]Property{
					"item": {Type: "object", Description: "Item reference: kind, name, quality, temperature"},
				},
				Required: []string{"item"},
			},
		},
	}
}

func planProperty() Property {
	mech := mechanismProperty()
	return Property{
		Type:        "object",
		Description: "A complete plan: mechanisms plus target rates",
		Properties: map[string]Property{
			"name":       {Type: "string", Description: "Plan name"},
			"mechanisms": {Type: "array", Items: &mech},
			"targets": {
				Type:        "array",
				Description: "Target per-minute net rates",
				Items: &Property{
					Type: "object",
					Properties: map[string]Property{
						"item": {Type: "object", Description: "Item reference"},
						"rate": {Type: "number", Description: "Required net per-minute rate"},
					},
					Required: []string{"item", "rate"},
				},
			},
		},
		Required: []string{"mechanisms", "targets"},
	}
}

func computeFlowTool() ToolDefinition {
	mech := mechanismProperty()
	return ToolDefinition{
		Name:        "compute_flow",
		Description: "Compute the per-minute item flow and activity cost of one configured mechanism: a recipe in a machine, a drill on a resource, or an external source.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"mechanism": mech,
			},
			Required: []string{"mechanism"},
		},
	}
}

func solveTool() ToolDefinition {
	return ToolDefinition{
		Name:        "solve",
		Description: "Solve a plan: find the cheapest mechanism activity levels that hit every target rate exactly while no other item runs a deficit. Reports per-mechanism activity, total cost, and the aggregate net flow.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"plan": planProperty(),
			},
			Required: []string{"plan"},
		},
	}
}

func savePlanTool() ToolDefinition {
	return ToolDefinition{
		Name:        "save_plan",
		Description: "Store a plan. Returns the plan ID. Pass an existing ID to overwrite that plan.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"id":   {Type: "string", Description: "Existing plan ID to overwrite (optional)"},
				"plan": planProperty(),
			},
			Required: []string{"plan"},
		},
	}
}

func loadPlanTool() ToolDefinition {
	return ToolDefinition{
		Name:        "load_plan",
		Description: "Load a stored plan by ID.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"id": {Type: "string", Description: "Plan ID"},
			},
			Required: []string{"id"},
		},
	}
}

func listPlansTool() ToolDefinition {
	return ToolDefinition{
		Name:        "list_plans",
		Description: "List stored plans, most recently updated first.",
		InputSchema: JSONSchema{Type: "object"},
	}
}

func deletePlanTool() ToolDefinition {
	return ToolDefinition{
		Name:        "delete_plan",
		Description: "Delete a stored plan by ID.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"id": {Type: "string", Description: "Plan ID"},
			},
			Required: []string{"id"},
		},
	}
}

func contextStatsTool() ToolDefinition {
	return ToolDefinition{
		Name:        "context_stats",
		Description: "Report the sizes of the loaded game data tables.",
		InputSchema: JSONSchema{Type: "object"},
	}
}

// ============================================================================
// Tool handlers
// ============================================================================

func (s *Server) toolComputeFlow(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Mechanism planner.MechanismConfig `json:"mechanism"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return s.engine.ComputeFlow(params.Mechanism)
}

func (s *Server) toolSolve(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Plan planner.PlanDoc `json:"plan"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return s.engine.Solve(&params.Plan)
}

func (s *Server) toolSavePlan(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		ID   string          `json:"id"`
		Plan planner.PlanDoc `json:"plan"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	id, err := s.engine.SavePlan(ctx, params.ID, &params.Plan)
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func (s *Server) toolLoadPlan(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	doc, err := s.engine.LoadPlan(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("no plan with id %s", params.ID)
	}
	return doc, nil
}

func (s *Server) toolListPlans(ctx context.Context, args json.RawMessage) (any, error) {
	plans, err := s.engine.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"plans": plans}, nil
}

func (s *Server) toolDeletePlan(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	deleted, err := s.engine.DeletePlan(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": deleted}, nil
}

func (s *Server) toolContextStats(ctx context.Context, args json.RawMessage) (any, error) {
	return s.engine.Stats(), nil
}
