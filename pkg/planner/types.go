package planner

// ============================================================================
// Plan documents
// ============================================================================

// PlanDoc is a complete saved production plan: the configured mechanisms plus
// the target rates the solver balances them against. It round-trips through
// both yaml plan files and the sqlite plan store.
type PlanDoc struct {
	Name       string            `json:"name" yaml:"name"`
	Mechanisms []MechanismConfig `json:"mechanisms" yaml:"mechanisms"`
	Targets    []Target          `json:"targets" yaml:"targets"`
}

// Target asks the solver for a net rate of one item.
type Target struct {
	Item ItemRef `json:"item" yaml:"item"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// MechanismConfig is one configured production step. Exactly one of the
// variant fields is set.
type MechanismConfig struct {
	Label  string        `json:"label,omitempty" yaml:"label,omitempty"`
	Recipe *RecipeConfig `json:"recipe,omitempty" yaml:"recipe,omitempty"`
	Mining *MiningConfig `json:"mining,omitempty" yaml:"mining,omitempty"`
	Source *SourceConfig `json:"source,omitempty" yaml:"source,omitempty"`
}

// RecipeConfig is a recipe crafted in a machine at a quality tier.
type RecipeConfig struct {
	Recipe         string    `json:"recipe" yaml:"recipe"`
	Quality        uint8     `json:"quality,omitempty" yaml:"quality,omitempty"`
	Machine        string    `json:"machine,omitempty" yaml:"machine,omitempty"`
	MachineQuality uint8     `json:"machine_quality,omitempty" yaml:"machine_quality,omitempty"`
	Modules        ModuleSet `json:"modules,omitempty" yaml:"modules,omitempty"`
	// Fuel pins burner and fluid energy sources to a concrete fuel instead
	// of the abstract fuel-category identity. For fluid sources Quality
	// carries the fluid temperature in FuelRef.Temperature.
	Fuel *FuelRef `json:"fuel,omitempty" yaml:"fuel,omitempty"`
}

// MiningConfig is a resource drained by a mining drill.
type MiningConfig struct {
	Resource     string    `json:"resource" yaml:"resource"`
	Drill        string    `json:"drill" yaml:"drill"`
	DrillQuality uint8     `json:"drill_quality,omitempty" yaml:"drill_quality,omitempty"`
	Modules      ModuleSet `json:"modules,omitempty" yaml:"modules,omitempty"`
	Fuel         *FuelRef  `json:"fuel,omitempty" yaml:"fuel,omitempty"`
}

// SourceConfig is an infinite external supply of one item.
type SourceConfig struct {
	Item ItemRef `json:"item" yaml:"item"`
}

// ModuleSet is the module loadout of a machine: directly slotted modules,
// beacons in range, and free-form extra effects (research bonuses and the
// like).
type ModuleSet struct {
	Modules []ModuleRef    `json:"modules,omitempty" yaml:"modules,omitempty"`
	Beacons []BeaconConfig `json:"beacons,omitempty" yaml:"beacons,omitempty"`
	Extra   Effect         `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ModuleRef names a module prototype at a quality tier.
type ModuleRef struct {
	Name    string `json:"name" yaml:"name"`
	Quality uint8  `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// BeaconConfig is a group of identical beacons affecting the machine.
type BeaconConfig struct {
	Beacon  string      `json:"beacon" yaml:"beacon"`
	Modules []ModuleRef `json:"modules,omitempty" yaml:"modules,omitempty"`
	Count   float64     `json:"count" yaml:"count"`
}

// FuelRef binds an energy source to a concrete fuel.
type FuelRef struct {
	Name string `json:"name" yaml:"name"`
	// Quality of the fuel item for burner sources.
	Quality uint8 `json:"quality,omitempty" yaml:"quality,omitempty"`
	// Temperature of the supplied fluid for fluid sources.
	Temperature int32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// ============================================================================
// Solver wire types
// ============================================================================

// SolveRequest submits a plan for solving.
type SolveRequest struct {
	Plan PlanDoc `json:"plan"`
}

// MechanismActivity is the solved activity level of one configured mechanism.
type MechanismActivity struct {
	Index    int     `json:"index"`
	Label    string  `json:"label,omitempty"`
	Activity float64 `json:"activity"`
}

// SolveResponse is a successful solve.
type SolveResponse struct {
	Activities []MechanismActivity `json:"activities"`
	Objective  float64             `json:"objective"`
	NetFlow    []FlowEntry         `json:"net_flow"`
}

// ============================================================================
// Flow computation wire types
// ============================================================================

// FlowResponse is the flow and activity cost of one configured mechanism.
type FlowResponse struct {
	Label string      `json:"label,omitempty"`
	Flow  []FlowEntry `json:"flow"`
	Cost  float64     `json:"cost"`
}

// ============================================================================
// Plan store wire types
// ============================================================================

// PlanSummary lists one stored plan.
type PlanSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// ContextStats reports the sizes of the loaded game data tables.
type ContextStats struct {
	Items     int `json:"items"`
	Fluids    int `json:"fluids"`
	Recipes   int `json:"recipes"`
	Machines  int `json:"machines"`
	Resources int `json:"resources"`
	Drills    int `json:"drills"`
	Modules   int `json:"modules"`
	Beacons   int `json:"beacons"`
	Qualities int `json:"qualities"`
}
