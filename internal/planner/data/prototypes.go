package data

import (
	"encoding/json"
	"fmt"
	"math"
)

// ============================================================================
// Shared prototype pieces
// ============================================================================

// MapPosition accepts both the [x, y] and {"x":..,"y":..} dump encodings.
type MapPosition struct {
	X float64
	Y float64
}

// UnmarshalJSON decodes either encoding.
func (p *MapPosition) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err == nil {
		p.X, p.Y = pair[0], pair[1]
		return nil
	}
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding map position: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// BoundingBox is a collision box. Dumps encode it as two or three positions
// or as a left_top/right_bottom object.
type BoundingBox struct {
	LeftTop     MapPosition
	RightBottom MapPosition
	Valid       bool
}

// UnmarshalJSON decodes any of the dump encodings.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var positions []json.RawMessage
	if err := json.Unmarshal(data, &positions); err == nil {
		if len(positions) < 2 {
			return fmt.Errorf("bounding box needs two corners, got %d", len(positions))
		}
		if err := json.Unmarshal(positions[0], &b.LeftTop); err != nil {
			return err
		}
		if err := json.Unmarshal(positions[1], &b.RightBottom); err != nil {
			return err
		}
		b.Valid = true
		return nil
	}
	var obj struct {
		LeftTop     MapPosition `json:"left_top"`
		RightBottom MapPosition `json:"right_bottom"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding bounding box: %w", err)
	}
	b.LeftTop, b.RightBottom = obj.LeftTop, obj.RightBottom
	b.Valid = true
	return nil
}

// FootprintCost is the tile footprint of the box, used as the default
// activity cost of a machine.
func (b BoundingBox) FootprintCost() float64 {
	if !b.Valid {
		return 1
	}
	return math.Ceil(b.RightBottom.X-b.LeftTop.X) * math.Ceil(b.RightBottom.Y-b.LeftTop.Y)
}

// EffectVector is the dump encoding of an effect bonus set.
type EffectVector struct {
	Consumption  float64 `json:"consumption"`
	Speed        float64 `json:"speed"`
	Productivity float64 `json:"productivity"`
	Pollution    float64 `json:"pollution"`
	Quality      float64 `json:"quality"`
}

// EffectReceiver is a machine's intrinsic effect behavior.
type EffectReceiver struct {
	BaseEffect EffectVector `json:"base_effect"`
}

// ============================================================================
// Energy sources
// ============================================================================

// EnergySourceType tags the energy source union.
type EnergySourceType string

// Energy source type tags as they appear in the dump.
const (
	EnergyElectric EnergySourceType = "electric"
	EnergyBurner   EnergySourceType = "burner"
	EnergyHeat     EnergySourceType = "heat"
	EnergyFluid    EnergySourceType = "fluid"
	EnergyVoid     EnergySourceType = "void"
)

// FluidBox is the fluid connection of a fluid energy source.
type FluidBox struct {
	Filter string `json:"filter"`
}

// EnergySource is the decoded tagged union. Only the fields relevant to the
// active Type are meaningful.
type EnergySource struct {
	Type EnergySourceType `json:"type"`

	// Electric.
	Drain *EnergyAmount `json:"drain"`

	// Burner and fluid.
	Effectivity float64 `json:"effectivity"`

	// Burner.
	BurnerUsage string `json:"burner_usage"`

	// Fluid.
	FluidUsagePerTick  float64  `json:"fluid_usage_per_tick"`
	ScaleFluidUsage    bool     `json:"scale_fluid_usage"`
	MaximumTemperature float64  `json:"maximum_temperature"`
	BurnsFluid         bool     `json:"burns_fluid"`
	FluidBox           FluidBox `json:"fluid_box"`

	EmissionsPerMinute map[string]float64 `json:"emissions_per_minute"`
}

// UnmarshalJSON fills in the per-type defaults after decoding.
func (s *EnergySource) UnmarshalJSON(data []byte) error {
	type raw EnergySource
	var r raw
	r.Effectivity = 1
	r.BurnerUsage = "fuel"
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Effectivity == 0 {
		r.Effectivity = 1
	}
	*s = EnergySource(r)
	return nil
}

// ============================================================================
// Items and fluids
// ============================================================================

// ItemPrototype is any item-like prototype.
type ItemPrototype struct {
	Name     string `json:"name"`
	Type     string `json:"-"`
	Subgroup string `json:"subgroup"`
	Order    string `json:"order"`

	FuelCategory string        `json:"fuel_category"`
	FuelValue    *EnergyAmount `json:"fuel_value"`
	BurntResult  string        `json:"burnt_result"`
}

// FluidPrototype is a fluid.
type FluidPrototype struct {
	Name     string `json:"name"`
	Subgroup string `json:"subgroup"`
	Order    string `json:"order"`

	DefaultTemperature *float64      `json:"default_temperature"`
	MaxTemperature     *float64      `json:"max_temperature"`
	HeatCapacity       *EnergyAmount `json:"heat_capacity"`
	FuelValue          *EnergyAmount `json:"fuel_value"`
}

// BaseTemperature is the fluid's default temperature, 15 when unspecified.
func (f *FluidPrototype) BaseTemperature() float64 {
	if f.DefaultTemperature != nil {
		return *f.DefaultTemperature
	}
	return 15
}

// HeatCapacityJoules is joules per unit per degree, 1kJ when unspecified.
func (f *FluidPrototype) HeatCapacityJoules() float64 {
	if f.HeatCapacity != nil {
		return float64(*f.HeatCapacity)
	}
	return 1000
}

// ============================================================================
// Recipes
// ============================================================================

// Ingredient is one recipe input.
type Ingredient struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Amount      float64  `json:"amount"`
	Temperature *float64 `json:"temperature"`
}

// Result is one recipe or resource output.
type Result struct {
	Type                  string   `json:"type"`
	Name                  string   `json:"name"`
	Amount                *float64 `json:"amount"`
	AmountMin             *float64 `json:"amount_min"`
	AmountMax             *float64 `json:"amount_max"`
	Probability           *float64 `json:"probability"`
	IgnoredByStats        *float64 `json:"ignored_by_stats"`
	IgnoredByProductivity *float64 `json:"ignored_by_productivity"`
	ExtraCountFraction    float64  `json:"extra_count_fraction"`
	Temperature           *float64 `json:"temperature"`
}

// Prob is the result probability, 1 when unspecified.
func (r *Result) Prob() float64 {
	if r.Probability != nil {
		return *r.Probability
	}
	return 1
}

// IsFluid reports whether the result is a fluid.
func (r *Result) IsFluid() bool { return r.Type == "fluid" }

// RecipePrototype is a craftable recipe.
type RecipePrototype struct {
	Name     string `json:"name"`
	Subgroup string `json:"subgroup"`
	Order    string `json:"order"`

	Category    string       `json:"category"`
	Ingredients []Ingredient `json:"ingredients"`
	Results     []Result     `json:"results"`

	EnergyRequired      *float64 `json:"energy_required"`
	EmissionsMultiplier *float64 `json:"emissions_multiplier"`
	MaximumProductivity *float64 `json:"maximum_productivity"`
	AllowProductivity   bool     `json:"allow_productivity"`
	AllowQuality        *bool    `json:"allow_quality"`
}

// CraftTime is energy_required with the 0.5s default.
func (r *RecipePrototype) CraftTime() float64 {
	if r.EnergyRequired != nil && *r.EnergyRequired > 0 {
		return *r.EnergyRequired
	}
	return 0.5
}

// MaxProductivity is maximum_productivity with the 3.0 default.
func (r *RecipePrototype) MaxProductivity() float64 {
	if r.MaximumProductivity != nil {
		return *r.MaximumProductivity
	}
	return 3.0
}

// ============================================================================
// Machines
// ============================================================================

// CraftingMachinePrototype covers assembling machines, furnaces, and rocket
// silos.
type CraftingMachinePrototype struct {
	Name         string      `json:"name"`
	Type         string      `json:"-"`
	CollisionBox BoundingBox `json:"collision_box"`

	CraftingSpeed      float64         `json:"crafting_speed"`
	CraftingCategories []string        `json:"crafting_categories"`
	EnergyUsage        *EnergyAmount   `json:"energy_usage"`
	EnergySource       EnergySource    `json:"energy_source"`
	EffectReceiver     *EffectReceiver `json:"effect_receiver"`
	ModuleSlots        float64         `json:"module_slots"`

	CraftingSpeedQualityMultiplier map[string]float64 `json:"crafting_speed_quality_multiplier"`
}

// MiningDrillPrototype mines resource entities.
type MiningDrillPrototype struct {
	Name         string      `json:"name"`
	CollisionBox BoundingBox `json:"collision_box"`

	MiningSpeed        float64         `json:"mining_speed"`
	ResourceCategories []string        `json:"resource_categories"`
	EnergyUsage        *EnergyAmount   `json:"energy_usage"`
	EnergySource       EnergySource    `json:"energy_source"`
	EffectReceiver     *EffectReceiver `json:"effect_receiver"`
	ModuleSlots        float64         `json:"module_slots"`

	ResourceDrainRatePercent *float64 `json:"resource_drain_rate_percent"`
}

// DrainRatePercent is resource_drain_rate_percent with the 100 default.
func (d *MiningDrillPrototype) DrainRatePercent() float64 {
	if d.ResourceDrainRatePercent != nil {
		return *d.ResourceDrainRatePercent
	}
	return 100
}

// ============================================================================
// Resources
// ============================================================================

// MinableProperties describes how a resource is extracted.
type MinableProperties struct {
	MiningTime    float64  `json:"mining_time"`
	Results       []Result `json:"results"`
	Result        string   `json:"result"`
	Count         *float64 `json:"count"`
	FluidAmount   float64  `json:"fluid_amount"`
	RequiredFluid string   `json:"required_fluid"`
}

// ResourcePrototype is a minable resource entity.
type ResourcePrototype struct {
	Name     string `json:"name"`
	Category string `json:"category"`

	Minable *MinableProperties `json:"minable"`
}

// ============================================================================
// Modules and beacons
// ============================================================================

// ModulePrototype is a slottable module.
type ModulePrototype struct {
	Name     string `json:"name"`
	Subgroup string `json:"subgroup"`
	Order    string `json:"order"`

	Category string       `json:"category"`
	Tier     float64      `json:"tier"`
	Effect   EffectVector `json:"effect"`
}

// BeaconPrototype transmits module effects to nearby machines.
type BeaconPrototype struct {
	Name         string      `json:"name"`
	CollisionBox BoundingBox `json:"collision_box"`

	DistributionEffectivity float64       `json:"distribution_effectivity"`
	ModuleSlots             float64       `json:"module_slots"`
	EnergyUsage             *EnergyAmount `json:"energy_usage"`
	EnergySource            EnergySource  `json:"energy_source"`
}

// ============================================================================
// Qualities
// ============================================================================

// QualityPrototype is one tier in the quality chain.
type QualityPrototype struct {
	Name string `json:"name"`

	Level           float64 `json:"level"`
	Next            string  `json:"next"`
	NextProbability float64 `json:"next_probability"`

	CraftingMachineSpeedMultiplier     *float64 `json:"crafting_machine_speed_multiplier"`
	MiningDrillResourceDrainMultiplier *float64 `json:"mining_drill_resource_drain_multiplier"`
	DefaultMultiplier                  *float64 `json:"default_multiplier"`
}

// SpeedMultiplier is the crafting speed multiplier for machines at this
// quality, defaulting to 1 + 0.3 per level.
func (q *QualityPrototype) SpeedMultiplier() float64 {
	if q.CraftingMachineSpeedMultiplier != nil {
		return *q.CraftingMachineSpeedMultiplier
	}
	if q.DefaultMultiplier != nil {
		return *q.DefaultMultiplier
	}
	return 1 + 0.3*q.Level
}

// DrainMultiplier is the resource drain multiplier for drills at this
// quality, defaulting to 1.
func (q *QualityPrototype) DrainMultiplier() float64 {
	if q.MiningDrillResourceDrainMultiplier != nil {
		return *q.MiningDrillResourceDrainMultiplier
	}
	return 1
}
