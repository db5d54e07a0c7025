package flow

import (
	"fmt"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// The footprint cost of a mechanism with no machine. Hand crafting and
// abstract sources are priced as a full chest row so the solver prefers
// anything with real throughput.
const unmachinedCost = 16.0

// Mechanism is one configured production step that can report its flow and
// its activity cost.
type Mechanism interface {
	// Flow is the per-minute item flow of one unit of activity.
	Flow(ctx *data.Context) (planner.Flow, error)
	// Cost is the objective weight of one unit of activity.
	Cost(ctx *data.Context) float64
}

// FromConfig resolves a wire mechanism config into a Mechanism.
func FromConfig(cfg planner.MechanismConfig) (Mechanism, error) {
	set := 0
	var m Mechanism
	if cfg.Recipe != nil {
		set++
		m = &RecipeMechanism{Config: *cfg.Recipe}
	}
	if cfg.Mining != nil {
		set++
		m = &MiningMechanism{Config: *cfg.Mining}
	}
	if cfg.Source != nil {
		set++
		key, err := cfg.Source.Item.Key()
		if err != nil {
			return nil, fmt.Errorf("source mechanism: %w", err)
		}
		m = &SourceMechanism{Item: key}
	}
	if set != 1 {
		return nil, fmt.Errorf("mechanism config must set exactly one of recipe, mining, source; got %d", set)
	}
	return m, nil
}

// ============================================================================
// Recipes
// ============================================================================

// RecipeMechanism crafts a recipe in a machine.
type RecipeMechanism struct {
	Config planner.RecipeConfig
}

// Flow computes the per-minute flow of one machine running the recipe.
func (r *RecipeMechanism) Flow(ctx *data.Context) (planner.Flow, error) {
	cfg := &r.Config
	recipe, ok := ctx.Recipes[cfg.Recipe]
	if !ok {
		return nil, fmt.Errorf("%w: recipe %q", data.ErrMissingReference, cfg.Recipe)
	}

	dst := planner.Flow{}
	baseSpeed := 1.0
	var receiver *data.EffectReceiver
	var machine *data.CraftingMachinePrototype
	if cfg.Machine != "" {
		machine, ok = ctx.Machines[cfg.Machine]
		if !ok {
			return nil, fmt.Errorf("%w: crafting machine %q", data.ErrMissingReference, cfg.Machine)
		}
		receiver = machine.EffectReceiver
	}

	effects, err := combinedEffect(ctx, cfg.Modules, receiver)
	if err != nil {
		return nil, err
	}

	if machine != nil {
		quality, err := ctx.Quality(cfg.MachineQuality)
		if err != nil {
			return nil, err
		}
		baseSpeed = machine.CraftingSpeed
		if machine.CraftingSpeedQualityMultiplier != nil {
			if mult, ok := machine.CraftingSpeedQualityMultiplier[quality.Name]; ok {
				baseSpeed *= mult
			}
		} else {
			baseSpeed *= quality.SpeedMultiplier()
		}
		if machine.EnergyUsage == nil {
			return nil, fmt.Errorf("%w: machine %q has no energy usage", data.ErrMissingReference, cfg.Machine)
		}
		fulfillment, err := energySourceFlow(ctx, &machine.EnergySource, float64(*machine.EnergyUsage), effects, cfg.Fuel, dst)
		if err != nil {
			return nil, err
		}
		baseSpeed *= fulfillment
	}

	baseSpeed /= recipe.CraftTime()
	speedFactor := (1 + effects.Speed) * baseSpeed

	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		var key planner.ItemKey
		if ing.Type == "fluid" {
			if ing.Temperature != nil {
				key = planner.FluidAt(ing.Name, int32(*ing.Temperature))
			} else {
				key = planner.FluidOf(ing.Name)
			}
		} else {
			key = planner.ItemOf(ing.Name, cfg.Quality)
		}
		dst.Add(key, -ing.Amount*speedFactor)
	}

	distribution := ctx.QualityDistribution(effects.Quality, int(cfg.Quality), len(ctx.Qualities))
	productivity := clampRange(effects.Productivity, 0, recipe.MaxProductivity())
	for i := range recipe.Results {
		result := &recipe.Results[i]
		base, bonus := normalizedOutput(result)
		total := (base + bonus*productivity) * speedFactor
		if result.IsFluid() {
			var key planner.ItemKey
			if result.Temperature != nil {
				key = planner.FluidAt(result.Name, int32(*result.Temperature))
			} else {
				key = planner.FluidOf(result.Name)
			}
			dst.Add(key, total)
			continue
		}
		for level, prob := range distribution {
			if prob > 0 {
				dst.Add(planner.ItemOf(result.Name, uint8(level)), total*prob)
			}
		}
	}

	return dst, nil
}

// Cost prices the mechanism by the machine footprint.
func (r *RecipeMechanism) Cost(ctx *data.Context) float64 {
	if r.Config.Machine == "" {
		return unmachinedCost
	}
	if machine, ok := ctx.Machines[r.Config.Machine]; ok {
		return machine.CollisionBox.FootprintCost()
	}
	return unmachinedCost
}

// ============================================================================
// Mining
// ============================================================================

// MiningMechanism drains a resource with a mining drill.
type MiningMechanism struct {
	Config planner.MiningConfig
}

// Flow computes the per-minute flow of one drill on the resource.
func (m *MiningMechanism) Flow(ctx *data.Context) (planner.Flow, error) {
	cfg := &m.Config
	resource, ok := ctx.Resources[cfg.Resource]
	if !ok {
		return nil, fmt.Errorf("%w: resource %q", data.ErrMissingReference, cfg.Resource)
	}
	if resource.Minable == nil {
		return nil, fmt.Errorf("%w: resource %q is not minable", data.ErrMissingReference, cfg.Resource)
	}
	minable := resource.Minable

	quality, err := ctx.Quality(cfg.DrillQuality)
	if err != nil {
		return nil, err
	}
	drainRate := quality.DrainMultiplier()

	dst := planner.Flow{}
	baseSpeed := 1.0
	var receiver *data.EffectReceiver
	var drill *data.MiningDrillPrototype
	if cfg.Drill != "" {
		drill, ok = ctx.Drills[cfg.Drill]
		if !ok {
			return nil, fmt.Errorf("%w: mining drill %q", data.ErrMissingReference, cfg.Drill)
		}
		receiver = drill.EffectReceiver
	}

	effects, err := combinedEffect(ctx, cfg.Modules, receiver)
	if err != nil {
		return nil, err
	}

	if drill != nil {
		baseSpeed = drill.MiningSpeed
		drainRate *= drill.DrainRatePercent() / 100
		if drill.EnergyUsage == nil {
			return nil, fmt.Errorf("%w: drill %q has no energy usage", data.ErrMissingReference, cfg.Drill)
		}
		fulfillment, err := energySourceFlow(ctx, &drill.EnergySource, float64(*drill.EnergyUsage), effects, cfg.Fuel, dst)
		if err != nil {
			return nil, err
		}
		baseSpeed *= fulfillment
	}

	baseSpeed /= minable.MiningTime
	speedFactor := (1 + effects.Speed) * baseSpeed

	dst.Add(planner.EntityOf(cfg.Resource, 0), -speedFactor*drainRate)

	if minable.RequiredFluid != "" {
		dst.Add(planner.FluidOf(minable.RequiredFluid), -speedFactor*minable.FluidAmount/10)
	}

	distribution := ctx.QualityDistribution(effects.Quality, 0, len(ctx.Qualities))
	if len(minable.Results) > 0 {
		for i := range minable.Results {
			result := &minable.Results[i]
			base, bonus := normalizedOutput(result)
			// Resources have no recipe cap, so productivity applies in full.
			total := (base + bonus*effects.Productivity) * speedFactor
			if result.IsFluid() {
				dst.Add(planner.FluidOf(result.Name), total)
				continue
			}
			for level, prob := range distribution {
				if prob > 0 {
					dst.Add(planner.ItemOf(result.Name, uint8(level)), total*prob)
				}
			}
		}
		return dst, nil
	}

	if minable.Result == "" {
		return nil, fmt.Errorf("%w: resource %q declares no results", data.ErrMissingReference, cfg.Resource)
	}
	count := 1.0
	if minable.Count != nil {
		count = *minable.Count
	}
	total := count * (1 + effects.Productivity) * speedFactor
	for level, prob := range distribution {
		if prob > 0 {
			dst.Add(planner.ItemOf(minable.Result, uint8(level)), total*prob)
		}
	}
	return dst, nil
}

// Cost prices the mechanism by the drill footprint.
func (m *MiningMechanism) Cost(ctx *data.Context) float64 {
	if m.Config.Drill == "" {
		return unmachinedCost
	}
	if drill, ok := ctx.Drills[m.Config.Drill]; ok {
		return drill.CollisionBox.FootprintCost()
	}
	return unmachinedCost
}

// ============================================================================
// Sources
// ============================================================================

// SourceCost makes externally supplied items expensive enough that the
// solver only reaches for them when no configured mechanism can produce the
// item.
const SourceCost = 1024.0

// SourceMechanism is an infinite external supply of one item.
type SourceMechanism struct {
	Item planner.ItemKey
}

// Flow produces one unit per minute per unit of activity.
func (s *SourceMechanism) Flow(*data.Context) (planner.Flow, error) {
	return planner.Flow{s.Item: 1}, nil
}

// Cost is the flat external supply price.
func (s *SourceMechanism) Cost(*data.Context) float64 { return SourceCost }

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
