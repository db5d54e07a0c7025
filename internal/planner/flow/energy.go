package flow

import (
	"fmt"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// ErrDegenerateHeatFlow reports a fluid heat source whose temperature delta
// or heat capacity makes the consumption rate undefined.
var ErrDegenerateHeatFlow = fmt.Errorf("flow: degenerate heat extraction")

// energySourceFlow charges a machine's energy consumption into dst and
// returns the fulfillment ratio: 1 when the source can feed the machine at
// full tilt, less when a fluid flow limit caps it. usage is the machine's
// per-tick draw in joules; rates in dst are per minute.
func energySourceFlow(ctx *data.Context, source *data.EnergySource, usage float64, effects planner.Effect, fuel *planner.FuelRef, dst planner.Flow) (float64, error) {
	fulfillment := 1.0
	demand := usage * 60 * (1 + effects.Consumption)

	switch source.Type {
	case data.EnergyElectric:
		dst.Add(planner.ElectricityKey(), -demand)
		drain := demand / 30
		if source.Drain != nil {
			drain = float64(*source.Drain) * 60
		}
		dst.Add(planner.ElectricityKey(), -drain)

	case data.EnergyHeat:
		dst.Add(planner.HeatKey(), -demand)

	case data.EnergyBurner:
		demand /= source.Effectivity
		if fuel != nil {
			proto, ok := ctx.Items[fuel.Name]
			if !ok {
				return 0, fmt.Errorf("%w: fuel item %q", data.ErrMissingReference, fuel.Name)
			}
			if proto.FuelValue == nil || *proto.FuelValue == 0 {
				return 0, fmt.Errorf("%w: item %q has no fuel value", data.ErrMissingReference, fuel.Name)
			}
			rate := demand / float64(*proto.FuelValue)
			dst.Add(planner.ItemOf(fuel.Name, fuel.Quality), -rate)
			if proto.BurntResult != "" {
				dst.Add(planner.ItemOf(proto.BurntResult, fuel.Quality), rate)
			}
		} else {
			dst.Add(planner.ItemFuelOf(source.BurnerUsage), -demand)
		}

	case data.EnergyFluid:
		demand /= source.Effectivity
		if fuel == nil {
			if source.BurnsFluid {
				dst.Add(planner.FluidFuelOf(source.FluidBox.Filter), -demand)
			} else {
				dst.Add(planner.FluidHeatOf(source.FluidBox.Filter), -demand)
			}
			break
		}
		proto, ok := ctx.Fluids[fuel.Name]
		if !ok {
			return 0, fmt.Errorf("%w: fuel fluid %q", data.ErrMissingReference, fuel.Name)
		}
		var rate float64
		if source.BurnsFluid {
			if proto.FuelValue == nil || *proto.FuelValue == 0 {
				return 0, fmt.Errorf("%w: fluid %q has no fuel value", data.ErrMissingReference, fuel.Name)
			}
			rate = demand / float64(*proto.FuelValue)
		} else {
			delta := float64(fuel.Temperature) - proto.BaseTemperature()
			if !source.ScaleFluidUsage && source.MaximumTemperature > 0 && source.FluidUsagePerTick == 0 {
				delta = source.MaximumTemperature - proto.BaseTemperature()
			}
			capacity := proto.HeatCapacityJoules()
			if delta <= 0 || capacity == 0 {
				return 0, fmt.Errorf("%w: fluid %q at %d over base %.4g", ErrDegenerateHeatFlow, fuel.Name, fuel.Temperature, proto.BaseTemperature())
			}
			rate = demand / capacity / delta
		}
		limit := source.FluidUsagePerTick * 60
		if rate > limit && source.FluidUsagePerTick > 0 {
			fulfillment = limit / rate
			rate = limit
		}
		if rate < limit && !source.ScaleFluidUsage {
			// Fixed-usage sources pull the declared flow regardless of need.
			rate = limit
		}
		dst.Add(planner.FluidOf(fuel.Name), -rate)

	case data.EnergyVoid:
		// No input.

	default:
		return 0, fmt.Errorf("%w: energy source type %q", data.ErrMissingReference, source.Type)
	}

	for pollutant, perMinute := range source.EmissionsPerMinute {
		dst.Add(planner.PollutionOf(pollutant), perMinute*(1+effects.Pollution)*(1+effects.Consumption)/60)
	}
	return fulfillment, nil
}
