package flow

import (
	"fmt"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
	"github.com/rsned/factorio-planner-server/pkg/planner"
)

func effectOf(v data.EffectVector) planner.Effect {
	return planner.Effect{
		Consumption:  v.Consumption,
		Speed:        v.Speed,
		Productivity: v.Productivity,
		Pollution:    v.Pollution,
		Quality:      v.Quality,
	}
}

// combinedEffect sums every effect source a machine sees and clamps the
// total once: directly slotted modules, beacon transmissions scaled by
// distribution effectivity and beacon count, the machine's own base effect,
// and extra effects.
func combinedEffect(ctx *data.Context, set planner.ModuleSet, receiver *data.EffectReceiver) (planner.Effect, error) {
	total := set.Extra
	for _, ref := range set.Modules {
		proto, ok := ctx.Modules[ref.Name]
		if !ok {
			return planner.Effect{}, fmt.Errorf("%w: module %q", data.ErrMissingReference, ref.Name)
		}
		total = total.Add(effectOf(proto.Effect))
	}
	for _, beacon := range set.Beacons {
		proto, ok := ctx.Beacons[beacon.Beacon]
		if !ok {
			return planner.Effect{}, fmt.Errorf("%w: beacon %q", data.ErrMissingReference, beacon.Beacon)
		}
		var transmitted planner.Effect
		for _, ref := range beacon.Modules {
			module, ok := ctx.Modules[ref.Name]
			if !ok {
				return planner.Effect{}, fmt.Errorf("%w: module %q", data.ErrMissingReference, ref.Name)
			}
			transmitted = transmitted.Add(effectOf(module.Effect))
		}
		total = total.Add(transmitted.Scale(proto.DistributionEffectivity * beacon.Count))
	}
	if receiver != nil {
		total = total.Add(effectOf(receiver.BaseEffect))
	}
	return total.Clamped(), nil
}
