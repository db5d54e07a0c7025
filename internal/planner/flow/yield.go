// Package flow turns configured mechanisms into per-minute item flows: it
// combines module and beacon effects, normalizes probabilistic recipe
// yields, charges energy source consumption, and prices each mechanism's
// activity.
package flow

import (
	"math"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
)

// normalizedOutput reduces one recipe result to (base, bonus): the expected
// yield per craft and the portion productivity multiplies. Item amounts are
// integers in game terms, so fixed and ranged amounts floor first; the
// ignored share never drives a term negative.
func normalizedOutput(r *data.Result) (base, bonus float64) {
	if r.IsFluid() {
		return fluidOutput(r)
	}
	prob := r.Prob()
	extra := r.ExtraCountFraction
	ignore := math.Floor(ignoredAmount(r))

	if r.Amount != nil {
		amount := math.Floor(*r.Amount)
		bonus = math.Max((amount-ignore)*prob*(1-extra), 0) +
			math.Max((amount+1-ignore)*prob*extra, 0) +
			math.Max((1-ignore)*(1-prob)*extra, 0)
		return amount*prob + extra, bonus
	}

	min, max := resultRange(r)
	// Average of the productivity-eligible count over the uniform range:
	// first term plus last term, times term count, over states, halved.
	states := max - min + 1
	bonus = math.Max(
		(max-ignore+math.Max(min-ignore, 0))*(max-math.Max(min-ignore, 0)+1)/states/2*prob*(1-extra),
		0,
	) + math.Max(
		(max+1-ignore+math.Max(min+1-ignore, 0))*(max-math.Max(min+1-ignore, 0)+1)/states/2*prob*extra,
		0,
	) + math.Max((extra-ignore)*(1-prob)*extra, 0)
	return (max+min)/2*prob + extra, bonus
}

// fluidOutput is the fluid variant: amounts are real-valued and there is no
// extra count fraction. A zero-width range uses the fixed-amount formula;
// the integral form would divide by the range width.
func fluidOutput(r *data.Result) (base, bonus float64) {
	prob := r.Prob()
	ignore := ignoredAmount(r)

	if r.Amount != nil {
		return *r.Amount * prob, math.Max((*r.Amount-ignore)*prob, 0)
	}

	min, max := resultRange(r)
	if max == min {
		return max * prob, math.Max((max-ignore)*prob, 0)
	}
	bonus = math.Max(
		(max-ignore+math.Max(min-ignore, 0))*(max-math.Max(min-ignore, 0))/2/(max-min)*prob,
		0,
	)
	return (max + min) / 2 * prob, bonus
}

func ignoredAmount(r *data.Result) float64 {
	if r.IgnoredByProductivity != nil {
		return *r.IgnoredByProductivity
	}
	if r.IgnoredByStats != nil {
		return *r.IgnoredByStats
	}
	return 0
}

func resultRange(r *data.Result) (min, max float64) {
	if r.AmountMin != nil {
		min = *r.AmountMin
	}
	max = min
	if r.AmountMax != nil {
		max = *r.AmountMax
	}
	if !r.IsFluid() {
		min = math.Floor(min)
		max = math.Floor(max)
	}
	if max < min {
		max = min
	}
	return min, max
}
