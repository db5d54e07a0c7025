package planner

// Effect is the combined bonus vector a machine operates under. Values are
// fractional bonuses: Speed 0.25 means +25% speed.
type Effect struct {
	Consumption  float64 `json:"consumption" yaml:"consumption"`
	Speed        float64 `json:"speed" yaml:"speed"`
	Productivity float64 `json:"productivity" yaml:"productivity"`
	Pollution    float64 `json:"pollution" yaml:"pollution"`
	Quality      float64 `json:"quality" yaml:"quality"`
}

// The game stores effects as signed 16-bit fixed point with two decimal
// places, so every component tops out at 327.67. Consumption, speed, and
// pollution may go as low as -80%; productivity and quality never go
// negative.
const (
	effectMax      = 327.67
	effectFloorNeg = -0.8
)

// Add returns the elementwise sum of two effects.
func (e Effect) Add(o Effect) Effect {
	return Effect{
		Consumption:  e.Consumption + o.Consumption,
		Speed:        e.Speed + o.Speed,
		Productivity: e.Productivity + o.Productivity,
		Pollution:    e.Pollution + o.Pollution,
		Quality:      e.Quality + o.Quality,
	}
}

// Scale returns the effect with every component multiplied by f.
func (e Effect) Scale(f float64) Effect {
	return Effect{
		Consumption:  e.Consumption * f,
		Speed:        e.Speed * f,
		Productivity: e.Productivity * f,
		Pollution:    e.Pollution * f,
		Quality:      e.Quality * f,
	}
}

// Clamped returns the effect with every component pulled into its legal
// range. Applied once, after all sources have been summed.
func (e Effect) Clamped() Effect {
	return Effect{
		Consumption:  clampf(e.Consumption, effectFloorNeg, effectMax),
		Speed:        clampf(e.Speed, effectFloorNeg, effectMax),
		Productivity: clampf(e.Productivity, 0, effectMax),
		Pollution:    clampf(e.Pollution, effectFloorNeg, effectMax),
		Quality:      clampf(e.Quality, 0, effectMax),
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
