package data

// QualityDistribution spreads one unit of item output across quality tiers.
// bonus is the machine's quality effect, base the tier crafting starts at,
// and max the highest tier upgrades may reach. Each tier passes
// next_probability of its upgraded share further up the chain; whatever the
// bonus cannot account for stays at the base tier. Bonuses above 1 drain
// lower tiers, so any tier driven negative pushes its deficit upward.
func (c *Context) QualityDistribution(bonus float64, base, max int) []float64 {
	result := make([]float64, len(c.Qualities))
	if base >= len(result) {
		base = len(result) - 1
	}
	if max < base {
		max = base
	}
	if max > len(result)-1 {
		max = len(result) - 1
	}

	result[base] = bonus
	for idx := base; idx < max; idx++ {
		result[idx+1] = result[idx] * c.Qualities[idx].NextProbability
	}
	for idx := base + 1; idx < len(result); idx++ {
		result[idx-1] -= result[idx]
	}
	result[base] += 1 - bonus
	for idx := 0; idx < len(result)-1; idx++ {
		if result[idx] < 0 {
			result[idx+1] += result[idx]
			result[idx] = 0
		}
	}
	return result
}
