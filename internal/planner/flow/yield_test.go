package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsned/factorio-planner-server/internal/planner/data"
)

func f64(v float64) *float64 { return &v }

func TestNormalizedOutputFixedItem(t *testing.T) {
	tests := []struct {
		name      string
		result    data.Result
		wantBase  float64
		wantBonus float64
	}{
		{
			name:      "plain amount",
			result:    data.Result{Type: "item", Amount: f64(2)},
			wantBase:  2,
			wantBonus: 2,
		},
		{
			name:      "half probability",
			result:    data.Result{Type: "item", Amount: f64(1), Probability: f64(0.5)},
			wantBase:  0.5,
			wantBonus: 0.5,
		},
		{
			name:      "ignored share",
			result:    data.Result{Type: "item", Amount: f64(5), IgnoredByProductivity: f64(2)},
			wantBase:  5,
			wantBonus: 3,
		},
		{
			name:      "ignore falls back to stats",
			result:    data.Result{Type: "item", Amount: f64(5), IgnoredByStats: f64(5)},
			wantBase:  5,
			wantBonus: 0,
		},
		{
			name:      "fractional amount floors",
			result:    data.Result{Type: "item", Amount: f64(2.7)},
			wantBase:  2,
			wantBonus: 2,
		},
		{
			name:      "extra count fraction",
			result:    data.Result{Type: "item", Amount: f64(1), ExtraCountFraction: 0.5},
			wantBase:  1.5,
			wantBonus: 1*1*0.5 + 2*1*0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, bonus := normalizedOutput(&tt.result)
			assert.InDelta(t, tt.wantBase, base, 1e-12)
			assert.InDelta(t, tt.wantBonus, bonus, 1e-12)
		})
	}
}

func TestNormalizedOutputRangedItem(t *testing.T) {
	// Uniform 0..2 averages to one item per craft.
	result := data.Result{Type: "item", AmountMin: f64(0), AmountMax: f64(2)}
	base, bonus := normalizedOutput(&result)
	assert.InDelta(t, 1.0, base, 1e-12)
	assert.InDelta(t, 1.0, bonus, 1e-12)

	// Swapped bounds clamp to the minimum.
	swapped := data.Result{Type: "item", AmountMin: f64(3), AmountMax: f64(1)}
	base, _ = normalizedOutput(&swapped)
	assert.InDelta(t, 3.0, base, 1e-12)
}

func TestNormalizedOutputFluid(t *testing.T) {
	fixed := data.Result{Type: "fluid", Amount: f64(2.5)}
	base, bonus := normalizedOutput(&fixed)
	assert.InDelta(t, 2.5, base, 1e-12)
	assert.InDelta(t, 2.5, bonus, 1e-12)

	ranged := data.Result{Type: "fluid", AmountMin: f64(10), AmountMax: f64(20)}
	base, bonus = normalizedOutput(&ranged)
	assert.InDelta(t, 15.0, base, 1e-12)
	assert.InDelta(t, 15.0, bonus, 1e-12)

	// A zero-width range behaves exactly like a fixed amount.
	degenerate := data.Result{Type: "fluid", AmountMin: f64(10), AmountMax: f64(10)}
	base, bonus = normalizedOutput(&degenerate)
	assert.InDelta(t, 10.0, base, 1e-12)
	assert.InDelta(t, 10.0, bonus, 1e-12)

	ignored := data.Result{Type: "fluid", Amount: f64(4), IgnoredByProductivity: f64(1.5)}
	base, bonus = normalizedOutput(&ignored)
	assert.InDelta(t, 4.0, base, 1e-12)
	assert.InDelta(t, 2.5, bonus, 1e-12)
}
