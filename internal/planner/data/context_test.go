package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

const sampleDump = `{
	"item": {
		"iron-plate": {"name": "iron-plate", "subgroup": "raw-material", "order": "b[iron-plate]"},
		"iron-gear-wheel": {"name": "iron-gear-wheel", "subgroup": "intermediate-product", "order": "c[iron-gear-wheel]"},
		"coal": {"name": "coal", "subgroup": "raw-resource", "order": "b[coal]", "fuel_category": "chemical", "fuel_value": "4MJ"}
	},
	"fluid": {
		"water": {"name": "water", "subgroup": "fluid", "order": "a[water]", "default_temperature": 15, "heat_capacity": "2kJ"},
		"steam": {"name": "steam", "subgroup": "fluid", "order": "b[steam]", "default_temperature": 15, "max_temperature": 1000}
	},
	"recipe": {
		"iron-gear-wheel": {
			"name": "iron-gear-wheel",
			"category": "crafting",
			"energy_required": 0.5,
			"ingredients": [{"type": "item", "name": "iron-plate", "amount": 2}],
			"results": [{"type": "item", "name": "iron-gear-wheel", "amount": 1}]
		}
	},
	"assembling-machine": {
		"assembling-machine-1": {
			"name": "assembling-machine-1",
			"crafting_speed": 0.5,
			"crafting_categories": ["crafting"],
			"energy_usage": "75kW",
			"energy_source": {"type": "electric", "emissions_per_minute": {"pollution": 4}},
			"collision_box": [[-1.2, -1.2], [1.2, 1.2]],
			"module_slots": 2
		}
	},
	"furnace": {
		"stone-furnace": {
			"name": "stone-furnace",
			"crafting_speed": 1,
			"crafting_categories": ["smelting"],
			"energy_usage": "90kW",
			"energy_source": {"type": "burner", "fuel_categories": ["chemical"], "effectivity": 1},
			"collision_box": [[-0.8, -0.8], [0.8, 0.8]]
		}
	},
	"resource": {
		"iron-ore": {
			"name": "iron-ore",
			"category": "basic-solid",
			"minable": {"mining_time": 1, "result": "iron-ore"}
		}
	},
	"mining-drill": {
		"electric-mining-drill": {
			"name": "electric-mining-drill",
			"mining_speed": 0.5,
			"resource_categories": ["basic-solid"],
			"energy_usage": "90kW",
			"energy_source": {"type": "electric"},
			"collision_box": [[-1.4, -1.4], [1.4, 1.4]]
		}
	},
	"module": {
		"speed-module": {
			"name": "speed-module",
			"category": "speed",
			"tier": 1,
			"effect": {"speed": 0.2, "consumption": 0.5}
		}
	},
	"beacon": {
		"beacon": {
			"name": "beacon",
			"distribution_effectivity": 0.5,
			"module_slots": 2,
			"energy_usage": "480kW",
			"energy_source": {"type": "electric"}
		}
	},
	"quality": {
		"normal": {"name": "normal", "level": 0, "next": "uncommon", "next_probability": 0.1},
		"uncommon": {"name": "uncommon", "level": 1}
	}
}`

func TestParseDump(t *testing.T) {
	ctx, err := Parse(strings.NewReader(sampleDump))
	require.NoError(t, err)

	assert.Len(t, ctx.Items, 3)
	assert.Len(t, ctx.Fluids, 2)
	assert.Len(t, ctx.Recipes, 1)
	assert.Len(t, ctx.Machines, 2, "assembling machines and furnaces both count")
	assert.Len(t, ctx.Resources, 1)
	assert.Len(t, ctx.Drills, 1)
	assert.Len(t, ctx.Modules, 1)
	assert.Len(t, ctx.Beacons, 1)

	coal := ctx.Items["coal"]
	require.NotNil(t, coal)
	assert.Equal(t, "chemical", coal.FuelCategory)
	require.NotNil(t, coal.FuelValue)
	assert.Equal(t, EnergyAmount(4e6), *coal.FuelValue)

	machine := ctx.Machines["assembling-machine-1"]
	require.NotNil(t, machine)
	assert.Equal(t, EnergyAmount(1250), *machine.EnergyUsage, "75kW is 1250 J per tick")
	assert.Equal(t, EnergyElectric, machine.EnergySource.Type)
	assert.Equal(t, 9.0, machine.CollisionBox.FootprintCost())

	water := ctx.Fluids["water"]
	require.NotNil(t, water)
	assert.Equal(t, 15.0, water.BaseTemperature())
	assert.Equal(t, 2000.0, water.HeatCapacityJoules())
}

func TestParseDumpQualityChain(t *testing.T) {
	ctx, err := Parse(strings.NewReader(sampleDump))
	require.NoError(t, err)

	require.Len(t, ctx.Qualities, 2)
	assert.Equal(t, "normal", ctx.Qualities[0].Name)
	assert.Equal(t, "uncommon", ctx.Qualities[1].Name)
	assert.Equal(t, 1, ctx.QualityIndex["uncommon"])

	q, err := ctx.Quality(1)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, q.SpeedMultiplier(), 1e-12)

	_, err = ctx.Quality(7)
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestParseDumpNoQualities(t *testing.T) {
	ctx, err := Parse(strings.NewReader(`{"item": {}, "fluid": {}}`))
	require.NoError(t, err)
	require.Len(t, ctx.Qualities, 1)
	assert.Equal(t, "normal", ctx.Qualities[0].Name)
}

func TestParseDumpBadEnergyString(t *testing.T) {
	dump := `{
		"assembling-machine": {
			"broken-machine": {
				"name": "broken-machine",
				"crafting_speed": 1,
				"energy_usage": "lots",
				"energy_source": {"type": "void"}
			}
		}
	}`
	_, err := Parse(strings.NewReader(dump))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadEnergyString)
	assert.Contains(t, err.Error(), "broken-machine")
}

func TestOrderIndexAndSortKeys(t *testing.T) {
	ctx, err := Parse(strings.NewReader(sampleDump))
	require.NoError(t, err)

	keys := []planner.ItemKey{
		planner.FluidOf("steam"),
		planner.ElectricityKey(),
		planner.ItemOf("iron-gear-wheel", 0),
		planner.FluidOf("water"),
		planner.ItemOf("iron-plate", 0),
		planner.ItemOf("iron-plate", 1),
	}
	ctx.SortKeys(keys)

	want := []planner.ItemKey{
		planner.ItemOf("iron-gear-wheel", 0),
		planner.ItemOf("iron-plate", 0),
		planner.ItemOf("iron-plate", 1),
		planner.FluidOf("water"),
		planner.FluidOf("steam"),
		planner.ElectricityKey(),
	}
	assert.Equal(t, want, keys)
}
