// Package planner defines the portable types shared between the planner
// internals and its serving surfaces: item identity, effect vectors, flows,
// plan documents, and the solver request/response formats.
package planner

import (
	"fmt"
	"strings"
)

// ItemKind discriminates the closed set of things a flow can carry.
type ItemKind uint8

const (
	// KindItem is a solid inventory item at a specific quality tier.
	KindItem ItemKind = iota
	// KindFluid is a fluid, optionally pinned to a temperature.
	KindFluid
	// KindEntity is a placed entity, such as an ore patch being drained.
	KindEntity
	// KindHeat is abstract heat delivered through heat pipes.
	KindHeat
	// KindElectricity is abstract electric power.
	KindElectricity
	// KindFluidHeat is heat extracted from an unspecified fluid matching a filter.
	KindFluidHeat
	// KindFluidFuel is an unspecified burnable fluid matching a filter.
	KindFluidFuel
	// KindItemFuel is an unspecified burnable item in a fuel category.
	KindItemFuel
	// KindRocketPayloadWeight is rocket lift capacity by weight.
	KindRocketPayloadWeight
	// KindRocketPayloadStack is rocket lift capacity by stack.
	KindRocketPayloadStack
	// KindPollution is a named pollutant emitted to the environment.
	KindPollution
	// KindCustom is an escape hatch for user-defined identities.
	KindCustom
)

var kindNames = map[ItemKind]string{
	KindItem:                "item",
	KindFluid:               "fluid",
	KindEntity:              "entity",
	KindHeat:                "heat",
	KindElectricity:         "electricity",
	KindFluidHeat:           "fluid-heat",
	KindFluidFuel:           "fluid-fuel",
	KindItemFuel:            "item-fuel",
	KindRocketPayloadWeight: "rocket-payload-weight",
	KindRocketPayloadStack:  "rocket-payload-stack",
	KindPollution:           "pollution",
	KindCustom:              "custom",
}

// String returns the wire name of the kind.
func (k ItemKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindFromString parses a wire kind name.
func KindFromString(s string) (ItemKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// ItemKey identifies one tradeable quantity in a flow. It is a plain
// comparable struct so it can key maps directly; two keys are the same
// identity exactly when all fields are equal. Name holds the prototype name
// for item/fluid/entity/pollution/custom kinds, the fluid box filter for
// fluid-heat and fluid-fuel, and the fuel category for item-fuel.
type ItemKey struct {
	Kind           ItemKind
	Name           string
	Quality        uint8
	Temperature    int32
	HasTemperature bool
}

// ItemOf returns the key for an item at a quality tier.
func ItemOf(name string, quality uint8) ItemKey {
	return ItemKey{Kind: KindItem, Name: name, Quality: quality}
}

// FluidOf returns the key for a fluid with no temperature attached.
func FluidOf(name string) ItemKey {
	return ItemKey{Kind: KindFluid, Name: name}
}

// FluidAt returns the key for a fluid pinned to a temperature.
func FluidAt(name string, temperature int32) ItemKey {
	return ItemKey{Kind: KindFluid, Name: name, Temperature: temperature, HasTemperature: true}
}

// EntityOf returns the key for a placed entity at a quality tier.
func EntityOf(name string, quality uint8) ItemKey {
	return ItemKey{Kind: KindEntity, Name: name, Quality: quality}
}

// HeatKey returns the abstract heat identity.
func HeatKey() ItemKey { return ItemKey{Kind: KindHeat} }

// ElectricityKey returns the abstract electricity identity.
func ElectricityKey() ItemKey { return ItemKey{Kind: KindElectricity} }

// FluidHeatOf returns the identity for heat drawn from fluids matching filter.
func FluidHeatOf(filter string) ItemKey {
	return ItemKey{Kind: KindFluidHeat, Name: filter}
}

// FluidFuelOf returns the identity for burnable fluid matching filter.
func FluidFuelOf(filter string) ItemKey {
	return ItemKey{Kind: KindFluidFuel, Name: filter}
}

// ItemFuelOf returns the identity for burnable items in a fuel category.
func ItemFuelOf(category string) ItemKey {
	return ItemKey{Kind: KindItemFuel, Name: category}
}

// RocketPayloadWeightKey returns the rocket weight capacity identity.
func RocketPayloadWeightKey() ItemKey { return ItemKey{Kind: KindRocketPayloadWeight} }

// RocketPayloadStackKey returns the rocket stack capacity identity.
func RocketPayloadStackKey() ItemKey { return ItemKey{Kind: KindRocketPayloadStack} }

// PollutionOf returns the identity for a named pollutant.
func PollutionOf(name string) ItemKey {
	return ItemKey{Kind: KindPollution, Name: name}
}

// CustomOf returns a user-defined identity.
func CustomOf(name string) ItemKey {
	return ItemKey{Kind: KindCustom, Name: name}
}

// SortRank folds the kind and, where relevant, the quality tier into a single
// integer so unrelated kinds never interleave when sorted. Items rank by
// quality alone so all plain items group first, in tier order.
func (k ItemKey) SortRank() int {
	switch k.Kind {
	case KindItem:
		return int(k.Quality)
	case KindFluid:
		return 0x100
	case KindEntity:
		return 0x200 + int(k.Quality)
	case KindHeat:
		return 0x300
	case KindElectricity:
		return 0x400
	case KindFluidHeat:
		return 0x500
	case KindFluidFuel:
		return 0x600
	case KindItemFuel:
		return 0x700
	case KindRocketPayloadWeight:
		return 0x800
	case KindRocketPayloadStack:
		return 0x900
	case KindPollution:
		return 0xa00
	default:
		return 0xb00
	}
}

// Compare orders keys by sort rank, then name, then temperature. It is a
// total order suitable for deterministic iteration without game context;
// context-aware display ordering layers the prototype order index in between.
func Compare(a, b ItemKey) int {
	if ra, rb := a.SortRank(), b.SortRank(); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	switch {
	case a.Temperature < b.Temperature:
		return -1
	case a.Temperature > b.Temperature:
		return 1
	}
	return 0
}

// String renders the key for logs and error messages.
func (k ItemKey) String() string {
	switch k.Kind {
	case KindItem:
		if k.Quality == 0 {
			return k.Name
		}
		return fmt.Sprintf("%s (q%d)", k.Name, k.Quality)
	case KindFluid:
		if k.HasTemperature {
			return fmt.Sprintf("%s@%d", k.Name, k.Temperature)
		}
		return k.Name + " (fluid)"
	case KindEntity:
		if k.Quality == 0 {
			return k.Name + " (entity)"
		}
		return fmt.Sprintf("%s (entity q%d)", k.Name, k.Quality)
	case KindHeat:
		return "heat"
	case KindElectricity:
		return "electricity"
	case KindFluidHeat:
		return "fluid heat: " + k.Name
	case KindFluidFuel:
		return "fluid fuel: " + k.Name
	case KindItemFuel:
		return "fuel category: " + k.Name
	case KindRocketPayloadWeight:
		return "rocket payload weight"
	case KindRocketPayloadStack:
		return "rocket payload stacks"
	case KindPollution:
		return "pollution: " + k.Name
	default:
		return "custom: " + k.Name
	}
}

// ItemRef is the JSON/YAML form of an ItemKey.
type ItemRef struct {
	Kind        string `json:"kind" yaml:"kind"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Quality     uint8  `json:"quality,omitempty" yaml:"quality,omitempty"`
	Temperature *int32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// Ref converts a key to its wire form.
func (k ItemKey) Ref() ItemRef {
	r := ItemRef{Kind: k.Kind.String(), Name: k.Name, Quality: k.Quality}
	if k.HasTemperature {
		t := k.Temperature
		r.Temperature = &t
	}
	return r
}

// Key converts a wire reference back into a key.
func (r ItemRef) Key() (ItemKey, error) {
	kind, ok := KindFromString(r.Kind)
	if !ok {
		return ItemKey{}, fmt.Errorf("unknown item kind %q", r.Kind)
	}
	k := ItemKey{Kind: kind, Name: r.Name, Quality: r.Quality}
	if r.Temperature != nil {
		k.Temperature = *r.Temperature
		k.HasTemperature = true
	}
	return k, nil
}
