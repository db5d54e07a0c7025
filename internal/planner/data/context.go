// Package data loads a Factorio data-raw dump into typed prototype tables
// and answers the identity, ordering, and quality questions the flow and
// solver layers ask of it.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// ErrMissingReference reports a prototype name that is not in the loaded
// context.
var ErrMissingReference = fmt.Errorf("data: missing reference")

// craftingMachineTypes are the prototype types treated as crafting machines.
var craftingMachineTypes = []string{"assembling-machine", "furnace", "rocket-silo"}

// itemTypes are the prototype types collected into the item table.
var itemTypes = []string{
	"item", "ammo", "capsule", "gun", "item-with-entity-data", "module",
	"tool", "armor", "repair-tool", "space-platform-starter-pack",
	"rail-planner", "blueprint", "blueprint-book", "deconstruction-item",
	"upgrade-item", "spidertron-remote", "copy-paste-tool",
}

// Context is the loaded game data. It is immutable after Load and safe for
// concurrent readers.
type Context struct {
	Items     map[string]*ItemPrototype
	Fluids    map[string]*FluidPrototype
	Recipes   map[string]*RecipePrototype
	Machines  map[string]*CraftingMachinePrototype
	Resources map[string]*ResourcePrototype
	Drills    map[string]*MiningDrillPrototype
	Modules   map[string]*ModulePrototype
	Beacons   map[string]*BeaconPrototype

	// Qualities is the chain walked from "normal" via next links, in tier
	// order. QualityIndex maps names back into it.
	Qualities    []*QualityPrototype
	QualityIndex map[string]int

	itemOrder  map[string]int
	fluidOrder map[string]int
}

// Load reads and parses a data-raw dump file.
func Load(path string) (*Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data dump: %w", err)
	}
	defer func() { _ = f.Close() }()
	ctx, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ctx, nil
}

// Parse decodes a data-raw dump. Any prototype that fails to decode,
// including any malformed energy string, aborts the load with an error
// naming the prototype.
func Parse(r io.Reader) (*Context, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding dump: %w", err)
	}

	ctx := &Context{
		Items:        make(map[string]*ItemPrototype),
		Fluids:       make(map[string]*FluidPrototype),
		Recipes:      make(map[string]*RecipePrototype),
		Machines:     make(map[string]*CraftingMachinePrototype),
		Resources:    make(map[string]*ResourcePrototype),
		Drills:       make(map[string]*MiningDrillPrototype),
		Modules:      make(map[string]*ModulePrototype),
		Beacons:      make(map[string]*BeaconPrototype),
		QualityIndex: make(map[string]int),
	}

	for _, typ := range itemTypes {
		for name, msg := range raw[typ] {
			proto := &ItemPrototype{}
			if err := json.Unmarshal(msg, proto); err != nil {
				return nil, fmt.Errorf("decoding %s %q: %w", typ, name, err)
			}
			proto.Type = typ
			ctx.Items[name] = proto
		}
	}
	if err := decodeTable(raw, "fluid", ctx.Fluids); err != nil {
		return nil, err
	}
	if err := decodeTable(raw, "recipe", ctx.Recipes); err != nil {
		return nil, err
	}
	for _, typ := range craftingMachineTypes {
		for name, msg := range raw[typ] {
			proto := &CraftingMachinePrototype{}
			if err := json.Unmarshal(msg, proto); err != nil {
				return nil, fmt.Errorf("decoding %s %q: %w", typ, name, err)
			}
			proto.Type = typ
			ctx.Machines[name] = proto
		}
	}
	if err := decodeTable(raw, "resource", ctx.Resources); err != nil {
		return nil, err
	}
	if err := decodeTable(raw, "mining-drill", ctx.Drills); err != nil {
		return nil, err
	}
	if err := decodeTable(raw, "module", ctx.Modules); err != nil {
		return nil, err
	}
	if err := decodeTable(raw, "beacon", ctx.Beacons); err != nil {
		return nil, err
	}

	if err := ctx.buildQualityChain(raw["quality"]); err != nil {
		return nil, err
	}
	ctx.buildOrderIndex()

	return ctx, nil
}

func decodeTable[T any](raw map[string]map[string]json.RawMessage, typ string, dst map[string]*T) error {
	for name, msg := range raw[typ] {
		proto := new(T)
		if err := json.Unmarshal(msg, proto); err != nil {
			return fmt.Errorf("decoding %s %q: %w", typ, name, err)
		}
		dst[name] = proto
	}
	return nil
}

// buildQualityChain walks the linked list from "normal". A dump without
// quality prototypes gets a single implicit normal tier.
func (c *Context) buildQualityChain(raw map[string]json.RawMessage) error {
	qualities := make(map[string]*QualityPrototype)
	if err := decodeTable(map[string]map[string]json.RawMessage{"quality": raw}, "quality", qualities); err != nil {
		return err
	}
	if len(qualities) == 0 {
		c.Qualities = []*QualityPrototype{{Name: "normal"}}
		c.QualityIndex["normal"] = 0
		return nil
	}
	name := "normal"
	for name != "" {
		q, ok := qualities[name]
		if !ok {
			return fmt.Errorf("%w: quality %q", ErrMissingReference, name)
		}
		c.QualityIndex[name] = len(c.Qualities)
		c.Qualities = append(c.Qualities, q)
		name = q.Next
	}
	return nil
}

// buildOrderIndex assigns display positions following the prototype order
// strings, grouped by subgroup.
func (c *Context) buildOrderIndex() {
	type entry struct {
		name, subgroup, order string
	}
	rank := func(entries []entry) map[string]int {
		sort.Slice(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if a.subgroup != b.subgroup {
				return a.subgroup < b.subgroup
			}
			if a.order != b.order {
				return a.order < b.order
			}
			return a.name < b.name
		})
		idx := make(map[string]int, len(entries))
		for i, e := range entries {
			idx[e.name] = i
		}
		return idx
	}

	items := make([]entry, 0, len(c.Items))
	for name, p := range c.Items {
		items = append(items, entry{name, p.Subgroup, p.Order})
	}
	c.itemOrder = rank(items)

	fluids := make([]entry, 0, len(c.Fluids))
	for name, p := range c.Fluids {
		fluids = append(fluids, entry{name, p.Subgroup, p.Order})
	}
	c.fluidOrder = rank(fluids)
}

// OrderIndex is the display position of a key within its sort rank. Keys
// without prototype ordering sort after everything that has it.
func (c *Context) OrderIndex(k planner.ItemKey) int {
	switch k.Kind {
	case planner.KindItem:
		if i, ok := c.itemOrder[k.Name]; ok {
			return i
		}
	case planner.KindFluid:
		if i, ok := c.fluidOrder[k.Name]; ok {
			return i
		}
	}
	return 1 << 30
}

// SortKeys orders keys by sort rank, then prototype order, then name.
func (c *Context) SortKeys(keys []planner.ItemKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if ra, rb := a.SortRank(), b.SortRank(); ra != rb {
			return ra < rb
		}
		if oa, ob := c.OrderIndex(a), c.OrderIndex(b); oa != ob {
			return oa < ob
		}
		return planner.Compare(a, b) < 0
	})
}

// Quality returns the quality prototype at a tier index.
func (c *Context) Quality(level uint8) (*QualityPrototype, error) {
	if int(level) >= len(c.Qualities) {
		return nil, fmt.Errorf("%w: quality level %d", ErrMissingReference, level)
	}
	return c.Qualities[level], nil
}

// Stats summarizes the table sizes.
func (c *Context) Stats() planner.ContextStats {
	return planner.ContextStats{
		Items:     len(c.Items),
		Fluids:    len(c.Fluids),
		Recipes:   len(c.Recipes),
		Machines:  len(c.Machines),
		Resources: len(c.Resources),
		Drills:    len(c.Drills),
		Modules:   len(c.Modules),
		Beacons:   len(c.Beacons),
		Qualities: len(c.Qualities),
	}
}
