package planner

import "sort"

// Flow maps item identities to per-minute rates for one unit of mechanism
// activity. Positive rates are production, negative rates consumption.
type Flow map[ItemKey]float64

// Add accumulates rate into the entry for key.
func (f Flow) Add(key ItemKey, rate float64) {
	f[key] += rate
}

// Merge accumulates every entry of o scaled by c.
func (f Flow) Merge(o Flow, c float64) {
	for key, rate := range o {
		f[key] += rate * c
	}
}

// Keys returns the item keys in deterministic order.
func (f Flow) Keys() []ItemKey {
	keys := make([]ItemKey, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return Compare(keys[i], keys[j]) < 0 })
	return keys
}

// Entries returns the flow as a sorted wire-format slice.
func (f Flow) Entries() []FlowEntry {
	keys := f.Keys()
	entries := make([]FlowEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, FlowEntry{Item: k.Ref(), Rate: f[k]})
	}
	return entries
}

// FlowEntry is the wire form of one flow line.
type FlowEntry struct {
	Item ItemRef `json:"item" yaml:"item"`
	Rate float64 `json:"rate" yaml:"rate"`
}
