package data

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadEnergyString reports an energy value that does not match the game's
// energy grammar.
var ErrBadEnergyString = fmt.Errorf("data: malformed energy string")

var energyPattern = regexp.MustCompile(`^[\d|.]+[kMGTPEZYRQ]?[JW]?$`)

var siMultipliers = map[byte]float64{
	'k': 1e3, 'M': 1e6, 'G': 1e9, 'T': 1e12, 'P': 1e15,
	'E': 1e18, 'Z': 1e21, 'Y': 1e24, 'R': 1e27, 'Q': 1e30,
}

// ParseEnergy parses a game energy string such as "150kJ" or "2.5MW" into
// joules. Watt values are per-tick, so a W suffix divides by 60.
func ParseEnergy(s string) (float64, error) {
	if !energyPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrBadEnergyString, s)
	}
	rest := s
	perTick := false
	if n := len(rest); n > 0 {
		switch rest[n-1] {
		case 'W':
			perTick = true
			rest = rest[:n-1]
		case 'J':
			rest = rest[:n-1]
		}
	}
	multiplier := 1.0
	if n := len(rest); n > 0 {
		if m, ok := siMultipliers[rest[n-1]]; ok {
			multiplier = m
			rest = rest[:n-1]
		}
	}
	value, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadEnergyString, s)
	}
	value *= multiplier
	if perTick {
		value /= 60
	}
	return value, nil
}

// FormatEnergy renders joules with an SI suffix, for logs and stats output.
func FormatEnergy(v float64) string {
	const suffixes = "kMGTPEZYRQ"
	idx := -1
	for v >= 1000 && idx < len(suffixes)-1 {
		v /= 1000
		idx++
	}
	if idx < 0 {
		return strconv.FormatFloat(v, 'g', 4, 64) + "J"
	}
	return strconv.FormatFloat(v, 'g', 4, 64) + string(suffixes[idx]) + "J"
}

// EnergyAmount is an energy value as it appears in the dump: either a bare
// number already in joules or a suffixed string.
type EnergyAmount float64

// UnmarshalJSON decodes either form. Malformed strings fail the whole
// prototype decode so the loader can report which prototype carried them.
func (e *EnergyAmount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseEnergy(s)
		if err != nil {
			return err
		}
		*e = EnergyAmount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadEnergyString, trimmed)
	}
	*e = EnergyAmount(v)
	return nil
}
