// Package solver balances configured mechanisms against target rates as a
// linear program: one nonnegative activity level per mechanism, minimizing
// total footprint cost.
package solver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// Mechanism is one LP variable: a flow per unit activity and its cost.
type Mechanism struct {
	Label string
	Flow  planner.Flow
	Cost  float64
}

// Result is a successful solve.
type Result struct {
	// Activities holds one activity level per input mechanism, in order.
	Activities []float64
	Objective  float64
	// NetFlow is the aggregate flow at the solved activity levels.
	NetFlow planner.Flow
}

// ErrorKind classifies solve failures.
type ErrorKind int

// Solve failure classes.
const (
	// KindInfeasible means no activity levels satisfy the targets.
	KindInfeasible ErrorKind = iota
	// KindUnbounded means some combination produces targets at no cost
	// without limit.
	KindUnbounded
	// KindOther covers numerical and internal failures.
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindInfeasible:
		return "infeasible"
	case KindUnbounded:
		return "unbounded"
	default:
		return "other"
	}
}

// ErrUntargetableItem reports a target on an item no mechanism touches.
var ErrUntargetableItem = errors.New("no mechanism touches the target item")

// SolveError is a classified solve failure. MissingProducers lists items
// some mechanism consumes but none produces; on infeasibility they are the
// usual culprits.
type SolveError struct {
	Kind             ErrorKind
	Detail           string
	MissingProducers []planner.ItemKey

	err error
}

// Unwrap exposes the underlying sentinel, when there is one.
func (e *SolveError) Unwrap() error { return e.err }

// Error renders the failure with its missing producers, if any.
func (e *SolveError) Error() string {
	var sb strings.Builder
	sb.WriteString("solve failed (")
	sb.WriteString(e.Kind.String())
	sb.WriteString(")")
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if len(e.MissingProducers) > 0 {
		sb.WriteString("; items with no producer:")
		for _, k := range e.MissingProducers {
			sb.WriteString(" ")
			sb.WriteString(k.String())
		}
	}
	return sb.String()
}

// Solve finds the cheapest activity levels meeting every target exactly
// while keeping every other touched item's balance nonnegative. Items only
// ever consumed are left unconstrained and reported on failure.
func Solve(mechanisms []Mechanism, targets map[planner.ItemKey]float64) (*Result, error) {
	touched := make(map[planner.ItemKey]bool)
	hasProducer := make(map[planner.ItemKey]bool)
	for _, m := range mechanisms {
		for key, rate := range m.Flow {
			touched[key] = true
			if rate > 0 {
				hasProducer[key] = true
			}
		}
	}

	var missing []planner.ItemKey
	for key := range touched {
		if !hasProducer[key] {
			missing = append(missing, key)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return planner.Compare(missing[i], missing[j]) < 0 })

	for key := range targets {
		if !touched[key] {
			return nil, &SolveError{
				Kind:   KindInfeasible,
				Detail: fmt.Sprintf("no mechanism touches target item %s", key),
				err:    ErrUntargetableItem,
			}
		}
	}

	if ray := findFreeRay(mechanisms, targets); ray >= 0 {
		return nil, &SolveError{
			Kind:   KindUnbounded,
			Detail: fmt.Sprintf("mechanism %d produces at no cost without bound", ray),
		}
	}

	// Constraint rows in deterministic item order: equalities for targets,
	// then surplus-relaxed balances for everything else touched.
	var targetItems, balanceItems []planner.ItemKey
	for key := range touched {
		if _, ok := targets[key]; ok {
			targetItems = append(targetItems, key)
		} else if hasProducer[key] {
			balanceItems = append(balanceItems, key)
		}
	}
	sort.Slice(targetItems, func(i, j int) bool { return planner.Compare(targetItems[i], targetItems[j]) < 0 })
	sort.Slice(balanceItems, func(i, j int) bool { return planner.Compare(balanceItems[i], balanceItems[j]) < 0 })

	// A mechanism touching no constrained row would be an all-zero column,
	// which the simplex backend rejects. Such mechanisms idle at activity
	// zero and stay out of the matrix.
	rowItems := make(map[planner.ItemKey]bool, len(targetItems)+len(balanceItems))
	for _, key := range targetItems {
		rowItems[key] = true
	}
	for _, key := range balanceItems {
		rowItems[key] = true
	}
	var active []int
	for i, m := range mechanisms {
		for key := range m.Flow {
			if rowItems[key] {
				active = append(active, i)
				break
			}
		}
	}

	rows := len(targetItems) + len(balanceItems)
	cols := len(active) + len(balanceItems)
	if rows == 0 || len(active) == 0 {
		return &Result{Activities: make([]float64, len(mechanisms)), NetFlow: planner.Flow{}}, nil
	}

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)
	for col, i := range active {
		c[col] = mechanisms[i].Cost
	}

	row := 0
	for _, key := range targetItems {
		for col, i := range active {
			if coeff, ok := mechanisms[i].Flow[key]; ok {
				a.Set(row, col, coeff)
			}
		}
		b[row] = targets[key]
		row++
	}
	for surplus, key := range balanceItems {
		for col, i := range active {
			if coeff, ok := mechanisms[i].Flow[key]; ok {
				a.Set(row, col, coeff)
			}
		}
		// balance - surplus = 0 encodes balance >= 0.
		a.Set(row, len(active)+surplus, -1)
		row++
	}

	objective, x, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return nil, classify(err, missing)
	}

	result := &Result{
		Activities: make([]float64, len(mechanisms)),
		Objective:  objective,
		NetFlow:    planner.Flow{},
	}
	for col, i := range active {
		result.Activities[i] = x[col]
	}
	for i, m := range mechanisms {
		result.NetFlow.Merge(m.Flow, result.Activities[i])
	}
	return result, nil
}

// findFreeRay looks for a mechanism the LP could scale forever: zero cost,
// nothing consumed, something produced, and no target item involved. The
// simplex backend reports such rays as flat optima rather than unbounded, so
// they are caught up front.
func findFreeRay(mechanisms []Mechanism, targets map[planner.ItemKey]float64) int {
	for i, m := range mechanisms {
		if m.Cost != 0 {
			continue
		}
		produces := false
		eligible := true
		for key, rate := range m.Flow {
			if rate < 0 {
				eligible = false
				break
			}
			if _, ok := targets[key]; ok {
				eligible = false
				break
			}
			if rate > 0 {
				produces = true
			}
		}
		if eligible && produces {
			return i
		}
	}
	return -1
}

func classify(err error, missing []planner.ItemKey) *SolveError {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &SolveError{Kind: KindInfeasible, Detail: "no activity levels satisfy the targets", MissingProducers: missing}
	case errors.Is(err, lp.ErrUnbounded):
		return &SolveError{Kind: KindUnbounded, Detail: "the objective decreases without bound"}
	default:
		return &SolveError{Kind: KindOther, Detail: err.Error(), MissingProducers: missing}
	}
}
