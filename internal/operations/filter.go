package operations

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"fuelcast/internal/dataprocessing"
	"fuelcast/internal/errors"
)

// PairFilter selects series in batch mode with a boolean expression over
// SeriesSummary fields, e.g. `FuelType == "Petrol" && Points >= 12`.
type PairFilter struct {
	source  string
	program *vm.Program
}

// CompilePairFilter compiles source. A blank source yields a nil filter that
// matches everything.
func CompilePairFilter(source string) (*PairFilter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}

	program, err := expr.Compile(source, expr.Env(dataprocessing.SeriesSummary{}), expr.AsBool())
	if err != nil {
		return nil, errors.NewValidationError("invalid filter expression: " + err.Error())
	}
	return &PairFilter{source: source, program: program}, nil
}

// String returns the filter source
func (f *PairFilter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the filter against one summary
func (f *PairFilter) Match(s dataprocessing.SeriesSummary) (bool, error) {
	if f == nil {
		return true, nil
	}

	out, err := expr.Run(f.program, s)
	if err != nil {
		return false, errors.NewValidationError("filter evaluation failed: " + err.Error())
	}
	b, ok := out.(bool)
	if !ok {
		return false, errors.NewValidationError("filter did not evaluate to a boolean")
	}
	return b, nil
}

// Select returns the summaries the filter matches, in input order
func (f *PairFilter) Select(summaries []dataprocessing.SeriesSummary) ([]dataprocessing.SeriesSummary, error) {
	selected := make([]dataprocessing.SeriesSummary, 0, len(summaries))
	for _, s := range summaries {
		ok, err := f.Match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			selected = append(selected, s)
		}
	}
	return selected, nil
}
