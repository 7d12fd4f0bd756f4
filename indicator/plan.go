package indicator

import (
	"fmt"

	"github.com/jibbril/setupbot/model"
)

// Plan builds the definitions of configs and orders them so that every definition comes
// after its dependencies. A dependency that is neither requested nor already populated
// on ts fails the whole plan before anything is computed.
func Plan(ts *model.TimeSeries, configs ...Config) ([]Definition, error) {
	var (
		defs      []Definition
		requested = make(map[model.IndicatorType]Definition)
	)

	for _, c := range configs {
		def, err := New(c.Kind, c.Args)
		if err != nil {
			return nil, err
		}
		if _, ok := requested[def.Type()]; ok {
			continue
		}
		requested[def.Type()] = def
		defs = append(defs, def)
	}

	for _, def := range defs {
		for _, dep := range def.Dependencies() {
			if _, ok := requested[dep]; ok {
				continue
			}
			if ts.IsPopulated(dep) {
				continue
			}
			return nil, &MissingDependencyError{Indicator: def.Type(), Dependency: dep}
		}
	}

	// Kahn's algorithm, stable with respect to the requested order
	ordered := make([]Definition, 0, len(defs))
	done := make(map[model.IndicatorType]bool, len(defs))
	for len(ordered) < len(defs) {
		progress := false
		for _, def := range defs {
			if done[def.Type()] {
				continue
			}
			ready := true
			for _, dep := range def.Dependencies() {
				if _, ok := requested[dep]; ok && !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				ordered = append(ordered, def)
				done[def.Type()] = true
				progress = true
			}
		}
		if !progress {
			return nil, fmt.Errorf("%w among %v", ErrDependencyCycle, configs)
		}
	}

	return ordered, nil
}

// Populate runs PopulateAll for every config in dependency order.
func Populate(ts *model.TimeSeries, configs ...Config) error {
	defs, err := Plan(ts, configs...)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := PopulateAll(ts, def); err != nil {
			return err
		}
	}
	return nil
}

// PopulateLatest runs the live update path for every config in dependency order. It is
// called after each appended candle.
func PopulateLatest(ts *model.TimeSeries, configs ...Config) error {
	defs, err := Plan(ts, configs...)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := PopulateLast(ts, def); err != nil {
			return err
		}
	}
	return nil
}
