package indicator

import (
	"errors"
	"fmt"

	"github.com/jibbril/setupbot/model"
)

var (
	ErrArgsMismatch      = errors.New("indicator arguments do not match the kind")
	ErrInvalidArgs       = errors.New("invalid indicator arguments")
	ErrUnknownKind       = errors.New("unknown indicator kind")
	ErrMissingDependency = errors.New("indicator dependency not populated")
	ErrUnexpectedValue   = errors.New("unexpected indicator value")
	ErrDependencyCycle   = errors.New("indicator dependency cycle")
)

// MissingDependencyError names the indicator whose declared dependency is neither
// requested nor populated on the series.
type MissingDependencyError struct {
	Indicator  model.IndicatorType
	Dependency model.IndicatorType
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s requires %s: %s", e.Indicator, e.Dependency, ErrMissingDependency)
}

func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}

// PopulateError locates a failure at one candle of a scan.
type PopulateError struct {
	Type  model.IndicatorType
	Index int
	Err   error
}

func (e *PopulateError) Error() string {
	return fmt.Sprintf("populate %s at candle %d: %s", e.Type, e.Index, e.Err)
}

func (e *PopulateError) Unwrap() error {
	return e.Err
}
