package model

import (
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Series is a time ordered slice of values, oldest first.
type Series[T constraints.Ordered] []T

func (s Series[T]) Values() []T {
	return s
}

func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the value position bars back from the newest one.
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

func (s Series[T]) LastValues(size int) []T {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Crossover reports whether s moved above ref on the newest bar.
func (s Series[T]) Crossover(ref Series[T]) bool {
	return s.Last(0) > ref.Last(0) && s.Last(1) <= ref.Last(1)
}

// Crossunder reports whether s moved to or below ref on the newest bar.
func (s Series[T]) Crossunder(ref Series[T]) bool {
	return s.Last(0) <= ref.Last(0) && s.Last(1) > ref.Last(1)
}

func (s Series[T]) Cross(ref Series[T]) bool {
	return s.Crossover(ref) || s.Crossunder(ref)
}

// CrossoverValue reports whether s moved above a constant level on the newest bar.
func (s Series[T]) CrossoverValue(level T) bool {
	return len(s) > 1 && s.Last(0) > level && s.Last(1) <= level
}

// CrossunderValue reports whether s moved below a constant level on the newest bar.
func (s Series[T]) CrossunderValue(level T) bool {
	return len(s) > 1 && s.Last(0) < level && s.Last(1) >= level
}

// NumDecPlaces returns the number of decimal places of v.
func NumDecPlaces(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i > -1 {
		return int64(len(s) - i - 1)
	}
	return 0
}
