// Package dice implements the dice model for exploding-die notation.
//
// A die that rolls its maximum value "explodes": it is rolled again and the
// new value is added on. The raw total can therefore never be an exact
// multiple of the side count, and the value domain is unbounded.
package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinCount = 1
	MaxCount = 16
	MinSides = 2
	MaxSides = 100
)

// ErrConstraintViolation indicates a dice count or side count outside the
// supported bounds.
var ErrConstraintViolation = errors.New("dice constraint violation")

// ConstraintError reports which bound a constructor argument violated.
type ConstraintError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d",
		e.Field, e.Min, e.Max, e.Value)
}

func (e *ConstraintError) Unwrap() error { return ErrConstraintViolation }

// Dice is an immutable parsed dice expression: roll `count` dice with
// `sides` sides each, sum the results, add `modifier` once to the total.
type Dice struct {
	count    int
	sides    int
	modifier int
	name     string
}

// Key is the structural identity of a Dice, used for cache keying. Two Dice
// with equal keys have equal canonical names and share cached probabilities.
type Key struct {
	Count    int
	Sides    int
	Modifier int
}

// New constructs a Dice, enforcing count and side bounds.
func New(count, sides, modifier int) (Dice, error) {
	if count < MinCount || count > MaxCount {
		return Dice{}, &ConstraintError{Field: "count", Value: count, Min: MinCount, Max: MaxCount}
	}
	if sides < MinSides || sides > MaxSides {
		return Dice{}, &ConstraintError{Field: "sides", Value: sides, Min: MinSides, Max: MaxSides}
	}
	return Dice{
		count:    count,
		sides:    sides,
		modifier: modifier,
		name:     canonicalName(count, sides, modifier),
	}, nil
}

func canonicalName(count, sides, modifier int) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(count))
	sb.WriteByte('d')
	sb.WriteString(strconv.Itoa(sides))
	if modifier > 0 {
		sb.WriteByte('+')
		sb.WriteString(strconv.Itoa(modifier))
	} else if modifier < 0 {
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(-modifier))
	}
	return sb.String()
}

func (d Dice) Count() int    { return d.count }
func (d Dice) Sides() int    { return d.sides }
func (d Dice) Modifier() int { return d.modifier }

// Name returns the canonical notation, e.g. "2d6+1".
func (d Dice) Name() string { return d.name }

func (d Dice) String() string { return d.name }

// Key returns the structural triple identifying this dice expression.
func (d Dice) Key() Key {
	return Key{Count: d.count, Sides: d.sides, Modifier: d.modifier}
}

// WithCount derives a variant with a different dice count, keeping the
// current sides and modifier.
func (d Dice) WithCount(count int) (Dice, error) {
	return New(count, d.sides, d.modifier)
}

// WithModifier derives a variant with a different modifier, keeping the
// current count and sides.
func (d Dice) WithModifier(modifier int) (Dice, error) {
	return New(d.count, d.sides, modifier)
}
