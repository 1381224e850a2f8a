package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidDescriptor indicates descriptor text that does not look like
// dice notation at all.
var ErrInvalidDescriptor = errors.New("invalid dice descriptor")

// ParseError carries the original descriptor text alongside the failure.
type ParseError struct {
	Descriptor string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse dice descriptor %q: %s", e.Descriptor, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidDescriptor }

// Both the English "d" and the German "w" (Würfel) separators are accepted.
var delimiters = regexp.MustCompile(`[dDwW+-]`)

// Parse converts a textual descriptor such as "2d6+1" or "3w6-2" into a
// Dice. An empty count token defaults to 1, so "d8" parses as "1d8". The
// modifier token is a magnitude; its sign is negative iff the descriptor
// contains a literal "-".
func Parse(descriptor string) (Dice, error) {
	tokens := delimiters.Split(descriptor, -1)
	if len(tokens) < 2 {
		return Dice{}, &ParseError{Descriptor: descriptor, Reason: "expected at least count and sides"}
	}

	count := 1
	if tokens[0] != "" {
		c, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
		if err != nil {
			return Dice{}, &ParseError{Descriptor: descriptor, Reason: "dice count is not a number"}
		}
		count = c
	}

	sides, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return Dice{}, &ParseError{Descriptor: descriptor, Reason: "side count is not a number"}
	}

	modifier := 0
	if len(tokens) > 2 && tokens[2] != "" {
		m, err := strconv.Atoi(strings.TrimSpace(tokens[2]))
		if err != nil {
			return Dice{}, &ParseError{Descriptor: descriptor, Reason: "modifier is not a number"}
		}
		if strings.Contains(descriptor, "-") {
			m = -m
		}
		modifier = m
	}

	return New(count, sides, modifier)
}
