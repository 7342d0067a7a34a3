// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rule models 2-state birth/survival cellular automata and provides
// the brute-force stepping primitive the engine uses for small regions.
package rule

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for rule parsing.
var (
	// ErrInvalidRule is returned for strings that are not B/S or S/B notation.
	ErrInvalidRule = errors.New("invalid rule string")

	// ErrUnsupportedRule is returned for rules with birth on zero neighbours.
	// Such rules turn empty space alive, which quadtree padding relies on
	// never happening.
	ErrUnsupportedRule = errors.New("unsupported rule")
)

// Rule is a Moore-neighbourhood birth/survival rule.
//
// Bit n of Birth is set when a dead cell with n live neighbours is born; bit
// n of Survival is set when a live cell with n live neighbours survives.
type Rule struct {
	Birth    uint16
	Survival uint16
}

// Conway is B3/S23.
var Conway = Rule{Birth: 1 << 3, Survival: 1<<2 | 1<<3}

// Parse reads a rule in "B3/S23" or "23/3" notation. Case-insensitive.
//
// Inputs:
//   - s: The rule string. Empty means Conway.
//
// Outputs:
//   - Rule: The parsed rule.
//   - error: ErrInvalidRule or ErrUnsupportedRule.
func Parse(s string) (Rule, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Conway, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, s)
	}

	var birthPart, survivalPart string
	switch {
	case strings.HasPrefix(parts[0], "B") && strings.HasPrefix(parts[1], "S"):
		birthPart, survivalPart = parts[0][1:], parts[1][1:]
	case strings.HasPrefix(parts[0], "S") && strings.HasPrefix(parts[1], "B"):
		survivalPart, birthPart = parts[0][1:], parts[1][1:]
	default:
		// Bare digits are the classic survival/birth order.
		survivalPart, birthPart = parts[0], parts[1]
	}

	birth, err := digitsMask(birthPart)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, s)
	}
	survival, err := digitsMask(survivalPart)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, s)
	}

	r := Rule{Birth: birth, Survival: survival}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// MustParse is Parse for package-level rule literals. Panics on error.
func MustParse(s string) Rule {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate rejects rules the engine cannot run.
func (r Rule) Validate() error {
	if r.Birth&1 != 0 {
		return fmt.Errorf("%w: B0 rules are not supported", ErrUnsupportedRule)
	}
	if r.Birth>>9 != 0 || r.Survival>>9 != 0 {
		return fmt.Errorf("%w: neighbour count above 8", ErrInvalidRule)
	}
	return nil
}

// Next returns the next state of a cell given its state and live neighbour count.
func (r Rule) Next(alive bool, neighbours int) bool {
	if alive {
		return r.Survival&(1<<neighbours) != 0
	}
	return r.Birth&(1<<neighbours) != 0
}

// String returns the rule in B/S notation.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteByte('B')
	writeDigits(&b, r.Birth)
	b.WriteString("/S")
	writeDigits(&b, r.Survival)
	return b.String()
}

// MarshalText implements encoding.TextMarshaler so configs can carry rules.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rule) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func digitsMask(s string) (uint16, error) {
	var mask uint16
	for _, ch := range s {
		if ch < '0' || ch > '8' {
			return 0, ErrInvalidRule
		}
		mask |= 1 << (ch - '0')
	}
	return mask, nil
}

func writeDigits(b *strings.Builder, mask uint16) {
	for n := 0; n <= 8; n++ {
		if mask&(1<<n) != 0 {
			b.WriteByte(byte('0' + n))
		}
	}
}
