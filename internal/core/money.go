// Package core provides the transaction model, amount parsing and the
// aggregations computed over a transformed transaction set.
package core

import (
	"strconv"
	"strings"
)

// ParseAmountToCents converts a decimal string to signed cents.
//
// The value is parsed as a float64, scaled by 100 and truncated toward zero.
// This matches the float-to-int conversion of the upstream ledger export, so
// binary representation artifacts are kept rather than rounded away:
//
//	ParseAmountToCents("12.5")   -> 1250, nil
//	ParseAmountToCents("-0.29")  -> -28, nil (0.29*100 == 28.999999999999996)
//	ParseAmountToCents("2.005")  -> 200, nil
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || isHexFloat(s) {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	scaled := f * 100
	// Reject NaN, Inf and values outside the int64 range.
	if scaled != scaled || scaled >= 1<<63 || scaled < -(1<<63) {
		return 0, ErrInvalidAmount
	}
	return int64(scaled), nil
}

// isHexFloat reports a 0x-prefixed literal, which ParseFloat would accept.
func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}
