// Package core holds the boutique's record types and the ledger arithmetic
// built on them.
//
// This file contains amount parsing and rupee formatting.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountPaise is the largest amount a single field may hold: ten lakh
// crore rupees. Thousands of such amounts still sum without overflow.
const MaxAmountPaise int64 = 1_000_000_000_000_000

// ParseAmount converts a decimal rupee string to paise.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Zero is a valid amount;
// negative values, exponent notation, amounts above MaxAmountPaise and
// malformed input return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12,345") -> 1235, nil
//	ParseAmount("0")      -> 0, nil
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	paise := d.Shift(2).Round(0)
	if !paise.IsInteger() || paise.GreaterThan(decimal.NewFromInt(MaxAmountPaise)) {
		return 0, ErrInvalidAmount
	}
	return paise.IntPart(), nil
}

// Rupees builds a Money from a whole-rupee amount.
func Rupees(r int64) Money {
	return Money{Paise: r * 100}
}

func (m Money) Add(o Money) Money { return Money{Paise: m.Paise + o.Paise} }
func (m Money) Sub(o Money) Money { return Money{Paise: m.Paise - o.Paise} }

// Decimal returns the rupee value with exact paise precision.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Paise, -2)
}

// String renders the amount with two decimals and no grouping, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount the en-IN way: ₹1,23,456.50.
func (m Money) Format() string {
	p := m.Paise
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	whole := strconv.FormatInt(p/100, 10)
	frac := p % 100
	return sign + "₹" + groupIndian(whole) + "." + strconv.FormatInt(frac/10, 10) + strconv.FormatInt(frac%10, 10)
}

// groupIndian inserts separators after the last three digits and then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var b strings.Builder
	lead := len(head) % 2
	if lead > 0 {
		b.WriteString(head[:lead])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
