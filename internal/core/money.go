// Package core holds the domain model of the labour ledger: workers, linked
// pairs, postings, money arithmetic and the pure ledger construction.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in paise. All arithmetic stays integral; rupees exist
// only for display.
type Money struct {
	Paise int64
}

func Rupees(r int64) Money { return Money{Paise: r * 100} }

func (m Money) Add(o Money) Money { return Money{Paise: m.Paise + o.Paise} }

func (m Money) Sub(o Money) Money { return Money{Paise: m.Paise - o.Paise} }

func (m Money) Neg() Money { return Money{Paise: -m.Paise} }

func (m Money) IsZero() bool { return m.Paise == 0 }

func (m Money) IsPositive() bool { return m.Paise > 0 }

// Rupees returns the rupee value as a float64 for display purposes only.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

func (m Money) String() string {
	sign := ""
	p := m.Paise
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}

// ParseDecimalToPaise converts a decimal string to paise with half-up
// rounding on the third decimal place. Accepts dot and comma separators.
// Only strictly positive amounts are accepted.
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("amount must be positive")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, fmt.Errorf("amount %q too large", s)
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	paise := iv*100 + frac
	if paise <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return paise, nil
}

// SplitEven divides total into n shares that sum back to total exactly.
// Each share is total/n; the first total%n shares carry one extra paisa.
func SplitEven(total Money, n int) []Money {
	if n <= 0 {
		return nil
	}
	per := total.Paise / int64(n)
	rem := total.Paise % int64(n)
	shares := make([]Money, n)
	for i := range shares {
		shares[i] = Money{Paise: per}
		if int64(i) < rem {
			shares[i].Paise++
		}
	}
	return shares
}

// SplitHalf divides total into two shares, odd paisa to the first.
// Used for pair dissolution and the per-member debit breakdown so that the
// two halves always reassemble to the original amount.
func SplitHalf(total Money) (Money, Money) {
	half := total.Paise / 2
	return Money{Paise: half + total.Paise%2}, Money{Paise: half}
}

// PerThousand computes units*rate/1000 with half-up paisa rounding, the
// form both production and thappi wage terms take.
func PerThousand(units int64, rate Money) Money {
	raw := units * rate.Paise
	return Money{Paise: (raw + 500) / 1000}
}
