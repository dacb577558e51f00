// Package recurrence expands one transaction intent into a dated series.
package recurrence

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
)

const (
	MinOccurrences = 2
	MaxOccurrences = 360
)

var cent = decimal.New(1, -2)

type Mode string

const (
	ModeUnique      Mode = "unique"
	ModeRecurring   Mode = "recurring"
	ModeInstallment Mode = "installment"
)

type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

func (i Interval) IsValid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}

	return false
}

// Spec describes how to repeat an intent. Occurrences and Interval are ignored
// for ModeUnique; an installment without an interval is monthly.
type Spec struct {
	Mode        Mode
	Interval    Interval
	Occurrences int
}

// Intent is the part of a transaction the expander works on. Payload travels
// through expansion untouched.
type Intent[T any] struct {
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
	Payload     T

	Index int // 1-based position in the series
	Total int
	Mode  Mode
}

// Tag describes the instance's place in its series, empty for unique intents.
func (i Intent[T]) Tag() string {
	switch i.Mode {
	case ModeInstallment:
		return fmt.Sprintf("installment %d/%d", i.Index, i.Total)
	case ModeRecurring:
		return fmt.Sprintf("recurring %d/%d", i.Index, i.Total)
	}

	return ""
}

// Validate checks the spec against the intent's amount before any expansion.
func (s Spec) Validate(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	switch s.Mode {
	case ModeUnique:
		return nil
	case ModeRecurring:
		if !s.Interval.IsValid() {
			return apperr.Validation("interval", "must be daily, weekly, monthly or yearly")
		}
	case ModeInstallment:
		if s.Interval != "" && !s.Interval.IsValid() {
			return apperr.Validation("interval", "must be daily, weekly, monthly or yearly")
		}
	default:
		return apperr.Validation("mode", "must be unique, recurring or installment")
	}

	if s.Occurrences < MinOccurrences || s.Occurrences > MaxOccurrences {
		return apperr.Validation("occurrences", "must be between %d and %d", MinOccurrences, MaxOccurrences)
	}

	if s.Mode == ModeInstallment && amount.LessThan(cent.Mul(decimal.NewFromInt(int64(s.Occurrences)))) {
		return apperr.Validation("amount", "too small for %d installments", s.Occurrences)
	}

	return nil
}

// ValidateAmount accepts positive amounts with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("amount", "must be positive")
	}

	if !amount.Equal(amount.Truncate(2)) {
		return apperr.Validation("amount", "must have at most 2 decimal places")
	}

	return nil
}

// Expand turns intent into the series described by spec. Installments divide
// the amount in whole cents, the leftover cents going one each to the first
// instances so the series sums to the original; recurring instances repeat it
// in full. Instance i is
// due i intervals after the original due date.
func Expand[T any](intent Intent[T], spec Spec) ([]Intent[T], error) {
	if err := spec.Validate(intent.Amount); err != nil {
		return nil, err
	}

	if spec.Mode == ModeUnique {
		intent.Index, intent.Total, intent.Mode = 1, 1, ModeUnique
		return []Intent[T]{intent}, nil
	}

	interval := spec.Interval
	if interval == "" {
		interval = IntervalMonthly
	}

	n := spec.Occurrences
	amounts := repeat(intent.Amount, n)

	if spec.Mode == ModeInstallment {
		amounts = split(intent.Amount, n)
	}

	out := make([]Intent[T], n)
	for i := 0; i < n; i++ {
		inst := intent
		inst.Amount = amounts[i]
		inst.DueDate = Advance(intent.DueDate, interval, i)
		inst.Index = i + 1
		inst.Total = n
		inst.Mode = spec.Mode
		out[i] = inst
	}

	return out, nil
}

func repeat(amount decimal.Decimal, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = amount
	}

	return out
}

func split(amount decimal.Decimal, n int) []decimal.Decimal {
	cents := amount.Shift(2).IntPart()
	share, leftover := cents/int64(n), cents%int64(n)

	out := make([]decimal.Decimal, n)
	for i := range out {
		c := share
		if int64(i) < leftover {
			c++
		}

		out[i] = decimal.New(c, -2)
	}

	return out
}

// Advance moves base forward by steps intervals. Monthly and yearly steps keep
// the base day of month, clamped to the target month's last day.
func Advance(base time.Time, interval Interval, steps int) time.Time {
	switch interval {
	case IntervalDaily:
		return base.AddDate(0, 0, steps)
	case IntervalWeekly:
		return base.AddDate(0, 0, 7*steps)
	case IntervalYearly:
		return addMonths(base, 12*steps)
	default:
		return addMonths(base, steps)
	}
}

func addMonths(base time.Time, months int) time.Time {
	y, m, d := base.Date()
	first := time.Date(y, m+time.Month(months), 1, base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
	last := first.AddDate(0, 1, -1).Day()

	return first.AddDate(0, 0, min(d, last)-1)
}
