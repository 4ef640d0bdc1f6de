// This file derives budget end dates from a start date and a period. Each
// period has its own strategy, looked up through a registry.

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
	Custom  Period = "custom"
)

// Period is the length of a budget cycle.
type Period string

// Periods lists budget periods in display order.
var Periods = []Period{Daily, Weekly, Monthly, Yearly, Custom}

var (
	ErrInvalidPeriod = errors.New("invalid budget period")
	ErrCustomPeriod  = errors.New("custom period has no derived end date")
	ErrMissingStart  = errors.New("start date is required")
)

func (p Period) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly, Custom:
		return true
	}
	return false
}

// ParsePeriod normalises user input into a Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// EndDateStrategy derives the end of a budget cycle from its start.
type EndDateStrategy interface {
	EndDate(start Date) Date
}

// DailyEnd ends one day after the start.
type DailyEnd struct{}

func (DailyEnd) EndDate(start Date) Date {
	return Date{Time: start.AddDate(0, 0, 1)}
}

// WeeklyEnd ends seven days after the start.
type WeeklyEnd struct{}

func (WeeklyEnd) EndDate(start Date) Date {
	return Date{Time: start.AddDate(0, 0, 7)}
}

// MonthlyEnd ends on the same day of the next month, clamped to the last
// day of that month.
type MonthlyEnd struct{}

func (MonthlyEnd) EndDate(start Date) Date {
	year, month := start.Year(), start.Month()+1
	if month > time.December {
		month = time.January
		year++
	}
	day := start.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// YearlyEnd ends on the same month and day of the next year. Feb 29 lands on
// Feb 28 unless the next year is a leap year.
type YearlyEnd struct{}

func (YearlyEnd) EndDate(start Date) Date {
	year := start.Year() + 1
	day := start.Day()
	if last := DaysInMonth(year, start.Month()); day > last {
		day = last
	}
	return NewDate(year, start.Month(), day)
}

var endDateStrategies = map[Period]EndDateStrategy{
	Daily:   DailyEnd{},
	Weekly:  WeeklyEnd{},
	Monthly: MonthlyEnd{},
	Yearly:  YearlyEnd{},
}

// ComputeEndDate returns the derived end date for a budget. Custom periods
// return ErrCustomPeriod: their end date is supplied by the user.
func ComputeEndDate(start Date, period Period) (Date, error) {
	if start.IsZero() {
		return Date{}, ErrMissingStart
	}
	if period == Custom {
		return Date{}, ErrCustomPeriod
	}
	strategy, ok := endDateStrategies[period]
	if !ok {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return strategy.EndDate(start), nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear reports whether year has a Feb 29.
func IsLeapYear(year int) bool {
	return DaysInMonth(year, time.February) == 29
}
