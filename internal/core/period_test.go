package core

import (
	"errors"
	"testing"
	"time"
)

func TestComputeEndDate(t *testing.T) {
	tests := []struct {
		name   string
		start  Date
		period Period
		want   Date
	}{
		{"daily", NewDate(2024, time.March, 10), Daily, NewDate(2024, time.March, 11)},
		{"daily crosses year", NewDate(2023, time.December, 31), Daily, NewDate(2024, time.January, 1)},
		{"weekly", NewDate(2024, time.February, 25), Weekly, NewDate(2024, time.March, 3)},
		{"monthly same day", NewDate(2024, time.March, 15), Monthly, NewDate(2024, time.April, 15)},
		{"monthly jan 31 leap year", NewDate(2024, time.January, 31), Monthly, NewDate(2024, time.February, 29)},
		{"monthly jan 31 common year", NewDate(2023, time.January, 31), Monthly, NewDate(2023, time.February, 28)},
		{"monthly mar 31 to 30 day month", NewDate(2024, time.March, 31), Monthly, NewDate(2024, time.April, 30)},
		{"monthly december rolls over", NewDate(2024, time.December, 31), Monthly, NewDate(2025, time.January, 31)},
		{"yearly", NewDate(2024, time.June, 1), Yearly, NewDate(2025, time.June, 1)},
		{"yearly feb 29 to common year", NewDate(2024, time.February, 29), Yearly, NewDate(2025, time.February, 28)},
		{"yearly feb 28 stays", NewDate(2023, time.February, 28), Yearly, NewDate(2024, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeEndDate(tt.start, tt.period)
			if err != nil {
				t.Fatalf("ComputeEndDate() error = %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("ComputeEndDate(%s, %s) = %s, want %s", tt.start, tt.period, got, tt.want)
			}
		})
	}
}

func TestComputeEndDate_YearlyIntoLeapYear(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	var err error
	for i := 0; i < 4; i++ {
		d, err = ComputeEndDate(d, Yearly)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	// The anchor is lost after the first clamp: 2025-02-28 -> 2028-02-28.
	if want := NewDate(2028, time.February, 28); !d.Equal(want.Time) {
		t.Errorf("got %s, want %s", d, want)
	}

	got, err := ComputeEndDate(NewDate(2027, time.February, 28), Yearly)
	if err != nil {
		t.Fatal(err)
	}
	if want := NewDate(2028, time.February, 28); !got.Equal(want.Time) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestComputeEndDate_Errors(t *testing.T) {
	start := NewDate(2024, time.January, 1)

	if _, err := ComputeEndDate(start, Custom); !errors.Is(err, ErrCustomPeriod) {
		t.Errorf("custom: got %v, want ErrCustomPeriod", err)
	}
	if _, err := ComputeEndDate(start, Period("fortnightly")); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("unknown: got %v, want ErrInvalidPeriod", err)
	}
	if _, err := ComputeEndDate(Date{}, Monthly); !errors.Is(err, ErrMissingStart) {
		t.Errorf("zero start: got %v, want ErrMissingStart", err)
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
	if !IsLeapYear(2028) || IsLeapYear(2100) {
		t.Error("IsLeapYear misclassified 2028 or 2100")
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" Monthly ")
	if err != nil || p != Monthly {
		t.Fatalf("ParsePeriod() = %q, %v", p, err)
	}
	if _, err := ParsePeriod("hourly"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
