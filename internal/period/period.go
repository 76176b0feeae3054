// Package period resolves a user-supplied year and month into a period filter.
//
// Parsing is pure (ParseYear, ParseMonth) so it can be tested without a console.
// A month is either numeric ("3", "03") or textual ("march", "Mar"); the two
// modes later filter different columns, see Spec.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/actorwatch/runtime/internal/errhandling"
)

// Sentinel causes carried by the input errors returned from this package.
var (
	ErrInvalidYear     = errors.New("year must consist of decimal digits only")
	ErrMonthOutOfRange = errors.New("month number must be between 1 and 12")
	ErrUnknownMonth    = errors.New("no month name matches")
	ErrAmbiguousMonth  = errors.New("more than one month name matches")
)

// Mode selects how a period is matched against the event table.
type Mode int

const (
	// ModeNumeric matches the derived YYYY-MM label.
	ModeNumeric Mode = iota
	// ModeText matches "<MonthName> <Year>" inside the raw event date.
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "numeric"
}

// Year is a validated, all-digit year as the user typed it.
type Year string

// Month is a validated month and the mode it was entered in.
type Month struct {
	Number time.Month
	Mode   Mode
}

// Name returns the English month name.
func (m Month) Name() string {
	return m.Number.String()
}

// Spec is a fully resolved period.
type Spec struct {
	Year  Year
	Month Month
}

// Label returns the canonical zero-padded "YYYY-MM" label.
func (s Spec) Label() string {
	return fmt.Sprintf("%s-%02d", s.Year, int(s.Month.Number))
}

// DateText returns "<MonthName> <Year>", e.g. "March 2020".
func (s Spec) DateText() string {
	return s.Month.Name() + " " + string(s.Year)
}

// Mode returns the matching mode of the month.
func (s Spec) Mode() Mode {
	return s.Month.Mode
}

func (s Spec) String() string {
	return fmt.Sprintf("%s-%s", s.Month.Name(), s.Year)
}

// ParseYear accepts any non-empty run of decimal digits. No range check is made.
func ParseYear(input string) (Year, error) {
	s := strings.TrimSpace(input)
	if !isDecimal(s) {
		return "", errhandling.NewInputError(fmt.Sprintf("invalid year %q", s), ErrInvalidYear)
	}
	return Year(s), nil
}

// ParseMonth parses a numeric month (1..12) or an English month name.
//
// Textual input matches case-insensitively as a substring of the twelve month
// names. A full-name match wins; otherwise exactly one name must contain the input.
func ParseMonth(input string) (Month, error) {
	s := strings.TrimSpace(input)

	if isDecimal(s) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 12 {
			return Month{}, errhandling.NewInputError(fmt.Sprintf("invalid month %q", s), ErrMonthOutOfRange)
		}
		return Month{Number: time.Month(n), Mode: ModeNumeric}, nil
	}

	if s == "" {
		return Month{}, errhandling.NewInputError("empty month", ErrUnknownMonth)
	}

	needle := strings.ToUpper(s)
	var matches []time.Month
	for m := time.January; m <= time.December; m++ {
		name := strings.ToUpper(m.String())
		if name == needle {
			return Month{Number: m, Mode: ModeText}, nil
		}
		if strings.Contains(name, needle) {
			matches = append(matches, m)
		}
	}

	switch len(matches) {
	case 0:
		return Month{}, errhandling.NewInputError(fmt.Sprintf("invalid month %q", s), ErrUnknownMonth)
	case 1:
		return Month{Number: matches[0], Mode: ModeText}, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.String()
		}
		return Month{}, errhandling.NewInputError(
			fmt.Sprintf("%q matches %s", s, strings.Join(names, " and ")), ErrAmbiguousMonth)
	}
}

// Parse resolves both answers at once.
func Parse(year, month string) (Spec, error) {
	y, err := ParseYear(year)
	if err != nil {
		return Spec{}, err
	}
	m, err := ParseMonth(month)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Year: y, Month: m}, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
