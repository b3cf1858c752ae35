// Package period defines the year-month partition key used for all
// remote and local dataset paths.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var pattern = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[0-2])$`)

// Period identifies one calendar month of the dataset.
type Period struct {
	year  int
	month time.Month
}

// Parse parses a YYYY-MM string into a Period.
func Parse(s string) (Period, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return Period{year: year, month: time.Month(month)}, nil
}

// ParseAll parses a list of YYYY-MM strings, failing on the first
// invalid token.
func ParseAll(args []string) ([]Period, error) {
	periods := make([]Period, 0, len(args))
	for _, a := range args {
		p, err := Parse(a)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// String returns the canonical YYYY-MM form.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// Year returns the four-digit year component used for path nesting.
func (p Period) Year() string {
	return fmt.Sprintf("%04d", p.year)
}

// Hot returns the n most recent periods as of now, oldest first.
// These are the months still receiving new gazette entries.
func Hot(now time.Time, n int) []Period {
	if n <= 0 {
		n = 1
	}
	periods := make([]Period, n)
	y, m, _ := now.UTC().Date()
	t := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		periods[i] = Period{year: t.Year(), month: t.Month()}
		t = t.AddDate(0, -1, 0)
	}
	return periods
}
