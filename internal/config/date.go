package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout        = "2006-01-02"
	compactDateLayout = "20060102"
)

// ParseDate parses a day as YYYY-MM-DD, YYYYMMDD, RFC3339 or unix seconds and returns
// its UTC midnight. An empty input selects the UTC day before now. Eight digit input is
// always read as YYYYMMDD.
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return midnight(now.UTC().AddDate(0, 0, -1)), nil
	}

	if isNumeric(input) {
		if len(input) == len(compactDateLayout) {
			tm, err := time.Parse(compactDateLayout, input)
			if err != nil {
				return time.Time{}, fmt.Errorf("parse date %q: %w", input, err)
			}
			return tm.UTC(), nil
		}
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", input, err)
		}
		return midnight(time.Unix(val, 0).UTC()), nil
	}

	if tm, err := time.Parse(dateLayout, input); err == nil {
		return tm.UTC(), nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD, YYYYMMDD, RFC3339 or unix seconds", input)
	}
	return midnight(tm.UTC()), nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
