// Package xtime extends time.Duration parsing and formatting with day, week,
// month and year units.
package xtime

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

var (
	componentRx = regexp.MustCompile(`(\d*\.\d+|\d+)([^\d.]*)`)

	longUnits = map[string]time.Duration{
		"d": Day, "D": Day,
		"w": Week, "W": Week,
		"M": Month,
		"y": Year, "Y": Year,
	}
)

// ParseDuration parses a duration string such as "10d", "-1.5w", "3Y4M5d" or
// "1h30m". Besides the units accepted by time.ParseDuration, it supports "d",
// "w", "M" (30 days) and "y" (365 days), case-insensitive except for months.
func ParseDuration(s string) (time.Duration, error) {
	in := s
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return 0, fmt.Errorf("invalid duration %q", in)
	}

	var (
		total    time.Duration
		consumed int
	)
	for _, m := range componentRx.FindAllStringSubmatch(s, -1) {
		consumed += len(m[0])
		num, unit := m[1], m[2]
		if mult, ok := longUnits[unit]; ok {
			d, err := time.ParseDuration(num + "h")
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", in, err)
			}
			total += time.Duration(float64(d) / float64(time.Hour) * float64(mult))
			continue
		}
		d, err := time.ParseDuration(num + unit)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", in, err)
		}
		total += d
	}
	if consumed != len(s) {
		return 0, fmt.Errorf("invalid duration %q", in)
	}

	if neg {
		total = -total
	}

	return total, nil
}

// FormatDuration formats d using the largest units first, e.g. "1w2d" or
// "1h30m". Components smaller than round are omitted. The result is accepted
// by ParseDuration.
func FormatDuration(d, round time.Duration) string {
	if round > 0 {
		d = d.Round(round)
	}
	if d == 0 {
		return "0s"
	}

	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}

	units := []struct {
		size time.Duration
		name string
	}{
		{Year, "Y"}, {Month, "M"}, {Week, "w"}, {Day, "d"},
		{time.Hour, "h"}, {time.Minute, "m"}, {time.Second, "s"},
		{time.Millisecond, "ms"}, {time.Microsecond, "us"}, {time.Nanosecond, "ns"},
	}
	for _, u := range units {
		if d < u.size || u.size < round {
			continue
		}
		fmt.Fprintf(&sb, "%d%s", d/u.size, u.name)
		d %= u.size
	}

	return sb.String()
}
