package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ScheduleConfig struct {
	ID         int64
	Scope      Scope
	Frequency  time.Duration
	StartTime  string
	FullImport bool
	Active     bool
	LastRun    *time.Time
	NextRun    *time.Time
}

func (s ScheduleConfig) Validate() error {
	if _, err := ParseScope(string(s.Scope)); err != nil {
		return err
	}
	if s.Frequency < time.Minute {
		return ErrInvalidFrequency
	}
	if s.StartTime != "" {
		if _, _, err := parseStartTime(s.StartTime); err != nil {
			return err
		}
	}
	return nil
}

// NextAfter computes the next run strictly after now. Daily and slower
// cadences are anchored to the configured time of day; faster ones simply
// add the frequency.
func (s ScheduleConfig) NextAfter(now time.Time) time.Time {
	if s.Frequency < 24*time.Hour || s.StartTime == "" {
		return now.Add(s.Frequency)
	}

	hour, minute, err := parseStartTime(s.StartTime)
	if err != nil {
		return now.Add(s.Frequency)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	for !next.After(now) {
		next = next.Add(s.Frequency)
	}
	return next
}

func parseStartTime(raw string) (int, int, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidStartTime, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidStartTime, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidStartTime, raw)
	}
	return hour, minute, nil
}
