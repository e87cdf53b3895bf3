// Package scheduler computes reminder schedules for schedulable resources.
//
// Two kinds of schedules are supported:
//
//   - simple reminders: each offset is a number of minutes before the base
//     time ("30 minutes before the lecture");
//   - spaced review: each offset is a number of days after the base time
//     ("review 1, 3, 7 days after the session"), normalized to a preferred
//     hour of day and spread with jitter so notifications do not all fire
//     at the exact same minute.
//
// Computation is pure: no clock reads beyond the injected Now, no sources
// of randomness beyond the seeded jitter. Callers persist the output.
package scheduler

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// Mode selects how offsets are interpreted.
type Mode int

const (
	// MinutesBefore schedules each reminder offset minutes before base time.
	MinutesBefore Mode = iota
	// DaysAfter schedules each reminder offset days after base time
	// (spaced-repetition review schedules).
	DaysAfter
)

var (
	ErrInvalidBaseTime  = errors.New("invalid base time")
	ErrNegativeOffset   = errors.New("offset must be non-negative")
	ErrInvalidPreferred = errors.New("preferred hour must be 0..23")
)

// Options control schedule shape and reproducibility.
type Options struct {
	Mode Mode

	// MaxCount caps the number of scheduled offsets; offsets beyond it are
	// silently dropped in list order. Zero means no reminders at all.
	MaxCount int

	// JitterMinutes spreads each timestamp by a pseudo-random offset in
	// [-JitterMinutes, +JitterMinutes]. Zero disables jitter.
	JitterMinutes int

	// Deterministic makes the jitter a reproducible function of SeedID and
	// the offset index, so recomputing the schedule for the same inputs
	// yields the same timestamps. Required for idempotent re-scheduling
	// after an edit.
	Deterministic bool

	// SeedID keys the deterministic jitter, normally the resource id.
	SeedID string

	// PreferredHour normalizes the time of day for DaysAfter schedules.
	// Use -1 to keep the base time's hour.
	PreferredHour int

	// Now is the clock; nil means time.Now. Timestamps at or before Now
	// are dropped, never clamped.
	Now func() time.Time
}

// Reminder is one computed notification instant, tagged with the offset
// that produced it.
type Reminder struct {
	At     time.Time
	Offset float64
}

// ComputeReminderTimes returns the ordered reminder schedule for baseTime.
//
// The output holds at most opts.MaxCount entries, in offset list order, and
// never contains a timestamp at or before the current instant; such entries
// are dropped so the "N days/minutes" semantics of the remaining offsets
// stay intact. An empty result is valid.
func ComputeReminderTimes(baseTime time.Time, offsets []float64, opts Options) ([]Reminder, error) {
	if baseTime.IsZero() {
		return nil, ErrInvalidBaseTime
	}
	if opts.PreferredHour < -1 || opts.PreferredHour > 23 {
		return nil, ErrInvalidPreferred
	}
	for _, off := range offsets {
		if off < 0 {
			return nil, fmt.Errorf("%w: %v", ErrNegativeOffset, off)
		}
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	if opts.MaxCount < len(offsets) {
		offsets = offsets[:max(opts.MaxCount, 0)]
	}

	result := make([]Reminder, 0, len(offsets))
	current := now()

	for i, off := range offsets {
		var at time.Time
		switch opts.Mode {
		case MinutesBefore:
			at = baseTime.Add(-time.Duration(off * float64(time.Minute)))
		case DaysAfter:
			at = baseTime.Add(time.Duration(off * 24 * float64(time.Hour)))
			if opts.PreferredHour >= 0 {
				at = time.Date(at.Year(), at.Month(), at.Day(), opts.PreferredHour, 0, 0, 0, at.Location())
			}
		default:
			return nil, fmt.Errorf("unknown schedule mode %d", opts.Mode)
		}

		at = at.Add(jitter(opts, i))

		if !at.After(current) {
			continue
		}
		result = append(result, Reminder{At: at, Offset: off})
	}

	return result, nil
}

// jitter returns the pseudo-random spread for the i-th offset. When
// deterministic, the value is a pure function of (SeedID, i).
func jitter(opts Options, i int) time.Duration {
	if opts.JitterMinutes <= 0 {
		return 0
	}

	span := int64(2*opts.JitterMinutes + 1)

	var n int64
	if opts.Deterministic {
		h := fnv.New64a()
		_, _ = fmt.Fprintf(h, "%s:%d", opts.SeedID, i)
		r := rand.New(rand.NewSource(int64(h.Sum64())))
		n = r.Int63n(span)
	} else {
		n = rand.Int63n(span)
	}

	return time.Duration(n-int64(opts.JitterMinutes)) * time.Minute
}
