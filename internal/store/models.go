package store

import "fmt"

// TimerDuration is a minutes/seconds pair. Seconds may exceed 59; the data
// layer stores whatever the caller hands it.
type TimerDuration struct {
	Minutes uint32 `json:"minutes" yaml:"minutes"`
	Seconds uint32 `json:"seconds" yaml:"seconds"`
}

// TotalSeconds returns the duration flattened to seconds.
func (d TimerDuration) TotalSeconds() int64 {
	return int64(d.Minutes)*60 + int64(d.Seconds)
}

// Add returns d+o with seconds carried into minutes.
func (d TimerDuration) Add(o TimerDuration) TimerDuration {
	return DurationFromSeconds(d.TotalSeconds() + o.TotalSeconds())
}

func (d TimerDuration) String() string {
	return fmt.Sprintf("%02d:%02d", d.Minutes, d.Seconds)
}

// DurationFromSeconds builds a normalised TimerDuration. Negative input
// yields the zero duration.
func DurationFromSeconds(secs int64) TimerDuration {
	if secs < 0 {
		return TimerDuration{}
	}
	return TimerDuration{Minutes: uint32(secs / 60), Seconds: uint32(secs % 60)}
}

type TimerSettings struct {
	Pomodoro   TimerDuration `json:"pomodoro_time" yaml:"pomodoro_time"`
	ShortBreak TimerDuration `json:"short_break_time" yaml:"short_break_time"`
	LongBreak  TimerDuration `json:"long_break_time" yaml:"long_break_time"`
}

// DefaultSettings are the values seeded into a fresh store.
func DefaultSettings() TimerSettings {
	return TimerSettings{
		Pomodoro:   TimerDuration{Minutes: 25},
		ShortBreak: TimerDuration{Minutes: 5},
		LongBreak:  TimerDuration{Minutes: 15},
	}
}

type Task struct {
	ID           string        `json:"id" yaml:"id"`
	Description  string        `json:"task" yaml:"task"`
	ExpectedTime uint32        `json:"expected_time" yaml:"expected_time"` // minutes
	WorkedTime   TimerDuration `json:"worked_time" yaml:"worked_time"`
}

// AuditEntry is one completed work session. WorkedTime is the session delta,
// not the task's running total.
type AuditEntry struct {
	ID         int64         `json:"id" yaml:"id"`
	TaskID     string        `json:"task_id" yaml:"task_id"`
	WorkedTime TimerDuration `json:"worked_time" yaml:"worked_time"`
	Timestamp  int64         `json:"timestamp" yaml:"timestamp"` // unix seconds, UTC
}

// DailyTotal aggregates audit deltas for one UTC day.
type DailyTotal struct {
	Date     string `json:"date" yaml:"date"` // YYYY-MM-DD
	Seconds  int64  `json:"seconds" yaml:"seconds"`
	Sessions int    `json:"sessions" yaml:"sessions"`
}

// TaskTotal aggregates audit deltas for one task.
type TaskTotal struct {
	TaskID      string `json:"task_id" yaml:"task_id"`
	Description string `json:"task" yaml:"task"`
	Seconds     int64  `json:"seconds" yaml:"seconds"`
	Sessions    int    `json:"sessions" yaml:"sessions"`
}
