package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

// parseTimerDuration accepts "MM", "MM:SS" or a Go duration such as "25m30s".
func parseTimerDuration(s string) (store.TimerDuration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return store.TimerDuration{}, fmt.Errorf("empty duration")
	}

	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.ParseUint(mins, 10, 32)
		if err != nil {
			return store.TimerDuration{}, fmt.Errorf("invalid minutes in %q", s)
		}
		sec, err := strconv.ParseUint(secs, 10, 32)
		if err != nil {
			return store.TimerDuration{}, fmt.Errorf("invalid seconds in %q", s)
		}
		return store.TimerDuration{Minutes: uint32(m), Seconds: uint32(sec)}, nil
	}

	if m, err := strconv.ParseUint(s, 10, 32); err == nil {
		return store.TimerDuration{Minutes: uint32(m)}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return store.TimerDuration{}, fmt.Errorf("invalid duration %q: use MM, MM:SS or e.g. 25m", s)
	}
	return store.DurationFromSeconds(int64(d / time.Second)), nil
}

// parseTimeArg resolves a --since/--until value to unix seconds. It takes
// unix seconds, RFC3339, a YYYY-MM-DD date (UTC midnight) or an age such as
// "7d" or "36h" counted back from now.
func parseTimeArg(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.Unix(), nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err == nil && n >= 0 {
			return now.AddDate(0, 0, -n).Unix(), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now.Add(-d).Unix(), nil
	}
	return 0, fmt.Errorf("invalid time %q: use unix seconds, RFC3339, YYYY-MM-DD or an age like 7d", s)
}
