package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTask(t *testing.T) {
	got, err := DecodeTask([]byte(`{"id":"t1","task":"write draft","expected_time":30,"worked_time":{"minutes":1,"seconds":5}}`))
	require.NoError(t, err)
	require.Equal(t, Task{
		ID:           "t1",
		Description:  "write draft",
		ExpectedTime: 30,
		WorkedTime:   TimerDuration{Minutes: 1, Seconds: 5},
	}, got)
}

func TestDecodeTaskWireShape(t *testing.T) {
	data, err := json.Marshal(Task{ID: "x", Description: "d", ExpectedTime: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","task":"d","expected_time":2,"worked_time":{"minutes":0,"seconds":0}}`, string(data))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"id":`},
		{"unknown field", `{"id":"a","task":"b","colour":"red"}`},
		{"wrong type", `{"id":"a","expected_time":"ten"}`},
		{"negative minutes", `{"id":"a","worked_time":{"minutes":-1,"seconds":0}}`},
		{"trailing data", `{"id":"a"} {"id":"b"}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTask([]byte(tt.input))
			require.ErrorIs(t, err, ErrSerialization)
		})
	}
}

func TestDecodeSettings(t *testing.T) {
	got, err := DecodeSettings([]byte(`{
		"pomodoro_time": {"minutes": 50, "seconds": 0},
		"short_break_time": {"minutes": 10, "seconds": 0},
		"long_break_time": {"minutes": 30, "seconds": 15}
	}`))
	require.NoError(t, err)
	require.Equal(t, TimerDuration{Minutes: 30, Seconds: 15}, got.LongBreak)

	_, err = DecodeSettings([]byte(`{"pomodoro":{}}`))
	require.ErrorIs(t, err, ErrSerialization)
}

func TestTimerDuration(t *testing.T) {
	d := TimerDuration{Minutes: 0, Seconds: 50}.Add(TimerDuration{Minutes: 24, Seconds: 20})
	assert.Equal(t, TimerDuration{Minutes: 25, Seconds: 10}, d)
	assert.Equal(t, int64(1510), d.TotalSeconds())
	assert.Equal(t, "25:10", d.String())

	// Unnormalised input is kept by the data layer and only folded on Add.
	raw := TimerDuration{Minutes: 1, Seconds: 75}
	assert.Equal(t, int64(135), raw.TotalSeconds())
	assert.Equal(t, TimerDuration{Minutes: 2, Seconds: 15}, raw.Add(TimerDuration{}))

	assert.Equal(t, TimerDuration{}, DurationFromSeconds(-5))
}

func TestErrorKinds(t *testing.T) {
	require.NoError(t, classify("noop", nil))

	err := wrapKind(ErrNotFound, "get task", assert.AnError)
	require.True(t, IsNotFound(err))
	require.ErrorIs(t, err, assert.AnError)
	require.NotErrorIs(t, err, ErrSchema)
}
