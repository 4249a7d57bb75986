package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DecodeTask parses a task from its JSON wire shape. Unknown fields and
// trailing data are rejected with ErrSerialization.
func DecodeTask(data []byte) (Task, error) {
	var t Task
	if err := decodeStrict(data, &t); err != nil {
		return Task{}, wrapKind(ErrSerialization, "decode task", err)
	}
	return t, nil
}

// DecodeSettings parses timer settings from their JSON wire shape.
func DecodeSettings(data []byte) (TimerSettings, error) {
	var ts TimerSettings
	if err := decodeStrict(data, &ts); err != nil {
		return TimerSettings{}, wrapKind(ErrSerialization, "decode settings", err)
	}
	return ts, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
