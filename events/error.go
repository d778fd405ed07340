package events

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// Error is a run failure with the context it happened in.
type Error struct {
	RunID     uuid.UUID
	TurnID    uuid.UUID
	Sender    string
	Err       error
	Timestamp strfmt.DateTime
}

func (e Error) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	if e.Sender == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Sender, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) MarshalJSON() ([]byte, error) {
	data := []byte(`{"type":"error"}`)
	var err error
	for _, kv := range []struct {
		key   string
		value string
	}{
		{"run_id", e.RunID.String()},
		{"turn_id", e.TurnID.String()},
		{"sender", e.Sender},
		{"error", e.Error()},
		{"timestamp", e.Timestamp.String()},
	} {
		if data, err = sjson.SetBytes(data, kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	return data, nil
}
