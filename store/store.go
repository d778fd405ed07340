// Package store records benchmark results: one row per attempt and one per
// patch selection.
package store

import (
	"context"
	"time"

	"github.com/go-openapi/strfmt"
)

// Attempt is the outcome of one agent run in one workspace.
type Attempt struct {
	RunID       string          `json:"run_id"`
	InstanceID  string          `json:"instance_id"`
	WorkspaceID string          `json:"workspace_id"`
	Status      string          `json:"status"`
	Patch       string          `json:"patch"`
	Error       string          `json:"error,omitempty"`
	Duration    time.Duration   `json:"-"`
	CreatedAt   strfmt.DateTime `json:"created_at"`
}

// Selection is the patch chosen for an instance.
type Selection struct {
	RunID      string `json:"run_id"`
	InstanceID string `json:"instance_id"`
	Patch      string `json:"patch"`
	// ChosenIndex is the 1-based candidate number, 0 when there was nothing to choose from.
	ChosenIndex int             `json:"chosen_index"`
	Fallback    bool            `json:"fallback"`
	CreatedAt   strfmt.DateTime `json:"created_at"`
}

type Store interface {
	SaveAttempt(context.Context, Attempt) error
	SaveSelection(context.Context, Selection) error
	Close() error
}

// Discard drops every record.
func Discard() Store {
	return discard{}
}

type discard struct{}

func (discard) SaveAttempt(context.Context, Attempt) error     { return nil }
func (discard) SaveSelection(context.Context, Selection) error { return nil }
func (discard) Close() error                                   { return nil }

func now(t strfmt.DateTime) strfmt.DateTime {
	if time.Time(t).IsZero() {
		return strfmt.DateTime(time.Now().UTC())
	}
	return t
}
