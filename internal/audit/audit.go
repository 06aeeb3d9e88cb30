// Package audit records who changed which record. With the local store the
// trail lands in the database; in sheet mode it only goes to the log.
package audit

import (
	"context"
	"encoding/json"

	"pense-backend/internal/logger"
	"pense-backend/internal/models"
)

type Entry struct {
	Username    string
	EntityType  string // "bon" or "frais"
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// marshalSnapshot renders a snapshot as JSON, "null" when absent (the jsonb
// column rejects empty strings).
func marshalSnapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// LogRecorder writes audit entries to the application log only. Used with
// the sheet backend, where there is no database to keep a trail in.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, e Entry) error {
	logger.L().Infow("audit",
		"username", e.Username,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
		"action", string(e.Action),
		"description", e.Description,
	)
	return nil
}
