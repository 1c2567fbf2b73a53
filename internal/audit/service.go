package audit

import (
	"encoding/json"
	"fmt"

	"flavorshop-backend/internal/models"

	"gorm.io/gorm"
)

// Actor identifies who performed a mutation. Zero value means the system.
type Actor struct {
	UserID *uint
	Name   string
}

type LogOptions struct {
	Actor       Actor
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog records an audit row using tx, so it commits or rolls back
// together with the change it describes.
func WriteLog(tx *gorm.DB, opts LogOptions) error {
	// jsonb rejects empty strings
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	name := opts.Actor.Name
	if name == "" && opts.Actor.UserID == nil {
		name = "system"
	}

	entry := models.AuditLog{
		UserID:      opts.Actor.UserID,
		UserName:    name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: truncate(opts.Description, 255),
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
