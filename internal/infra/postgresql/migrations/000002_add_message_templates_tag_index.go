package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func addMessageTemplatesTagIndex() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_add_message_templates_tag_index",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_message_templates_tag ON message_templates (tag)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP INDEX IF EXISTS idx_message_templates_tag`).Error
		},
	}
}
