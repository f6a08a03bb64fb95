package repository

import (
	"time"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

// TemplateModel is the persistence model for the message_templates table.
// Seq records insertion order; the newest template has the highest value.
type TemplateModel struct {
	ID        string              `gorm:"type:varchar(64);primaryKey"`
	Seq       int64               `gorm:"autoIncrement;not null;uniqueIndex"`
	Name      string              `gorm:"type:varchar(255);not null"`
	Text      string              `gorm:"type:text;not null"`
	Tag       domain.MessagingTag `gorm:"type:varchar(32);not null"`
	CTALabel  *string             `gorm:"column:cta_label;type:varchar(255)"`
	CTAURL    *string             `gorm:"column:cta_url;type:text"`
	CreatedAt time.Time
}

func (TemplateModel) TableName() string {
	return "message_templates"
}

// sendLogRecord is the JSON shape of a send log entry stored in Redis.
type sendLogRecord struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Message     string    `json:"message"`
	Tag         string    `json:"tag,omitempty"`
	ResultID    string    `json:"resultId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func templateModelFromDomain(t *domain.Template) *TemplateModel {
	if t == nil {
		return nil
	}

	return &TemplateModel{
		ID:        t.ID,
		Name:      t.Name,
		Text:      t.Text,
		Tag:       t.Tag,
		CTALabel:  t.CTALabel,
		CTAURL:    t.CTAURL,
		CreatedAt: t.CreatedAt,
	}
}

func templateModelToDomain(m *TemplateModel) *domain.Template {
	if m == nil {
		return nil
	}

	return &domain.Template{
		ID:        m.ID,
		Name:      m.Name,
		Text:      m.Text,
		Tag:       m.Tag,
		CTALabel:  m.CTALabel,
		CTAURL:    m.CTAURL,
		CreatedAt: m.CreatedAt,
	}
}

func sendLogRecordFromDomain(e domain.SendLogEntry) sendLogRecord {
	return sendLogRecord{
		ID:          e.ID,
		RecipientID: e.RecipientID,
		Message:     e.Message,
		Tag:         e.Tag.String(),
		ResultID:    e.ResultID,
		Timestamp:   e.Timestamp,
	}
}

func sendLogRecordToDomain(r sendLogRecord) domain.SendLogEntry {
	return domain.SendLogEntry{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		Message:     r.Message,
		Tag:         domain.MessagingTag(r.Tag),
		ResultID:    r.ResultID,
		Timestamp:   r.Timestamp,
	}
}
