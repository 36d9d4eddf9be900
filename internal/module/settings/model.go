package settings

import (
	"time"

	"github.com/google/uuid"
)

// Setting is a single configuration value, either global or scoped to one
// sales channel. A channel-scoped value shadows the global one for that
// channel.
type Setting struct {
	ID             uuid.UUID
	Key            string
	Value          string
	SalesChannelID *uuid.UUID // Nil for global values
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SettingEntity is the gorm persistence model for settings.
type SettingEntity struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Key            string     `gorm:"column:key;size:255;not null;index:idx_settings_key_channel,unique"`
	SalesChannelID *uuid.UUID `gorm:"type:uuid;index:idx_settings_key_channel,unique"`
	Value          string     `gorm:"type:text;not null"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

// TableName specifies the table name.
func (SettingEntity) TableName() string {
	return "system_settings"
}

// ToDomain converts the entity to the domain model.
func (e *SettingEntity) ToDomain() *Setting {
	return &Setting{
		ID:             e.ID,
		Key:            e.Key,
		Value:          e.Value,
		SalesChannelID: e.SalesChannelID,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// FromDomain converts the domain model to the entity.
func FromDomain(s *Setting) *SettingEntity {
	return &SettingEntity{
		ID:             s.ID,
		Key:            s.Key,
		Value:          s.Value,
		SalesChannelID: s.SalesChannelID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
