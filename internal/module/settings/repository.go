package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSettingNotFound is returned when no value exists for a key.
var ErrSettingNotFound = errors.New("setting not found")

// Repository defines the interface for settings data access.
type Repository interface {
	// GetByKey returns the channel-scoped value for key, or the global value
	// when the channel carries no override.
	GetByKey(ctx context.Context, key string, salesChannelID uuid.UUID) (*Setting, error)

	// Upsert writes a value, replacing an existing one with the same key and
	// channel scope.
	Upsert(ctx context.Context, setting *Setting) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByKey(ctx context.Context, key string, salesChannelID uuid.UUID) (*Setting, error) {
	var ent SettingEntity

	if salesChannelID != uuid.Nil {
		err := r.db.WithContext(ctx).
			Where("key = ? AND sales_channel_id = ?", key, salesChannelID).
			First(&ent).Error
		if err == nil {
			return ent.ToDomain(), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get setting: %w", err)
		}
	}

	err := r.db.WithContext(ctx).
		Where("key = ? AND sales_channel_id IS NULL", key).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) Upsert(ctx context.Context, setting *Setting) error {
	if setting.ID == uuid.Nil {
		setting.ID = uuid.New()
	}
	ent := FromDomain(setting)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}, {Name: "sales_channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(ent).Error
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
