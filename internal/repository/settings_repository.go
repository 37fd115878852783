package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
)

type SettingsRepository interface {
	// ByUserID 不存在时返回 (nil, nil)
	ByUserID(ctx context.Context, userID string) (*model.Settings, error)
	Create(ctx context.Context, s *model.Settings) error
	Save(ctx context.Context, s *model.Settings) error
	Delete(ctx context.Context, userID string) (bool, error)
}

type settingsRepository struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) SettingsRepository { return &settingsRepository{db: db} }

func (r *settingsRepository) ByUserID(ctx context.Context, userID string) (*model.Settings, error) {
	var s model.Settings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) Create(ctx context.Context, s *model.Settings) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *settingsRepository) Save(ctx context.Context, s *model.Settings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *settingsRepository) Delete(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Settings{})
	return res.RowsAffected > 0, res.Error
}
