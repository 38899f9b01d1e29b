package reference

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudkhata/cloudkhata/internal/reference/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) ActiveByCategory(ctx context.Context, serviceCategory string) (*domain.HSNCode, error) {
	category := strings.ToLower(strings.TrimSpace(serviceCategory))
	if category == "" {
		return nil, nil
	}

	var code domain.HSNCode
	err := r.db.WithContext(ctx).
		Where("LOWER(service_category) = ? AND is_active = ?", category, true).
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *repository) List(ctx context.Context) ([]domain.HSNCode, error) {
	var codes []domain.HSNCode
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("service_category").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
