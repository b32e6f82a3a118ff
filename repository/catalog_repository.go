package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yotereparo-backend/models"
	"yotereparo-backend/services"
)

var _ services.CatalogStore = (*CatalogRepository)(nil)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ServiceTypeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceType{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count service type %q: %w", code, err)
	}
	return count > 0, nil
}

func (r *CatalogRepository) MissingPaymentMethods(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	var found []string
	err := r.db.WithContext(ctx).Model(&models.PaymentMethod{}).Where("code IN ?", codes).Pluck("code", &found).Error
	if err != nil {
		return nil, fmt.Errorf("find payment methods: %w", err)
	}

	known := make(map[string]bool, len(found))
	for _, code := range found {
		known[code] = true
	}
	var missing []string
	for _, code := range codes {
		if !known[code] {
			missing = append(missing, code)
		}
	}
	return missing, nil
}

func (r *CatalogRepository) ListServiceTypes(ctx context.Context) ([]models.ServiceType, error) {
	var types []models.ServiceType
	if err := r.db.WithContext(ctx).Order("code").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("list service types: %w", err)
	}
	return types, nil
}

func (r *CatalogRepository) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := r.db.WithContext(ctx).Order("code").Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

// Seed inserts the default catalogue, leaving existing codes untouched.
func (r *CatalogRepository) Seed(ctx context.Context) error {
	types := append([]models.ServiceType(nil), models.DefaultServiceTypes...)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&types).Error; err != nil {
		return fmt.Errorf("seed service types: %w", err)
	}
	methods := append([]models.PaymentMethod(nil), models.DefaultPaymentMethods...)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&methods).Error; err != nil {
		return fmt.Errorf("seed payment methods: %w", err)
	}
	return nil
}
