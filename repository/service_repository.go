// Package repository holds the gorm implementations of the service stores.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yotereparo-backend/models"
	"yotereparo-backend/services"
)

var (
	_ services.ServiceStore = (*ServiceRepository)(nil)
	_ services.AverageStore = (*ServiceRepository)(nil)
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Load(ctx context.Context, id uint) (*models.ServiceRecord, bool, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// LoadForUpdate takes a row lock that is held until the enclosing
// transaction ends. Outside a transaction the lock is released immediately.
func (r *ServiceRepository) LoadForUpdate(ctx context.Context, id uint) (*models.ServiceRecord, bool, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ServiceRepository) first(db *gorm.DB, id uint) (*models.ServiceRecord, bool, error) {
	var rec models.ServiceRecord
	err := db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load service %d: %w", id, err)
	}
	return &rec, true, nil
}

func (r *ServiceRepository) LockOwner(ctx context.Context, ownerID uuid.UUID) error {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ownerID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("lock owner %s: %w", ownerID, err)
	}
	return nil
}

func (r *ServiceRepository) Save(ctx context.Context, rec *models.ServiceRecord) error {
	db := r.db.WithContext(ctx)
	var err error
	if rec.ID == 0 {
		err = db.Create(rec).Error
	} else {
		err = db.Save(rec).Error
	}
	if err != nil {
		return fmt.Errorf("save service %d: %w", rec.ID, err)
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.ServiceRecord{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete service %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ServiceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ServiceRecord, error) {
	return r.List(ctx, services.ServiceFilter{OwnerID: &ownerID})
}

func (r *ServiceRepository) List(ctx context.Context, filter services.ServiceFilter) ([]models.ServiceRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceRecord{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.PaymentMethod != "" {
		contains, err := json.Marshal([]string{filter.PaymentMethod})
		if err != nil {
			return nil, fmt.Errorf("encode payment method filter: %w", err)
		}
		query = query.Where("payment_methods @> ?::jsonb", string(contains))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var recs []models.ServiceRecord
	if err := query.Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return recs, nil
}

const staleAverage = "price_average IS NULL OR price_average <> (price_max + price_min) / 2"

// RepairAverages recomputes stale averages in one statement that writes only
// the average column.
func (r *ServiceRepository) RepairAverages(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ServiceRecord{}).
		Where(staleAverage).
		Update("price_average", gorm.Expr("(price_max + price_min) / 2"))
	if res.Error != nil {
		return 0, fmt.Errorf("repair averages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ServiceRepository) Transaction(ctx context.Context, fn func(tx services.ServiceStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ServiceRepository{db: tx})
	})
}
