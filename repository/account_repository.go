package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yotereparo-backend/models"
	"yotereparo-backend/services"
)

var _ services.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, bool, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIdentifier matches the username exactly and the email case-insensitively.
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, bool, error) {
	return r.first(r.db.WithContext(ctx).Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)))
}

func (r *AccountRepository) first(query *gorm.DB) (*models.User, bool, error) {
	var user models.User
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find account: %w", err)
	}
	return &user, true, nil
}

func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return count > 0, nil
}

func (r *AccountRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
	if err != nil {
		return fmt.Errorf("update last login of %s: %w", id, err)
	}
	return nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "phone": phone})
	if res.Error != nil {
		return false, fmt.Errorf("update profile of %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
