package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"yotereparo-backend/models"
)

// ServiceFilter narrows ListServices. Zero values mean "any".
type ServiceFilter struct {
	OwnerID       *uuid.UUID
	ServiceType   string
	PaymentMethod string
	Status        models.ServiceStatus
}

// ServiceStore persists service records. Absent records are reported through
// the found result, not as an error.
type ServiceStore interface {
	OwnerLister
	Load(ctx context.Context, id uint) (*models.ServiceRecord, bool, error)
	// LoadForUpdate locks the row until the surrounding transaction ends.
	LoadForUpdate(ctx context.Context, id uint) (*models.ServiceRecord, bool, error)
	// LockOwner locks the owner's account row until the surrounding
	// transaction ends, serializing creates of one provider.
	LockOwner(ctx context.Context, ownerID uuid.UUID) error
	// Save inserts records with a zero ID and fully updates the others.
	Save(ctx context.Context, rec *models.ServiceRecord) error
	Delete(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter ServiceFilter) ([]models.ServiceRecord, error)
	// Transaction runs fn in one transaction, committing only when fn
	// returns nil.
	Transaction(ctx context.Context, fn func(tx ServiceStore) error) error
}

type AccountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, bool, error)
	// FindByIdentifier looks an account up by username or email.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, bool, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// UpdateProfile reports false when no account has the id.
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (bool, error)
}

type CatalogStore interface {
	ServiceTypeExists(ctx context.Context, code string) (bool, error)
	// MissingPaymentMethods returns the codes that are not in the catalogue.
	MissingPaymentMethods(ctx context.Context, codes []string) ([]string, error)
	ListServiceTypes(ctx context.Context) ([]models.ServiceType, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}
