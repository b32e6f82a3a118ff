package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"yotereparo-backend/models"
)

// OwnerLister is the part of the store the existence oracle reads.
type OwnerLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ServiceRecord, error)
}

// ExistenceOracle detects duplicates among the services of one provider.
// Two providers may offer identical services; one provider may not offer the
// same service twice.
type ExistenceOracle struct{}

func (ExistenceOracle) Exists(ctx context.Context, store OwnerLister, candidate *models.ServiceRecord) (bool, error) {
	owned, err := store.ListByOwner(ctx, candidate.OwnerID)
	if err != nil {
		return false, fmt.Errorf("list services of owner %s: %w", candidate.OwnerID, err)
	}
	for i := range owned {
		if sameService(candidate, &owned[i]) {
			return true, nil
		}
	}
	return false, nil
}

// sameService compares business fields. Identity, creation time and status
// are only compared when the candidate carries them.
func sameService(candidate, existing *models.ServiceRecord) bool {
	if candidate.ID != 0 && candidate.ID != existing.ID {
		return false
	}
	if !candidate.CreatedAt.IsZero() && !candidate.CreatedAt.Equal(existing.CreatedAt) {
		return false
	}
	if candidate.Status != "" && candidate.Status != existing.Status {
		return false
	}
	return candidate.OwnerID == existing.OwnerID &&
		candidate.Description == existing.Description &&
		equalText(candidate.Availability, existing.Availability) &&
		candidate.PriceMax.Equal(existing.PriceMax) &&
		candidate.PriceMin.Equal(existing.PriceMin) &&
		candidate.ExpectedAverage().Equal(existing.ExpectedAverage()) &&
		equalNullDecimal(candidate.PriceSupplies, existing.PriceSupplies) &&
		equalNullDecimal(candidate.PriceExtras, existing.PriceExtras) &&
		candidate.EstimatedHours.Equal(existing.EstimatedHours) &&
		candidate.WorkerCount == existing.WorkerCount &&
		candidate.InvoiceIssued == existing.InvoiceIssued &&
		candidate.ServiceType == existing.ServiceType &&
		candidate.PaymentMethods.Equal(existing.PaymentMethods)
}
