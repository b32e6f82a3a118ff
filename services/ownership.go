package services

import (
	"yotereparo-backend/errs"
	"yotereparo-backend/models"
)

// OwnershipGuard decides whether an actor may create or mutate a service
// record. The owner-reference check duplicates the one in Merger on purpose:
// both layers reject a reassignment.
type OwnershipGuard struct{}

// AuthorizeCreate requires an active provider creating a record for itself.
func (OwnershipGuard) AuthorizeCreate(actor *models.User, rec *models.ServiceRecord) error {
	if !actor.IsProvider() {
		return errs.NewUnauthorized("account is not registered as a provider")
	}
	if rec.OwnerID != actor.ID {
		return errs.NewUnauthorized("services can only be created for the requesting provider")
	}
	return nil
}

// AuthorizeMutation requires the actor to own the existing record.
func (OwnershipGuard) AuthorizeMutation(actor *models.User, existing *models.ServiceRecord) error {
	if actor == nil || !actor.IsActive || actor.ID != existing.OwnerID {
		return errs.NewUnauthorized("service belongs to another provider")
	}
	return nil
}

// AuthorizeUpdate rejects a submission naming a different owner.
func (OwnershipGuard) AuthorizeUpdate(existing, submitted *models.ServiceRecord) error {
	if existing.OwnerID != submitted.OwnerID {
		return errs.NewIllegalMutation("usuarioPrestador")
	}
	return nil
}
