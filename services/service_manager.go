package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yotereparo-backend/errs"
	"yotereparo-backend/models"
)

const serviceResource = "service"

// ServiceManager runs the service record operations. Each call is one unit of
// work against one record, executed inside a store transaction.
type ServiceManager struct {
	store    ServiceStore
	accounts AccountStore
	catalog  CatalogStore

	validator *SubmissionValidator
	merger    *Merger
	guard     OwnershipGuard
	lifecycle Lifecycle
	oracle    ExistenceOracle

	now func() time.Time
	log zerolog.Logger
}

func NewServiceManager(store ServiceStore, accounts AccountStore, catalog CatalogStore, log zerolog.Logger) *ServiceManager {
	return &ServiceManager{
		store:     store,
		accounts:  accounts,
		catalog:   catalog,
		validator: NewSubmissionValidator(),
		merger:    NewMerger(),
		now:       time.Now,
		log:       log.With().Str("component", "service_manager").Logger(),
	}
}

// WithClock replaces the clock used to stamp creation times.
func (m *ServiceManager) WithClock(now func() time.Time) *ServiceManager {
	m.now = now
	return m
}

// CreateService validates sub and persists it as a new ACTIVE record owned by
// the actor.
func (m *ServiceManager) CreateService(ctx context.Context, actorID uuid.UUID, sub *ServiceSubmission) (*models.ServiceRecord, error) {
	log := m.log.With().Str("op", "create").Stringer("actor", actorID).Logger()
	log.Info().Msg("Processing service creation")

	actor, err := m.actor(ctx, actorID)
	if err != nil {
		return nil, m.fail(log, "load actor", err)
	}
	if !actor.IsProvider() {
		return nil, m.fail(log, "authorize", errs.NewUnauthorized("account is not registered as a provider"))
	}

	normalized, err := m.validate(ctx, sub)
	if err != nil {
		return nil, m.fail(log, "validate", err)
	}

	candidate := normalized.toRecord()
	if err := m.guard.AuthorizeCreate(actor, candidate); err != nil {
		return nil, m.fail(log, "authorize", err)
	}

	err = m.store.Transaction(ctx, func(tx ServiceStore) error {
		if err := tx.LockOwner(ctx, candidate.OwnerID); err != nil {
			return err
		}
		exists, err := m.oracle.Exists(ctx, tx, candidate)
		if err != nil {
			return err
		}
		if exists {
			return errs.NewConflict(serviceResource, fmt.Sprintf("provider already offers %q", candidate.Description))
		}
		m.lifecycle.Initialize(candidate, m.now())
		return tx.Save(ctx, candidate)
	})
	if err != nil {
		return nil, m.fail(log, "create service", err)
	}

	log.Info().Uint("service", candidate.ID).Msg("Committed service creation")
	return candidate, nil
}

// UpdateService merges sub onto the stored record. Every field of sub is
// applied; optional fields left empty are cleared.
func (m *ServiceManager) UpdateService(ctx context.Context, actorID uuid.UUID, id uint, sub *ServiceSubmission) (*models.ServiceRecord, ChangeSet, error) {
	log := m.log.With().Str("op", "update").Stringer("actor", actorID).Uint("service", id).Logger()
	log.Info().Msg("Processing service update")

	actor, err := m.actor(ctx, actorID)
	if err != nil {
		return nil, nil, m.fail(log, "load actor", err)
	}
	if sub == nil {
		sub = &ServiceSubmission{}
	}

	var (
		updated *models.ServiceRecord
		changes ChangeSet
	)
	err = m.store.Transaction(ctx, func(tx ServiceStore) error {
		persisted, found, err := tx.LoadForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NewNotFound(serviceResource, id)
		}
		if err := m.guard.AuthorizeMutation(actor, persisted); err != nil {
			return err
		}
		// An owner reassignment is rejected whatever else the submission holds.
		// A missing owner is left to the validator.
		if strings.TrimSpace(sub.Owner) != "" {
			if err := m.guard.AuthorizeUpdate(persisted, &models.ServiceRecord{OwnerID: sub.ownerID()}); err != nil {
				return err
			}
		}

		normalized, err := m.validate(ctx, sub)
		if err != nil {
			return err
		}
		submitted := normalized.toRecord()
		if err := m.guard.AuthorizeUpdate(persisted, submitted); err != nil {
			return err
		}

		changes, err = m.merger.Merge(persisted, submitted)
		if err != nil {
			return err
		}
		updated = persisted
		if changes.Empty() {
			return nil
		}
		return tx.Save(ctx, persisted)
	})
	if err != nil {
		return nil, nil, m.fail(log, "update service", err)
	}

	if changes.Empty() {
		log.Info().Msg("Service unchanged")
	} else {
		log.Info().Strs("changes", changes).Msg("Committed service update")
	}
	return updated, changes, nil
}

// EnableServiceByID activates a record. Enabling an active record is a no-op
// and returns an empty ChangeSet.
func (m *ServiceManager) EnableServiceByID(ctx context.Context, actorID uuid.UUID, id uint) (ChangeSet, error) {
	return m.transition(ctx, "enable", actorID, id, m.lifecycle.Enable)
}

// DisableServiceByID deactivates a record. Disabling an inactive record is a
// no-op and returns an empty ChangeSet.
func (m *ServiceManager) DisableServiceByID(ctx context.Context, actorID uuid.UUID, id uint) (ChangeSet, error) {
	return m.transition(ctx, "disable", actorID, id, m.lifecycle.Disable)
}

func (m *ServiceManager) transition(ctx context.Context, op string, actorID uuid.UUID, id uint, apply func(*models.ServiceRecord) bool) (ChangeSet, error) {
	log := m.log.With().Str("op", op).Stringer("actor", actorID).Uint("service", id).Logger()

	actor, err := m.actor(ctx, actorID)
	if err != nil {
		return nil, m.fail(log, "load actor", err)
	}

	var changes ChangeSet
	err = m.store.Transaction(ctx, func(tx ServiceStore) error {
		rec, found, err := tx.LoadForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NewNotFound(serviceResource, id)
		}
		if err := m.guard.AuthorizeMutation(actor, rec); err != nil {
			return err
		}
		if !apply(rec) {
			return nil
		}
		changes = ChangeSet{"estado"}
		return tx.Save(ctx, rec)
	})
	if err != nil {
		return nil, m.fail(log, op+" service", err)
	}

	if !changes.Empty() {
		log.Info().Msg("Service status changed")
	}
	return changes, nil
}

// DeleteServiceByID removes a record from storage.
func (m *ServiceManager) DeleteServiceByID(ctx context.Context, actorID uuid.UUID, id uint) error {
	log := m.log.With().Str("op", "delete").Stringer("actor", actorID).Uint("service", id).Logger()

	actor, err := m.actor(ctx, actorID)
	if err != nil {
		return m.fail(log, "load actor", err)
	}

	err = m.store.Transaction(ctx, func(tx ServiceStore) error {
		rec, found, err := tx.LoadForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return errs.NewNotFound(serviceResource, id)
		}
		if err := m.guard.AuthorizeMutation(actor, rec); err != nil {
			return err
		}
		deleted, err := tx.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return errs.NewNotFound(serviceResource, id)
		}
		return nil
	})
	if err != nil {
		return m.fail(log, "delete service", err)
	}

	log.Info().Msg("Committed service deletion")
	return nil
}

func (m *ServiceManager) GetServiceByID(ctx context.Context, id uint) (*models.ServiceRecord, error) {
	rec, found, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, m.fail(m.log, "load service", err)
	}
	if !found {
		return nil, errs.NewNotFound(serviceResource, id)
	}
	return rec, nil
}

func (m *ServiceManager) ListServices(ctx context.Context, filter ServiceFilter) ([]models.ServiceRecord, error) {
	m.log.Debug().Interface("filter", filter).Msg("Fetching services")
	recs, err := m.store.List(ctx, filter)
	if err != nil {
		return nil, m.fail(m.log, "list services", err)
	}
	return recs, nil
}

func (m *ServiceManager) ListServiceTypes(ctx context.Context) ([]models.ServiceType, error) {
	types, err := m.catalog.ListServiceTypes(ctx)
	if err != nil {
		return nil, m.fail(m.log, "list service types", err)
	}
	return types, nil
}

func (m *ServiceManager) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	methods, err := m.catalog.ListPaymentMethods(ctx)
	if err != nil {
		return nil, m.fail(m.log, "list payment methods", err)
	}
	return methods, nil
}

// validate runs the field checks and then resolves catalogue references.
func (m *ServiceManager) validate(ctx context.Context, sub *ServiceSubmission) (*ServiceSubmission, error) {
	if violations := m.validator.Validate(sub); len(violations) > 0 {
		return nil, errs.NewValidationFailure(violations)
	}
	normalized := sub.normalized()

	var violations []errs.Violation
	ok, err := m.catalog.ServiceTypeExists(ctx, normalized.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("check service type %q: %w", normalized.ServiceType, err)
	}
	if !ok {
		violations = append(violations, errs.Violation{Field: "tipoServicio", Code: errs.UnknownReference})
	}
	missing, err := m.catalog.MissingPaymentMethods(ctx, normalized.PaymentMethods)
	if err != nil {
		return nil, fmt.Errorf("check payment methods: %w", err)
	}
	if len(missing) > 0 {
		violations = append(violations, errs.Violation{Field: "mediosDePago", Code: errs.UnknownReference})
	}
	if err := errs.NewValidationFailure(violations); err != nil {
		return nil, err
	}
	return normalized, nil
}

func (m *ServiceManager) actor(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, found, err := m.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", id, err)
	}
	if !found {
		return nil, errs.NewUnauthorized("unknown account")
	}
	return user, nil
}

// fail logs err and converts anything that is not an expected failure into
// an opaque SystemFailure.
func (m *ServiceManager) fail(log zerolog.Logger, op string, err error) error {
	err = errs.Internal(op, err)
	var sys *errs.SystemFailure
	if errors.As(err, &sys) {
		log.Error().Err(sys.Cause).Str("step", op).Msg("Request failed - Error processing request")
		return err
	}
	log.Info().Err(err).Str("step", op).Msg("Request failed")
	return err
}
