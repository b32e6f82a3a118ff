package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yotereparo-backend/errs"
	"yotereparo-backend/models"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type managerFixture struct {
	manager  *ServiceManager
	store    *memoryStore
	accounts *memoryAccounts
	catalog  *memoryCatalog
	owner    *models.User
}

func newManagerFixture(recs ...*models.ServiceRecord) *managerFixture {
	owner := provider()
	f := &managerFixture{
		store:    newMemoryStore(recs...),
		accounts: newMemoryAccounts(owner),
		catalog:  newMemoryCatalog(),
		owner:    owner,
	}
	f.manager = NewServiceManager(f.store, f.accounts, f.catalog, zerolog.Nop()).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *managerFixture) addUser(u *models.User) *models.User {
	f.accounts.users[u.ID] = u
	return u
}

func violations(t *testing.T, err error) []errs.Violation {
	t.Helper()
	var vf *errs.ValidationFailure
	require.True(t, errors.As(err, &vf), "expected a validation failure, got %v", err)
	return vf.Violations
}

func TestCreateService(t *testing.T) {
	f := newManagerFixture()
	ctx := context.Background()

	rec, err := f.manager.CreateService(ctx, f.owner.ID, submission(f.owner.ID))
	require.NoError(t, err)

	assert.Equal(t, uint(1), rec.ID)
	assert.Equal(t, models.StatusActive, rec.Status)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.True(t, rec.PriceAverage.Decimal.Equal(dec("75")))
	assert.Equal(t, models.PaymentMethodSet{"EFECTIVO", "TRANSFERENCIA"}, rec.PaymentMethods)

	stored := f.store.get(rec.ID)
	require.NotNil(t, stored)
	assert.Equal(t, f.owner.ID, stored.OwnerID)
	assert.Equal(t, "Lunes a viernes", *stored.Availability)
}

func TestCreateService_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		actor func(f *managerFixture) uuid.UUID
		sub   func(f *managerFixture) *ServiceSubmission
		code  string
	}{
		{
			name:  "client account",
			actor: func(f *managerFixture) uuid.UUID { return f.addUser(client()).ID },
			sub:   func(f *managerFixture) *ServiceSubmission { return submission(f.owner.ID) },
			code:  errs.CodeUnauthorized,
		},
		{
			name:  "unknown account",
			actor: func(f *managerFixture) uuid.UUID { return uuid.New() },
			sub:   func(f *managerFixture) *ServiceSubmission { return submission(f.owner.ID) },
			code:  errs.CodeUnauthorized,
		},
		{
			name:  "client submitting an invalid record",
			actor: func(f *managerFixture) uuid.UUID { return f.addUser(client()).ID },
			sub:   func(f *managerFixture) *ServiceSubmission { return &ServiceSubmission{} },
			code:  errs.CodeUnauthorized,
		},
		{
			name:  "record for another provider",
			actor: func(f *managerFixture) uuid.UUID { return f.owner.ID },
			sub:   func(f *managerFixture) *ServiceSubmission { return submission(f.addUser(provider()).ID) },
			code:  errs.CodeUnauthorized,
		},
		{
			name:  "inverted bounds",
			actor: func(f *managerFixture) uuid.UUID { return f.owner.ID },
			sub: func(f *managerFixture) *ServiceSubmission {
				s := submission(f.owner.ID)
				s.PriceMax, s.PriceMin = decPtr("10"), decPtr("20")
				return s
			},
			code: errs.CodeValidationFailed,
		},
		{
			name:  "unknown service type",
			actor: func(f *managerFixture) uuid.UUID { return f.owner.ID },
			sub: func(f *managerFixture) *ServiceSubmission {
				s := submission(f.owner.ID)
				s.ServiceType = "ASTRONAUTA"
				return s
			},
			code: errs.CodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newManagerFixture()
			rec, err := f.manager.CreateService(context.Background(), tt.actor(f), tt.sub(f))

			assert.Nil(t, rec)
			assert.Equal(t, tt.code, failureCode(t, err))
			assert.Zero(t, f.store.saves)
			assert.Empty(t, f.store.records)
		})
	}
}

func TestCreateService_InvalidBoundsViolation(t *testing.T) {
	f := newManagerFixture()
	sub := submission(f.owner.ID)
	sub.PriceMax = decPtr("50")

	_, err := f.manager.CreateService(context.Background(), f.owner.ID, sub)
	assert.Equal(t, []errs.Violation{{Field: "precioMaximo", Code: errs.InvalidBounds}}, violations(t, err))
}

func TestCreateService_UnknownCatalogueReferences(t *testing.T) {
	f := newManagerFixture()
	sub := submission(f.owner.ID)
	sub.ServiceType = "ASTRONAUTA"
	sub.PaymentMethods = []string{"EFECTIVO", "TRUEQUE"}

	_, err := f.manager.CreateService(context.Background(), f.owner.ID, sub)
	assert.Equal(t, []errs.Violation{
		{Field: "tipoServicio", Code: errs.UnknownReference},
		{Field: "mediosDePago", Code: errs.UnknownReference},
	}, violations(t, err))
}

func TestCreateService_Duplicate(t *testing.T) {
	f := newManagerFixture()
	ctx := context.Background()

	_, err := f.manager.CreateService(ctx, f.owner.ID, submission(f.owner.ID))
	require.NoError(t, err)

	_, err = f.manager.CreateService(ctx, f.owner.ID, submission(f.owner.ID))
	var conflict *errs.ConflictFailure
	require.True(t, errors.As(err, &conflict))
	assert.Len(t, f.store.records, 1)

	other := f.addUser(provider())
	_, err = f.manager.CreateService(ctx, other.ID, submission(other.ID))
	require.NoError(t, err, "another provider may offer the same service")
	assert.Len(t, f.store.records, 2)
}

func TestCreateService_LocksOwnerBeforeDuplicateCheck(t *testing.T) {
	f := newManagerFixture()

	_, err := f.manager.CreateService(context.Background(), f.owner.ID, submission(f.owner.ID))
	require.NoError(t, err)

	owner := f.owner.ID.String()
	assert.Equal(t, []string{"lock " + owner, "list " + owner}, f.store.trace)
}

func TestCreateService_StoreFailureIsOpaque(t *testing.T) {
	f := newManagerFixture()
	f.store.failSave = errors.New("pq: deadlock detected")

	_, err := f.manager.CreateService(context.Background(), f.owner.ID, submission(f.owner.ID))

	var sys *errs.SystemFailure
	require.True(t, errors.As(err, &sys))
	assert.NotContains(t, err.Error(), "deadlock")
	assert.ErrorIs(t, err, f.store.failSave)
}

func TestUpdateService_LowersMinimum(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)

	sub := submission(owner.ID)
	sub.PriceMin = decPtr("40.00")

	rec, changes, err := f.manager.UpdateService(context.Background(), owner.ID, 1, sub)
	require.NoError(t, err)

	assert.Equal(t, ChangeSet{"precioMinimo", "precioPromedio"}, changes)
	assert.True(t, rec.PriceAverage.Decimal.Equal(dec("70.00")))

	stored := f.store.get(1)
	assert.True(t, stored.PriceMin.Equal(dec("40")))
	assert.True(t, stored.PriceAverage.Decimal.Equal(dec("70")))
	assert.Equal(t, storedRecord(owner.ID).CreatedAt, stored.CreatedAt, "creation time is kept")
}

func TestUpdateService_ClearsOptionalField(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)

	sub := submission(owner.ID)
	sub.Availability = nil

	_, changes, err := f.manager.UpdateService(context.Background(), owner.ID, 1, sub)
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{"disponibilidad"}, changes)

	rec, err := f.manager.GetServiceByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, rec.Availability)
}

func TestUpdateService_NoChangesSkipsSave(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)

	_, changes, err := f.manager.UpdateService(context.Background(), owner.ID, 1, submission(owner.ID))
	require.NoError(t, err)
	assert.True(t, changes.Empty())
	assert.Zero(t, f.store.saves)
}

func TestUpdateService_OwnerChange(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)
	before := f.store.get(1)

	sub := submission(f.addUser(provider()).ID)
	sub.Description = ""
	sub.PriceMax = decPtr("1")

	_, _, err := f.manager.UpdateService(context.Background(), owner.ID, 1, sub)
	assert.Equal(t, errs.CodeIllegalMutation, failureCode(t, err))
	assert.Equal(t, before, f.store.get(1))
}

func TestUpdateService_Rejections(t *testing.T) {
	owner := provider()

	t.Run("not found", func(t *testing.T) {
		f := newManagerFixture()
		f.addUser(owner)
		_, _, err := f.manager.UpdateService(context.Background(), owner.ID, 42, submission(owner.ID))
		assert.Equal(t, errs.CodeNotFound, failureCode(t, err))
	})

	t.Run("another provider", func(t *testing.T) {
		f := newManagerFixture(storedRecord(owner.ID))
		intruder := f.addUser(provider())
		_, _, err := f.manager.UpdateService(context.Background(), intruder.ID, 1, submission(owner.ID))
		assert.Equal(t, errs.CodeUnauthorized, failureCode(t, err))
	})

	t.Run("missing required fields", func(t *testing.T) {
		f := newManagerFixture(storedRecord(owner.ID))
		f.addUser(owner)
		sub := submission(owner.ID)
		sub.PriceMax, sub.PriceMin = nil, nil

		_, _, err := f.manager.UpdateService(context.Background(), owner.ID, 1, sub)
		assert.Equal(t, []errs.Violation{
			{Field: "precioMaximo", Code: errs.Missing},
			{Field: "precioMinimo", Code: errs.Missing},
		}, violations(t, err))
		assert.Zero(t, f.store.saves)
	})

	t.Run("failed save rolls back", func(t *testing.T) {
		f := newManagerFixture(storedRecord(owner.ID))
		f.addUser(owner)
		f.store.failSave = errors.New("disk full")
		sub := submission(owner.ID)
		sub.Description = "Cambio"

		_, _, err := f.manager.UpdateService(context.Background(), owner.ID, 1, sub)
		assert.Equal(t, errs.CodeInternal, failureCode(t, err))
		assert.Equal(t, "Reparación de cañerías", f.store.get(1).Description)
	})
}

func TestEnableDisableService(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)
	ctx := context.Background()

	changes, err := f.manager.EnableServiceByID(ctx, owner.ID, 1)
	require.NoError(t, err)
	assert.True(t, changes.Empty(), "re-enabling an active record is a no-op")
	assert.Zero(t, f.store.saves)

	changes, err = f.manager.DisableServiceByID(ctx, owner.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{"estado"}, changes)
	assert.Equal(t, models.StatusInactive, f.store.get(1).Status)

	changes, err = f.manager.DisableServiceByID(ctx, owner.ID, 1)
	require.NoError(t, err)
	assert.True(t, changes.Empty())

	changes, err = f.manager.EnableServiceByID(ctx, owner.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{"estado"}, changes)
	assert.Equal(t, 2, f.store.saves)

	_, err = f.manager.EnableServiceByID(ctx, owner.ID, 7)
	assert.Equal(t, errs.CodeNotFound, failureCode(t, err))

	intruder := f.addUser(provider())
	_, err = f.manager.DisableServiceByID(ctx, intruder.ID, 1)
	assert.Equal(t, errs.CodeUnauthorized, failureCode(t, err))
}

func TestDeleteService(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)
	ctx := context.Background()

	intruder := f.addUser(provider())
	err := f.manager.DeleteServiceByID(ctx, intruder.ID, 1)
	assert.Equal(t, errs.CodeUnauthorized, failureCode(t, err))

	require.NoError(t, f.manager.DeleteServiceByID(ctx, owner.ID, 1))
	_, err = f.manager.GetServiceByID(ctx, 1)
	assert.Equal(t, errs.CodeNotFound, failureCode(t, err))

	err = f.manager.DeleteServiceByID(ctx, owner.ID, 1)
	assert.Equal(t, errs.CodeNotFound, failureCode(t, err))
}

func TestListServices(t *testing.T) {
	owner := provider()
	gas := storedRecord(owner.ID)
	gas.ID = 2
	gas.ServiceType = "GASISTA"
	gas.Status = models.StatusInactive
	other := storedRecord(uuid.New())
	other.ID = 3
	f := newManagerFixture(storedRecord(owner.ID), gas, other)
	ctx := context.Background()

	all, err := f.manager.ListServices(ctx, ServiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.manager.ListServices(ctx, ServiceFilter{OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	byType, err := f.manager.ListServices(ctx, ServiceFilter{ServiceType: "GASISTA"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, uint(2), byType[0].ID)

	active, err := f.manager.ListServices(ctx, ServiceFilter{Status: models.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	f.store.failList = errors.New("timeout")
	_, err = f.manager.ListServices(ctx, ServiceFilter{})
	assert.Equal(t, errs.CodeInternal, failureCode(t, err))
}

func TestListCatalogue(t *testing.T) {
	f := newManagerFixture()

	types, err := f.manager.ListServiceTypes(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, types)

	methods, err := f.manager.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	assert.Len(t, methods, len(models.DefaultPaymentMethods))
}

func TestUpdateService_MissingOwnerIsAViolation(t *testing.T) {
	owner := provider()
	f := newManagerFixture(storedRecord(owner.ID))
	f.addUser(owner)

	sub := submission(owner.ID)
	sub.Owner = ""

	_, _, err := f.manager.UpdateService(context.Background(), owner.ID, 1, sub)
	assert.Equal(t, []errs.Violation{{Field: "usuarioPrestador", Code: errs.Missing}}, violations(t, err))
}
