package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"yotereparo-backend/models"
)

// memoryStore is an in-memory ServiceStore. Transaction restores the previous
// state when fn fails.
type memoryStore struct {
	records map[uint]models.ServiceRecord
	nextID  uint
	saves   int

	failSave error
	failList error

	// trace records the locking and owner reads in call order.
	trace []string
}

func newMemoryStore(recs ...*models.ServiceRecord) *memoryStore {
	s := &memoryStore{records: make(map[uint]models.ServiceRecord), nextID: 1}
	for _, rec := range recs {
		s.put(rec)
	}
	return s
}

func (s *memoryStore) put(rec *models.ServiceRecord) {
	if rec.ID == 0 {
		rec.ID = s.nextID
	}
	if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}
	s.records[rec.ID] = *cloneRecord(rec)
}

func (s *memoryStore) get(id uint) *models.ServiceRecord {
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	return cloneRecord(&rec)
}

func (s *memoryStore) Load(_ context.Context, id uint) (*models.ServiceRecord, bool, error) {
	rec := s.get(id)
	return rec, rec != nil, nil
}

func (s *memoryStore) LoadForUpdate(ctx context.Context, id uint) (*models.ServiceRecord, bool, error) {
	return s.Load(ctx, id)
}

func (s *memoryStore) Save(_ context.Context, rec *models.ServiceRecord) error {
	if s.failSave != nil {
		return s.failSave
	}
	s.saves++
	s.put(rec)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id uint) (bool, error) {
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *memoryStore) LockOwner(_ context.Context, ownerID uuid.UUID) error {
	s.trace = append(s.trace, "lock "+ownerID.String())
	return nil
}

func (s *memoryStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ServiceRecord, error) {
	s.trace = append(s.trace, "list "+ownerID.String())
	return s.List(ctx, ServiceFilter{OwnerID: &ownerID})
}

func (s *memoryStore) List(_ context.Context, filter ServiceFilter) ([]models.ServiceRecord, error) {
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.ServiceRecord
	for _, rec := range s.records {
		if filter.OwnerID != nil && rec.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.ServiceType != "" && rec.ServiceType != filter.ServiceType {
			continue
		}
		if filter.PaymentMethod != "" && !rec.PaymentMethods.Contains(filter.PaymentMethod) {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, *cloneRecord(&rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) RepairAverages(_ context.Context) (int64, error) {
	if s.failSave != nil {
		return 0, s.failSave
	}
	var repaired int64
	for id, rec := range s.records {
		if rec.RecomputeAverage() {
			s.records[id] = rec
			repaired++
		}
	}
	return repaired, nil
}

func (s *memoryStore) Transaction(_ context.Context, fn func(tx ServiceStore) error) error {
	snapshot := make(map[uint]models.ServiceRecord, len(s.records))
	for id, rec := range s.records {
		snapshot[id] = *cloneRecord(&rec)
	}
	nextID, saves := s.nextID, s.saves
	if err := fn(s); err != nil {
		s.records, s.nextID, s.saves = snapshot, nextID, saves
		return err
	}
	return nil
}

func cloneRecord(rec *models.ServiceRecord) *models.ServiceRecord {
	c := *rec
	c.Availability = copyText(rec.Availability)
	c.PaymentMethods = append(models.PaymentMethodSet(nil), rec.PaymentMethods...)
	if rec.Image != nil {
		c.Image = append([]byte(nil), rec.Image...)
	}
	return &c
}

type memoryAccounts struct {
	users     map[uuid.UUID]*models.User
	lastLogin map[uuid.UUID]time.Time
	failFind  error
}

func newMemoryAccounts(users ...*models.User) *memoryAccounts {
	a := &memoryAccounts{users: make(map[uuid.UUID]*models.User), lastLogin: make(map[uuid.UUID]time.Time)}
	for _, u := range users {
		a.users[u.ID] = u
	}
	return a
}

func (a *memoryAccounts) FindByID(_ context.Context, id uuid.UUID) (*models.User, bool, error) {
	if a.failFind != nil {
		return nil, false, a.failFind
	}
	u, ok := a.users[id]
	if !ok {
		return nil, false, nil
	}
	c := *u
	return &c, true, nil
}

func (a *memoryAccounts) FindByIdentifier(_ context.Context, identifier string) (*models.User, bool, error) {
	for _, u := range a.users {
		if u.Username == identifier || strings.EqualFold(u.Email, identifier) {
			c := *u
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (a *memoryAccounts) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range a.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (a *memoryAccounts) Create(_ context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	c := *user
	a.users[user.ID] = &c
	return nil
}

func (a *memoryAccounts) UpdateProfile(_ context.Context, id uuid.UUID, name, phone string) (bool, error) {
	u, ok := a.users[id]
	if !ok {
		return false, nil
	}
	u.Name, u.Phone = name, phone
	return true, nil
}

func (a *memoryAccounts) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	a.lastLogin[id] = at
	return nil
}

type memoryCatalog struct {
	types   map[string]bool
	methods map[string]bool
}

func newMemoryCatalog() *memoryCatalog {
	c := &memoryCatalog{types: make(map[string]bool), methods: make(map[string]bool)}
	for _, t := range models.DefaultServiceTypes {
		c.types[t.Code] = true
	}
	for _, m := range models.DefaultPaymentMethods {
		c.methods[m.Code] = true
	}
	return c
}

func (c *memoryCatalog) ServiceTypeExists(_ context.Context, code string) (bool, error) {
	return c.types[code], nil
}

func (c *memoryCatalog) MissingPaymentMethods(_ context.Context, codes []string) ([]string, error) {
	var missing []string
	for _, code := range codes {
		if !c.methods[code] {
			missing = append(missing, code)
		}
	}
	return missing, nil
}

func (c *memoryCatalog) ListServiceTypes(context.Context) ([]models.ServiceType, error) {
	return models.DefaultServiceTypes, nil
}

func (c *memoryCatalog) ListPaymentMethods(context.Context) ([]models.PaymentMethod, error) {
	return models.DefaultPaymentMethods, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func provider() *models.User {
	return &models.User{ID: uuid.New(), Username: "plomero", Email: "plomero@example.com", Role: models.RoleProvider, IsActive: true}
}

func client() *models.User {
	return &models.User{ID: uuid.New(), Username: "cliente", Email: "cliente@example.com", Role: models.RoleClient, IsActive: true}
}

func submission(owner uuid.UUID) *ServiceSubmission {
	return &ServiceSubmission{
		Owner:          owner.String(),
		Description:    "Reparación de cañerías",
		Availability:   strPtr("Lunes a viernes"),
		PriceMax:       decPtr("100.00"),
		PriceMin:       decPtr("50.00"),
		EstimatedHours: decPtr("2.5"),
		WorkerCount:    intPtr(1),
		InvoiceIssued:  boolPtr(true),
		ServiceType:    "PLOMERIA",
		PaymentMethods: []string{"EFECTIVO", "TRANSFERENCIA"},
	}
}

func storedRecord(owner uuid.UUID) *models.ServiceRecord {
	rec := &models.ServiceRecord{
		ID:             1,
		OwnerID:        owner,
		Description:    "Reparación de cañerías",
		Availability:   strPtr("Lunes a viernes"),
		PriceMax:       dec("100.00"),
		PriceMin:       dec("50.00"),
		EstimatedHours: dec("2.5"),
		WorkerCount:    1,
		InvoiceIssued:  true,
		ServiceType:    "PLOMERIA",
		PaymentMethods: models.NewPaymentMethodSet("EFECTIVO", "TRANSFERENCIA"),
		CreatedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:         models.StatusActive,
	}
	rec.RecomputeAverage()
	return rec
}
