package services

import (
	"github.com/shopspring/decimal"

	"yotereparo-backend/errs"
	"yotereparo-backend/models"
)

// Mutability says how the merger treats a field of ServiceRecord.
type Mutability int

const (
	// OwnerImmutable fields may never differ; the whole merge is rejected.
	OwnerImmutable Mutability = iota
	// Clearable fields are optional; an absent submitted value clears them.
	Clearable
	// Derived fields are never read from the submission and are recomputed
	// when one of their inputs changes.
	Derived
	// SetReplace fields are compared as sets and replaced wholesale.
	SetReplace
	// Overwritable fields are copied whenever they differ.
	Overwritable
	// SystemManaged fields are owned by the lifecycle and never merged.
	SystemManaged
)

// ChangeSet lists the JSON names of the fields a merge or transition changed,
// in policy table order.
type ChangeSet []string

func (c ChangeSet) Contains(field string) bool {
	for _, f := range c {
		if f == field {
			return true
		}
	}
	return false
}

func (c ChangeSet) Empty() bool { return len(c) == 0 }

type fieldPolicy struct {
	name       string
	mutability Mutability
	equal      func(persisted, submitted *models.ServiceRecord) bool
	apply      func(persisted, submitted *models.ServiceRecord)
	dependsOn  []string
}

// servicePolicies is the per-field merge policy of ServiceRecord.
var servicePolicies = []fieldPolicy{
	{
		name: "id", mutability: SystemManaged,
	},
	{
		name: "usuarioPrestador", mutability: OwnerImmutable,
		equal: func(p, s *models.ServiceRecord) bool { return p.OwnerID == s.OwnerID },
	},
	{
		name: "descripcion", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.Description == s.Description },
		apply: func(p, s *models.ServiceRecord) { p.Description = s.Description },
	},
	{
		name: "disponibilidad", mutability: Clearable,
		equal: func(p, s *models.ServiceRecord) bool { return equalText(p.Availability, s.Availability) },
		apply: func(p, s *models.ServiceRecord) { p.Availability = copyText(s.Availability) },
	},
	{
		name: "precioMaximo", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.PriceMax.Equal(s.PriceMax) },
		apply: func(p, s *models.ServiceRecord) { p.PriceMax = s.PriceMax },
	},
	{
		name: "precioMinimo", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.PriceMin.Equal(s.PriceMin) },
		apply: func(p, s *models.ServiceRecord) { p.PriceMin = s.PriceMin },
	},
	{
		name: "precioPromedio", mutability: Derived,
		apply: func(p, _ *models.ServiceRecord) {
			p.PriceAverage = decimal.NullDecimal{}
			p.RecomputeAverage()
		},
		dependsOn: []string{"precioMaximo", "precioMinimo"},
	},
	{
		name: "precioInsumos", mutability: Clearable,
		equal: func(p, s *models.ServiceRecord) bool { return equalNullDecimal(p.PriceSupplies, s.PriceSupplies) },
		apply: func(p, s *models.ServiceRecord) { p.PriceSupplies = s.PriceSupplies },
	},
	{
		name: "precioAdicionales", mutability: Clearable,
		equal: func(p, s *models.ServiceRecord) bool { return equalNullDecimal(p.PriceExtras, s.PriceExtras) },
		apply: func(p, s *models.ServiceRecord) { p.PriceExtras = s.PriceExtras },
	},
	{
		name: "horasEstimadasEjecucion", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.EstimatedHours.Equal(s.EstimatedHours) },
		apply: func(p, s *models.ServiceRecord) { p.EstimatedHours = s.EstimatedHours },
	},
	{
		name: "cantidadTrabajadores", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.WorkerCount == s.WorkerCount },
		apply: func(p, s *models.ServiceRecord) { p.WorkerCount = s.WorkerCount },
	},
	{
		name: "facturaEmitida", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.InvoiceIssued == s.InvoiceIssued },
		apply: func(p, s *models.ServiceRecord) { p.InvoiceIssued = s.InvoiceIssued },
	},
	{
		name: "tipoServicio", mutability: Overwritable,
		equal: func(p, s *models.ServiceRecord) bool { return p.ServiceType == s.ServiceType },
		apply: func(p, s *models.ServiceRecord) { p.ServiceType = s.ServiceType },
	},
	{
		name: "mediosDePago", mutability: SetReplace,
		equal: func(p, s *models.ServiceRecord) bool { return p.PaymentMethods.Equal(s.PaymentMethods) },
		apply: func(p, s *models.ServiceRecord) {
			p.PaymentMethods = models.NewPaymentMethodSet(s.PaymentMethods...)
		},
	},
	{name: "imagen", mutability: SystemManaged},
	{name: "fechaCreacion", mutability: SystemManaged},
	{name: "estado", mutability: SystemManaged},
}

// Merger applies a submitted record onto a persisted one following the
// policy table. It holds no state and does no I/O; the caller owns the
// persisted record exclusively for the duration of Merge.
type Merger struct {
	policies []fieldPolicy
}

func NewMerger() *Merger {
	return &Merger{policies: servicePolicies}
}

// Merge mutates persisted in place and returns the fields it changed. An
// owner-immutable difference aborts the merge before anything is written.
func (m *Merger) Merge(persisted, submitted *models.ServiceRecord) (ChangeSet, error) {
	for _, p := range m.policies {
		if p.mutability == OwnerImmutable && !p.equal(persisted, submitted) {
			return nil, errs.NewIllegalMutation(p.name)
		}
	}

	var changes ChangeSet
	for _, p := range m.policies {
		switch p.mutability {
		case Clearable, SetReplace, Overwritable:
			if !p.equal(persisted, submitted) {
				p.apply(persisted, submitted)
				changes = append(changes, p.name)
			}
		}
	}

	for _, p := range m.policies {
		if p.mutability != Derived {
			continue
		}
		for _, input := range p.dependsOn {
			if changes.Contains(input) {
				p.apply(persisted, submitted)
				changes = append(changes, p.name)
				break
			}
		}
	}

	return changes, nil
}

func equalText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyText(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalNullDecimal(a, b decimal.NullDecimal) bool {
	if !a.Valid || !b.Valid {
		return a.Valid == b.Valid
	}
	return a.Decimal.Equal(b.Decimal)
}
