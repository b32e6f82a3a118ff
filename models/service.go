package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ServiceStatus string

const (
	StatusActive   ServiceStatus = "ACTIVE"
	StatusInactive ServiceStatus = "INACTIVE"
)

var two = decimal.NewFromInt(2)

// ServiceRecord is a service offered by a provider account.
type ServiceRecord struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;index;not null" json:"usuarioPrestador"`

	Description  string  `gorm:"type:text;not null" json:"descripcion"`
	Availability *string `gorm:"type:text" json:"disponibilidad"`

	PriceMax      decimal.Decimal     `gorm:"type:decimal(11,2);not null" json:"precioMaximo"`
	PriceMin      decimal.Decimal     `gorm:"type:decimal(11,2);not null" json:"precioMinimo"`
	PriceAverage  decimal.NullDecimal `gorm:"type:decimal(12,3)" json:"precioPromedio"`
	PriceSupplies decimal.NullDecimal `gorm:"type:decimal(11,2)" json:"precioInsumos"`
	PriceExtras   decimal.NullDecimal `gorm:"type:decimal(11,2)" json:"precioAdicionales"`

	EstimatedHours decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"horasEstimadasEjecucion"`
	WorkerCount    int             `gorm:"not null" json:"cantidadTrabajadores"`
	InvoiceIssued  bool            `gorm:"not null" json:"facturaEmitida"`

	ServiceType    string           `gorm:"type:varchar(64);index;not null" json:"tipoServicio"`
	PaymentMethods PaymentMethodSet `gorm:"type:jsonb;not null" json:"mediosDePago"`

	Image []byte `gorm:"type:bytea" json:"-"`

	CreatedAt time.Time     `json:"fechaCreacion"`
	Status    ServiceStatus `gorm:"type:varchar(16);index;not null;default:'ACTIVE'" json:"estado"`
}

func (ServiceRecord) TableName() string { return "services" }

// ExpectedAverage is (PriceMax + PriceMin) / 2, computed exactly.
func (s *ServiceRecord) ExpectedAverage() decimal.Decimal {
	return s.PriceMax.Add(s.PriceMin).Div(two)
}

// RecomputeAverage stores ExpectedAverage and reports whether the stored
// value was missing or different.
func (s *ServiceRecord) RecomputeAverage() bool {
	want := s.ExpectedAverage()
	if s.PriceAverage.Valid && s.PriceAverage.Decimal.Equal(want) {
		return false
	}
	s.PriceAverage = decimal.NewNullDecimal(want)
	return true
}

func (s *ServiceRecord) IsActive() bool {
	return s.Status == StatusActive
}

// AfterFind fills in an average that was cleared by an update but not yet
// recomputed before it was written.
func (s *ServiceRecord) AfterFind(tx *gorm.DB) error {
	if !s.PriceAverage.Valid {
		s.RecomputeAverage()
	}
	return nil
}
