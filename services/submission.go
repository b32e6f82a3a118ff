package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"yotereparo-backend/models"
)

// ServiceSubmission is the inbound shape of a create or update request.
// Optional fields must always be sent; an absent optional field clears it.
type ServiceSubmission struct {
	Owner          string           `json:"usuarioPrestador" validate:"required"`
	Description    string           `json:"descripcion" validate:"required"`
	Availability   *string          `json:"disponibilidad"`
	PriceMax       *decimal.Decimal `json:"precioMaximo" validate:"required,min=0"`
	PriceMin       *decimal.Decimal `json:"precioMinimo" validate:"required,min=0"`
	PriceSupplies  *decimal.Decimal `json:"precioInsumos" validate:"omitempty,min=0"`
	PriceExtras    *decimal.Decimal `json:"precioAdicionales" validate:"omitempty,min=0"`
	EstimatedHours *decimal.Decimal `json:"horasEstimadasEjecucion" validate:"required,min=0"`
	WorkerCount    *int             `json:"cantidadTrabajadores" validate:"required,min=1"`
	InvoiceIssued  *bool            `json:"facturaEmitida" validate:"required"`
	ServiceType    string           `json:"tipoServicio" validate:"required"`
	PaymentMethods []string         `json:"mediosDePago" validate:"required,min=1"`
}

// toRecord builds the candidate record of a validated submission. The owner
// reference is parsed leniently: an unparsable owner becomes uuid.Nil, which
// never matches a real account.
func (s *ServiceSubmission) toRecord() *models.ServiceRecord {
	rec := &models.ServiceRecord{
		OwnerID:        s.ownerID(),
		Description:    strings.TrimSpace(s.Description),
		Availability:   normalizeText(s.Availability),
		PriceMax:       *s.PriceMax,
		PriceMin:       *s.PriceMin,
		PriceSupplies:  nullDecimal(s.PriceSupplies),
		PriceExtras:    nullDecimal(s.PriceExtras),
		EstimatedHours: *s.EstimatedHours,
		WorkerCount:    *s.WorkerCount,
		InvoiceIssued:  *s.InvoiceIssued,
		ServiceType:    strings.TrimSpace(s.ServiceType),
		PaymentMethods: models.NewPaymentMethodSet(s.PaymentMethods...),
	}
	rec.RecomputeAverage()
	return rec
}

func (s *ServiceSubmission) ownerID() uuid.UUID {
	owner, err := uuid.Parse(strings.TrimSpace(s.Owner))
	if err != nil {
		return uuid.Nil
	}
	return owner
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
