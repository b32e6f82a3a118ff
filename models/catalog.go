package models

// ServiceType classifies a service (plumbing, electrical work, ...).
type ServiceType struct {
	Code        string `gorm:"type:varchar(64);primaryKey" json:"codigo"`
	Description string `gorm:"not null" json:"descripcion"`
}

// PaymentMethod is a payment option a provider may accept.
type PaymentMethod struct {
	Code        string `gorm:"type:varchar(64);primaryKey" json:"codigo"`
	Description string `gorm:"not null" json:"descripcion"`
}

var DefaultServiceTypes = []ServiceType{
	{Code: "PLOMERIA", Description: "Plomería"},
	{Code: "ELECTRICIDAD", Description: "Electricidad"},
	{Code: "GASISTA", Description: "Gasista matriculado"},
	{Code: "CARPINTERIA", Description: "Carpintería"},
	{Code: "PINTURA", Description: "Pintura"},
	{Code: "CERRAJERIA", Description: "Cerrajería"},
	{Code: "ALBANILERIA", Description: "Albañilería"},
}

var DefaultPaymentMethods = []PaymentMethod{
	{Code: "EFECTIVO", Description: "Efectivo"},
	{Code: "TARJETA_CREDITO", Description: "Tarjeta de crédito"},
	{Code: "TARJETA_DEBITO", Description: "Tarjeta de débito"},
	{Code: "TRANSFERENCIA", Description: "Transferencia bancaria"},
	{Code: "MERCADO_PAGO", Description: "Mercado Pago"},
}
