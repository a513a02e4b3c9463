package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarMovimientoRequest struct {
	CorteID    string          `json:"corte_id"    validate:"required,uuid"`
	Tipo       string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Categoria  string          `json:"categoria"   validate:"required,min=3,max=40"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta transferencia deposito"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	// FechaTransaccion defaults to now when omitted
	FechaTransaccion *time.Time `json:"fecha_transaccion"`
	// UsuarioAutorizo is mandatory for non-cash methods
	UsuarioAutorizo *string `json:"usuario_autorizo" validate:"omitempty,uuid"`
	Referencia      *string `json:"referencia"       validate:"omitempty,max=200"`
}

type RechazarMovimientoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID               string          `json:"id"`
	CorteID          string          `json:"corte_id"`
	Tipo             string          `json:"tipo"`
	Categoria        string          `json:"categoria"`
	MetodoPago       string          `json:"metodo_pago"`
	Monto            decimal.Decimal `json:"monto"`
	FechaTransaccion string          `json:"fecha_transaccion"`
	UsuarioCreo      string          `json:"usuario_creo"`
	UsuarioAutorizo  *string         `json:"usuario_autorizo"`
	Validado         int16           `json:"validado"` // 0 pendiente | 1 aprobado | 2 rechazado
	MotivoRechazo    *string         `json:"motivo_rechazo"`
	Referencia       *string         `json:"referencia"`
}
