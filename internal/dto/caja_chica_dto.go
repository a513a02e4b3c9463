package dto

import "github.com/shopspring/decimal"

// GastoCajaChicaRequest records a petty-cash expense (egreso) against the
// branch's active fund cycle.
type GastoCajaChicaRequest struct {
	SucursalID string          `json:"sucursal_id" validate:"required,uuid"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Categoria  string          `json:"categoria"   validate:"omitempty,min=3,max=40"`
	Referencia *string         `json:"referencia"  validate:"omitempty,max=200"`
}

// ReposicionCajaChicaRequest tops the fund back up (ingreso).
type ReposicionCajaChicaRequest struct {
	SucursalID      string          `json:"sucursal_id"      validate:"required,uuid"`
	Monto           decimal.Decimal `json:"monto"            validate:"required,gt=0"`
	MetodoPago      string          `json:"metodo_pago"      validate:"required,oneof=efectivo transferencia deposito"`
	UsuarioAutorizo *string         `json:"usuario_autorizo" validate:"omitempty,uuid"`
	Referencia      *string         `json:"referencia"       validate:"omitempty,max=200"`
}
