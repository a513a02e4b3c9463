package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCorteRequest struct {
	SucursalID   string          `json:"sucursal_id"   validate:"required,uuid"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

// AbrirCajaChicaRequest opens a petty-cash cycle; the fixed fund becomes the
// opening balance.
type AbrirCajaChicaRequest struct {
	SucursalID string          `json:"sucursal_id" validate:"required,uuid"`
	FondoFijo  decimal.Decimal `json:"fondo_fijo"  validate:"required,gt=0"`
}

// ConteoCapturado is the physically counted balance, per payment method.
type ConteoCapturado struct {
	Efectivo      decimal.Decimal `json:"efectivo"      validate:"min=0"`
	Tarjeta       decimal.Decimal `json:"tarjeta"       validate:"min=0"`
	Transferencia decimal.Decimal `json:"transferencia" validate:"min=0"`
}

func (c ConteoCapturado) Total() decimal.Decimal {
	return c.Efectivo.Add(c.Tarjeta).Add(c.Transferencia)
}

type CerrarCorteRequest struct {
	Conteo        ConteoCapturado `json:"conteo" validate:"required"`
	Observaciones *string         `json:"observaciones"`
}

type CancelarCorteRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// DesgloseMetodo mirrors cuadre.PorMetodo on the wire.
type DesgloseMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Tarjeta       decimal.Decimal `json:"tarjeta"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Deposito      decimal.Decimal `json:"deposito"`
	Total         decimal.Decimal `json:"total"`
}

type TotalesResponse struct {
	Ingresos          decimal.Decimal `json:"ingresos"`
	Egresos           decimal.Decimal `json:"egresos"`
	IngresosPorMetodo DesgloseMetodo  `json:"ingresos_por_metodo"`
	EgresosPorMetodo  DesgloseMetodo  `json:"egresos_por_metodo"`
}

// PrecuadreResponse previews the expected balance before closing.
type PrecuadreResponse struct {
	CorteID       string          `json:"corte_id"`
	Ambito        string          `json:"ambito"`
	SucursalID    string          `json:"sucursal_id"`
	Fecha         string          `json:"fecha"`
	SaldoInicial  decimal.Decimal `json:"saldo_inicial"`
	Totales       TotalesResponse `json:"totales"`
	SaldoEsperado decimal.Decimal `json:"saldo_esperado"`
	Estado        string          `json:"estado"`
}

type CierreResponse struct {
	CorteID       string          `json:"corte_id"`
	SaldoEsperado decimal.Decimal `json:"saldo_esperado"`
	SaldoReal     decimal.Decimal `json:"saldo_real"`
	// Diferencia = esperado - real; positivo = faltante
	Diferencia  decimal.Decimal `json:"diferencia"`
	EstadoFinal string          `json:"estado_final"` // CUADRADA | CON_DIFERENCIA
	Estado      string          `json:"estado"`
	FechaCierre string          `json:"fecha_cierre"`
}

// CorteResponse is the full report of a reconciliation period.
type CorteResponse struct {
	CorteID           string           `json:"corte_id"`
	Ambito            string           `json:"ambito"`
	SucursalID        string           `json:"sucursal_id"`
	UsuarioID         *string          `json:"usuario_id"`
	Fecha             string           `json:"fecha"`
	SaldoInicial      decimal.Decimal  `json:"saldo_inicial"`
	Totales           TotalesResponse  `json:"totales"`
	SaldoEsperado     decimal.Decimal  `json:"saldo_esperado"`
	SaldoReal         *decimal.Decimal `json:"saldo_real"`
	Diferencia        *decimal.Decimal `json:"diferencia"`
	EstadoFinal       *string          `json:"estado_final"`
	Estado            string           `json:"estado"`
	Observaciones     *string          `json:"observaciones"`
	MotivoCancelacion *string          `json:"motivo_cancelacion"`
	CerradoPor        *string          `json:"cerrado_por"`
	OpenedAt          string           `json:"opened_at"`
	FechaCierre       *string          `json:"fecha_cierre"`
}
