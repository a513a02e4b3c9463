// Package cuadre implements the reconciliation arithmetic shared by the
// three cash flows (corte de usuario, caja chica, caja general): aggregation
// of validated movements, expected-balance derivation, and the signed
// difference against the physically counted balance.
//
// Every function here is pure — no I/O, no clock, no persistence. All money
// is shopspring/decimal; binary floats never touch an amount.
package cuadre

import (
	"cajas/internal/model"

	"github.com/shopspring/decimal"
)

// PorMetodo breaks an amount down by payment method.
type PorMetodo struct {
	Efectivo      decimal.Decimal
	Tarjeta       decimal.Decimal
	Transferencia decimal.Decimal
	Deposito      decimal.Decimal
}

// Total sums the four methods.
func (p PorMetodo) Total() decimal.Decimal {
	return p.Efectivo.Add(p.Tarjeta).Add(p.Transferencia).Add(p.Deposito)
}

func (p *PorMetodo) add(metodo string, monto decimal.Decimal) {
	switch metodo {
	case model.MetodoEfectivo:
		p.Efectivo = p.Efectivo.Add(monto)
	case model.MetodoTarjeta:
		p.Tarjeta = p.Tarjeta.Add(monto)
	case model.MetodoTransferencia:
		p.Transferencia = p.Transferencia.Add(monto)
	case model.MetodoDeposito:
		p.Deposito = p.Deposito.Add(monto)
	}
}

// Totales holds the aggregated ledger of one corte.
type Totales struct {
	Ingresos decimal.Decimal
	Egresos  decimal.Decimal
	// Per-method splits, by direction
	IngresosPorMetodo PorMetodo
	EgresosPorMetodo  PorMetodo
}

// Agregar sums the validated movements of a corte by direction and payment
// method. Pending and rejected entries are silently excluded. An empty slice
// yields zero totals. Addition over decimals is commutative, so the result
// does not depend on movement order.
func Agregar(movs []model.Movimiento) Totales {
	var t Totales
	for _, m := range movs {
		if m.Validado != model.ValidadoAprobado {
			continue
		}
		switch m.Tipo {
		case model.TipoIngreso:
			t.Ingresos = t.Ingresos.Add(m.Monto)
			t.IngresosPorMetodo.add(m.MetodoPago, m.Monto)
		case model.TipoEgreso:
			t.Egresos = t.Egresos.Add(m.Monto)
			t.EgresosPorMetodo.add(m.MetodoPago, m.Monto)
		}
	}
	return t
}

// SaldoEsperado derives the balance the drawer should hold:
// saldo inicial + ingresos - egresos.
func SaldoEsperado(inicial decimal.Decimal, t Totales) decimal.Decimal {
	return inicial.Add(t.Ingresos).Sub(t.Egresos)
}

// Diferencia returns esperado - real.
// Convention held across the whole system: positivo = faltante (missing
// cash), negativo = sobrante.
func Diferencia(esperado, real decimal.Decimal) decimal.Decimal {
	return esperado.Sub(real)
}

// Cuadrada reports whether a difference falls within the scope's tolerance.
func Cuadrada(diferencia, tolerancia decimal.Decimal) bool {
	return diferencia.Abs().LessThanOrEqual(tolerancia)
}

// EstadoFinal classifies a closing difference as CUADRADA or CON_DIFERENCIA.
func EstadoFinal(diferencia, tolerancia decimal.Decimal) string {
	if Cuadrada(diferencia, tolerancia) {
		return model.CuadreCuadrada
	}
	return model.CuadreConDiferencia
}
