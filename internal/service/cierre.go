package service

// cierre.go — shared closing logic for the three reconciliation flows.
// Every flow (corte de usuario, caja chica, caja general) closes the same
// way: aggregate validated movements, derive the expected balance, take the
// counted declaration, classify the difference against the scope's
// tolerance. The arithmetic lives in internal/cuadre; this file applies it
// to a Corte row in one shot so the repository write is all-or-nothing.

import (
	"context"
	"time"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CierreDispatcher decouples services from the worker package; the redis
// dispatcher implements it, tests plug a no-op.
type CierreDispatcher interface {
	EnqueueCierre(ctx context.Context, corteID uuid.UUID) error
}

// aplicarCierre mutates the corte in memory with every derived closing
// field. The caller persists with a single Update so no partial transition
// ever hits the database.
func aplicarCierre(c *model.Corte, conteo dto.ConteoCapturado, observaciones *string, cerradoPor *uuid.UUID, tolerancia decimal.Decimal) {
	totales := cuadre.Agregar(c.Movimientos)
	esperado := cuadre.SaldoEsperado(c.SaldoInicial, totales)
	real := conteo.Total()
	diferencia := cuadre.Diferencia(esperado, real)
	estadoFinal := cuadre.EstadoFinal(diferencia, tolerancia)
	now := time.Now()

	efectivo, tarjeta, transferencia := conteo.Efectivo, conteo.Tarjeta, conteo.Transferencia
	c.SaldoEsperado = &esperado
	c.SaldoReal = &real
	c.TotalEfectivoCapturado = &efectivo
	c.TotalTarjetaCapturado = &tarjeta
	c.TotalTransferenciaCapturado = &transferencia
	c.Diferencia = &diferencia
	c.EstadoFinal = &estadoFinal
	c.Estado = model.EstadoCerrado
	c.Observaciones = observaciones
	c.CerradoPor = cerradoPor
	c.FechaCierre = &now

	// Queue the downstream notification; the cierre worker and retry cron
	// own this from here.
	c.EstadoNotificacion = "pendiente"
	c.RetryCount = 0
	c.NextRetryAt = &now
	c.LastError = nil
}

// ─── Response builders ────────────────────────────────────────────────────────

func desglose(p cuadre.PorMetodo) dto.DesgloseMetodo {
	return dto.DesgloseMetodo{
		Efectivo:      p.Efectivo,
		Tarjeta:       p.Tarjeta,
		Transferencia: p.Transferencia,
		Deposito:      p.Deposito,
		Total:         p.Total(),
	}
}

func totalesResponse(t cuadre.Totales) dto.TotalesResponse {
	return dto.TotalesResponse{
		Ingresos:          t.Ingresos,
		Egresos:           t.Egresos,
		IngresosPorMetodo: desglose(t.IngresosPorMetodo),
		EgresosPorMetodo:  desglose(t.EgresosPorMetodo),
	}
}

func precuadreResponse(c *model.Corte) *dto.PrecuadreResponse {
	totales := cuadre.Agregar(c.Movimientos)
	return &dto.PrecuadreResponse{
		CorteID:       c.ID.String(),
		Ambito:        c.Ambito,
		SucursalID:    c.SucursalID.String(),
		Fecha:         c.Fecha.Format("2006-01-02"),
		SaldoInicial:  c.SaldoInicial,
		Totales:       totalesResponse(totales),
		SaldoEsperado: cuadre.SaldoEsperado(c.SaldoInicial, totales),
		Estado:        c.Estado,
	}
}

func cierreResponse(c *model.Corte) *dto.CierreResponse {
	return &dto.CierreResponse{
		CorteID:       c.ID.String(),
		SaldoEsperado: *c.SaldoEsperado,
		SaldoReal:     *c.SaldoReal,
		Diferencia:    *c.Diferencia,
		EstadoFinal:   *c.EstadoFinal,
		Estado:        c.Estado,
		FechaCierre:   c.FechaCierre.Format(time.RFC3339),
	}
}

func corteResponse(c *model.Corte) *dto.CorteResponse {
	totales := cuadre.Agregar(c.Movimientos)
	resp := &dto.CorteResponse{
		CorteID:           c.ID.String(),
		Ambito:            c.Ambito,
		SucursalID:        c.SucursalID.String(),
		Fecha:             c.Fecha.Format("2006-01-02"),
		SaldoInicial:      c.SaldoInicial,
		Totales:           totalesResponse(totales),
		SaldoEsperado:     cuadre.SaldoEsperado(c.SaldoInicial, totales),
		SaldoReal:         c.SaldoReal,
		Diferencia:        c.Diferencia,
		EstadoFinal:       c.EstadoFinal,
		Estado:            c.Estado,
		Observaciones:     c.Observaciones,
		MotivoCancelacion: c.MotivoCancelacion,
		OpenedAt:          c.OpenedAt.Format(time.RFC3339),
	}
	if c.UsuarioID != nil {
		s := c.UsuarioID.String()
		resp.UsuarioID = &s
	}
	if c.CerradoPor != nil {
		s := c.CerradoPor.String()
		resp.CerradoPor = &s
	}
	if c.FechaCierre != nil {
		s := c.FechaCierre.Format(time.RFC3339)
		resp.FechaCierre = &s
	}
	return resp
}

// hoy truncates to the business day: date only, in the server's local zone,
// so a branch's day rolls over at its own midnight.
func hoy() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
