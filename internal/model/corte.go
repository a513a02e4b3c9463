package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ambito identifies which cash flow a Corte belongs to.
const (
	AmbitoCorteUsuario = "corte_usuario"
	AmbitoCajaChica    = "caja_chica"
	AmbitoCajaGeneral  = "caja_general"
)

// Estado: "pendiente" | "cerrado" | "cancelado"
// Only "cerrado" is immutable; a cancelled corte re-enters the editable path.
const (
	EstadoPendiente = "pendiente"
	EstadoCerrado   = "cerrado"
	EstadoCancelado = "cancelado"
)

// EstadoFinal classification computed on close.
const (
	CuadreCuadrada      = "CUADRADA"
	CuadreConDiferencia = "CON_DIFERENCIA"
)

// Corte represents one reconciliation period: a user's daily drawer cut,
// a petty-cash fund cycle, or the branch master account for a business day.
// At most one corte may be "pendiente" per (ambito, sucursal, usuario, fecha);
// the partial unique indexes in infra/database.go back that invariant.
type Corte struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Ambito     string     `gorm:"type:varchar(20);not null;index"`
	SucursalID uuid.UUID  `gorm:"type:uuid;not null;index"`
	// UsuarioID is the drawer owner; nil for caja_chica / caja_general.
	UsuarioID    *uuid.UUID      `gorm:"type:uuid;index"`
	Fecha        time.Time       `gorm:"type:date;not null;index"`
	SaldoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// SaldoEsperado is derived on close: SaldoInicial + ingresos - egresos
	SaldoEsperado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SaldoReal     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Per-method counted totals captured at close
	TotalEfectivoCapturado      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalTarjetaCapturado       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalTransferenciaCapturado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Diferencia = SaldoEsperado - SaldoReal; positivo = faltante
	Diferencia  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	EstadoFinal *string          `gorm:"type:varchar(20)"`
	Estado      string           `gorm:"type:varchar(20);not null;default:'pendiente'"`

	Observaciones     *string
	CerradoPor        *uuid.UUID `gorm:"type:uuid"`
	FechaCierre       *time.Time
	MotivoCancelacion *string

	// Downstream notification bookkeeping (retry cron)
	// EstadoNotificacion: "" | "pendiente" | "enviada" | "error"
	EstadoNotificacion string `gorm:"type:varchar(20);default:''"`
	RetryCount         int    `gorm:"not null;default:0"`
	NextRetryAt        *time.Time
	LastError          *string

	OpenedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time

	Movimientos []Movimiento `gorm:"foreignKey:CorteID"`
}

// Editable reports whether movements and closes may still touch this corte.
// A cancelled corte is editable again until it is re-closed.
func (c *Corte) Editable() bool {
	return c.Estado != EstadoCerrado
}
