package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipo de movimiento.
const (
	TipoIngreso = "ingreso"
	TipoEgreso  = "egreso"
)

// Metodos de pago.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTarjeta       = "tarjeta"
	MetodoTransferencia = "transferencia"
	MetodoDeposito      = "deposito"
)

// Validado is a tri-state verdict; only approved entries count toward totals.
const (
	ValidadoPendiente int16 = 0
	ValidadoAprobado  int16 = 1
	ValidadoRechazado int16 = 2
)

// Movimiento is a single immutable ledger entry inside a Corte.
// The amount, method and direction never change after creation; only the
// validation verdict (and its authorizer / rejection reason) may be set.
type Movimiento struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CorteID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo      string    `gorm:"type:varchar(10);not null"`
	// Categoria is a reporting tag ("corte_usuario", "deposito_bancario",
	// "gasto_administrativo", ...); it plays no role in the arithmetic.
	Categoria  string          `gorm:"type:varchar(40);not null"`
	MetodoPago string          `gorm:"type:varchar(20);not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	FechaTransaccion time.Time `gorm:"not null"`
	UsuarioCreo      uuid.UUID `gorm:"type:uuid;not null"`
	// UsuarioAutorizo is required by policy for non-cash methods.
	UsuarioAutorizo *uuid.UUID `gorm:"type:uuid"`

	Validado      int16   `gorm:"not null;default:0"`
	MotivoRechazo *string // mandatory when Validado = rechazado
	// Referencia links to a related record (e.g. the corte folded into caja general)
	Referencia *string

	CreatedAt time.Time
}
