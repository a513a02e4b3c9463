package model

import (
	"time"

	"github.com/google/uuid"
)

// Sucursal is a branch office. Caja chica and caja general are scoped per
// sucursal; user drawer cuts belong to a sucursal through their owner.
type Sucursal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"uniqueIndex;not null"`
	Direccion *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
