package repository

import (
	"context"
	"time"

	"cajas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoFilter narrows listings; nil fields are ignored.
type MovimientoFilter struct {
	CorteID    *uuid.UUID
	Tipo       *string
	MetodoPago *string
	Validado   *int16
	Desde      *time.Time
	Hasta      *time.Time
}

type MovimientoRepository interface {
	Create(ctx context.Context, m *model.Movimiento) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Movimiento, error)
	List(ctx context.Context, f MovimientoFilter) ([]model.Movimiento, error)
	// Update persists a validation verdict. Amount, method and direction are
	// immutable; the service never changes them after Create.
	Update(ctx context.Context, m *model.Movimiento) error
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository { return &movimientoRepo{db: db} }

func (r *movimientoRepo) Create(ctx context.Context, m *model.Movimiento) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Movimiento, error) {
	var m model.Movimiento
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *movimientoRepo) List(ctx context.Context, f MovimientoFilter) ([]model.Movimiento, error) {
	q := r.db.WithContext(ctx).Model(&model.Movimiento{})
	if f.CorteID != nil {
		q = q.Where("corte_id = ?", *f.CorteID)
	}
	if f.Tipo != nil {
		q = q.Where("tipo = ?", *f.Tipo)
	}
	if f.MetodoPago != nil {
		q = q.Where("metodo_pago = ?", *f.MetodoPago)
	}
	if f.Validado != nil {
		q = q.Where("validado = ?", *f.Validado)
	}
	if f.Desde != nil {
		q = q.Where("fecha_transaccion >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("fecha_transaccion < ?", *f.Hasta)
	}
	var movs []model.Movimiento
	err := q.Order("fecha_transaccion ASC").Find(&movs).Error
	return movs, err
}

func (r *movimientoRepo) Update(ctx context.Context, m *model.Movimiento) error {
	return r.db.WithContext(ctx).Save(m).Error
}
