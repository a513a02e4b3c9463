package repository

import (
	"context"
	"errors"
	"time"

	"cajas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CorteRepository interface {
	Create(ctx context.Context, c *model.Corte) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Corte, error)
	// FindActivo returns the single pendiente corte for the key, or (nil, nil)
	// when none exists. usuarioID is nil for caja_chica / caja_general.
	FindActivo(ctx context.Context, ambito string, sucursalID uuid.UUID, usuarioID *uuid.UUID, fecha time.Time) (*model.Corte, error)
	Update(ctx context.Context, c *model.Corte) error
	List(ctx context.Context, ambito string, page, limit int) ([]model.Corte, int64, error)
	// ListCortesUsuarioNoCerrados lists the drawer cuts of a branch+day that
	// would block a caja general close.
	ListCortesUsuarioNoCerrados(ctx context.Context, sucursalID uuid.UUID, fecha time.Time) ([]model.Corte, error)
	// ListNotificacionesPendientes feeds the retry cron.
	ListNotificacionesPendientes(ctx context.Context, before time.Time, limit int) ([]model.Corte, error)
}

type corteRepo struct{ db *gorm.DB }

func NewCorteRepository(db *gorm.DB) CorteRepository { return &corteRepo{db: db} }

func (r *corteRepo) Create(ctx context.Context, c *model.Corte) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *corteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Corte, error) {
	var c model.Corte
	err := r.db.WithContext(ctx).Preload("Movimientos").First(&c, id).Error
	return &c, err
}

func (r *corteRepo) FindActivo(ctx context.Context, ambito string, sucursalID uuid.UUID, usuarioID *uuid.UUID, fecha time.Time) (*model.Corte, error) {
	q := r.db.WithContext(ctx).
		Where("ambito = ? AND sucursal_id = ? AND fecha = ? AND estado = ?",
			ambito, sucursalID, fecha.Format("2006-01-02"), model.EstadoPendiente)
	if usuarioID != nil {
		q = q.Where("usuario_id = ?", *usuarioID)
	}
	var c model.Corte
	err := q.Preload("Movimientos").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *corteRepo) Update(ctx context.Context, c *model.Corte) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *corteRepo) List(ctx context.Context, ambito string, page, limit int) ([]model.Corte, int64, error) {
	var cortes []model.Corte
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Corte{}).Where("ambito = ?", ambito)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("fecha DESC, opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cortes).Error
	return cortes, total, err
}

func (r *corteRepo) ListCortesUsuarioNoCerrados(ctx context.Context, sucursalID uuid.UUID, fecha time.Time) ([]model.Corte, error) {
	var cortes []model.Corte
	err := r.db.WithContext(ctx).
		Where("ambito = ? AND sucursal_id = ? AND fecha = ? AND estado <> ?",
			model.AmbitoCorteUsuario, sucursalID, fecha.Format("2006-01-02"), model.EstadoCerrado).
		Order("opened_at ASC").
		Find(&cortes).Error
	return cortes, err
}

func (r *corteRepo) ListNotificacionesPendientes(ctx context.Context, before time.Time, limit int) ([]model.Corte, error) {
	var cortes []model.Corte
	err := r.db.WithContext(ctx).
		Where("estado_notificacion = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			"pendiente", before).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&cortes).Error
	return cortes, err
}
