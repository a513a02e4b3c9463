package service_test

// Shared in-memory repository fakes for the service tests. One store backs
// both the corte and movimiento interfaces so FindByID can attach a corte's
// movements the way the real Preload does.

import (
	"context"
	"errors"
	"sync"
	"time"

	"cajas/internal/model"
	"cajas/internal/repository"

	"github.com/google/uuid"
)

type memStore struct {
	mu          sync.Mutex
	cortes      map[uuid.UUID]*model.Corte
	movimientos []model.Movimiento
}

func newMemStore() *memStore {
	return &memStore{cortes: make(map[uuid.UUID]*model.Corte)}
}

// ── CorteRepository ──────────────────────────────────────────────────────────

func (r *memStore) Create(_ context.Context, c *model.Corte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.OpenedAt = time.Now()
	r.cortes[c.ID] = c
	return nil
}

func (r *memStore) FindByID(_ context.Context, id uuid.UUID) (*model.Corte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cortes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	r.attachMovimientos(c)
	return c, nil
}

func (r *memStore) FindActivo(_ context.Context, ambito string, sucursalID uuid.UUID, usuarioID *uuid.UUID, fecha time.Time) (*model.Corte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cortes {
		if c.Ambito != ambito || c.SucursalID != sucursalID || c.Estado != model.EstadoPendiente {
			continue
		}
		if !c.Fecha.Equal(fecha) {
			continue
		}
		if usuarioID != nil && (c.UsuarioID == nil || *c.UsuarioID != *usuarioID) {
			continue
		}
		r.attachMovimientos(c)
		return c, nil
	}
	return nil, nil
}

func (r *memStore) Update(_ context.Context, c *model.Corte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cortes[c.ID] = c
	return nil
}

func (r *memStore) List(_ context.Context, ambito string, page, limit int) ([]model.Corte, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Corte
	for _, c := range r.cortes {
		if c.Ambito == ambito {
			result = append(result, *c)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memStore) ListCortesUsuarioNoCerrados(_ context.Context, sucursalID uuid.UUID, fecha time.Time) ([]model.Corte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Corte
	for _, c := range r.cortes {
		if c.Ambito == model.AmbitoCorteUsuario && c.SucursalID == sucursalID &&
			c.Fecha.Equal(fecha) && c.Estado != model.EstadoCerrado {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *memStore) ListNotificacionesPendientes(_ context.Context, before time.Time, limit int) ([]model.Corte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Corte
	for _, c := range r.cortes {
		if c.EstadoNotificacion == "pendiente" && c.NextRetryAt != nil && !c.NextRetryAt.After(before) {
			result = append(result, *c)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (r *memStore) attachMovimientos(c *model.Corte) {
	c.Movimientos = nil
	for _, m := range r.movimientos {
		if m.CorteID == c.ID {
			c.Movimientos = append(c.Movimientos, m)
		}
	}
}

// ── MovimientoRepository ─────────────────────────────────────────────────────

func (r *memStore) CreateMovimiento(_ context.Context, m *model.Movimiento) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memStore) FindMovimientoByID(_ context.Context, id uuid.UUID) (*model.Movimiento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movimientos {
		if r.movimientos[i].ID == id {
			m := r.movimientos[i]
			return &m, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memStore) ListMovimientos(_ context.Context, f repository.MovimientoFilter) ([]model.Movimiento, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Movimiento
	for _, m := range r.movimientos {
		if f.CorteID != nil && m.CorteID != *f.CorteID {
			continue
		}
		if f.Tipo != nil && m.Tipo != *f.Tipo {
			continue
		}
		if f.MetodoPago != nil && m.MetodoPago != *f.MetodoPago {
			continue
		}
		if f.Validado != nil && m.Validado != *f.Validado {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (r *memStore) UpdateMovimiento(_ context.Context, m *model.Movimiento) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movimientos {
		if r.movimientos[i].ID == m.ID {
			r.movimientos[i] = *m
			return nil
		}
	}
	return errors.New("not found")
}

// movRepoView adapts memStore to the MovimientoRepository method set, whose
// names collide with the corte ones on the shared store.
type movRepoView struct{ s *memStore }

func (v movRepoView) Create(ctx context.Context, m *model.Movimiento) error {
	return v.s.CreateMovimiento(ctx, m)
}
func (v movRepoView) FindByID(ctx context.Context, id uuid.UUID) (*model.Movimiento, error) {
	return v.s.FindMovimientoByID(ctx, id)
}
func (v movRepoView) List(ctx context.Context, f repository.MovimientoFilter) ([]model.Movimiento, error) {
	return v.s.ListMovimientos(ctx, f)
}
func (v movRepoView) Update(ctx context.Context, m *model.Movimiento) error {
	return v.s.UpdateMovimiento(ctx, m)
}

// ── UsuarioRepository ────────────────────────────────────────────────────────

type memUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newMemUsuarioRepo() *memUsuarioRepo {
	return &memUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *memUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *memUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username && u.Activo {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (r *memUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var result []model.Usuario
	for _, u := range r.usuarios {
		if u.Activo {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *memUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	var result []model.Usuario
	for _, u := range r.usuarios {
		result = append(result, *u)
	}
	return result, nil
}

func (r *memUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

func (r *memUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return errors.New("not found")
	}
	u.Activo = false
	return nil
}

func (r *memUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return errors.New("not found")
	}
	u.Activo = true
	return nil
}

// ── CierreDispatcher ─────────────────────────────────────────────────────────

type fakeDispatcher struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
}

func (d *fakeDispatcher) EnqueueCierre(_ context.Context, corteID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enqueued = append(d.enqueued, corteID)
	return nil
}
