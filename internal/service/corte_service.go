package service

import (
	"context"
	"errors"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CorteService drives the per-user daily drawer reconciliation.
type CorteService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCorteRequest) (*dto.PrecuadreResponse, error)
	// Activo returns the user's open corte for today, or nil when none exists.
	Activo(ctx context.Context, usuarioID uuid.UUID, sucursalID uuid.UUID) (*dto.CorteResponse, error)
	Precuadre(ctx context.Context, corteID uuid.UUID) (*dto.PrecuadreResponse, error)
	Cerrar(ctx context.Context, corteID, cerradoPor uuid.UUID, req dto.CerrarCorteRequest) (*dto.CierreResponse, error)
	Cancelar(ctx context.Context, corteID uuid.UUID, req dto.CancelarCorteRequest) error
	Reporte(ctx context.Context, corteID uuid.UUID) (*dto.CorteResponse, error)
	Historial(ctx context.Context, page, limit int) ([]dto.CorteResponse, int64, error)
}

type corteService struct {
	cortes     repository.CorteRepository
	dispatcher CierreDispatcher
	tolerancia decimal.Decimal
}

func NewCorteService(cortes repository.CorteRepository, dispatcher CierreDispatcher, tolerancia decimal.Decimal) CorteService {
	return &corteService{cortes: cortes, dispatcher: dispatcher, tolerancia: tolerancia}
}

func (s *corteService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCorteRequest) (*dto.PrecuadreResponse, error) {
	sucursalID, err := uuid.Parse(req.SucursalID)
	if err != nil {
		return nil, &cuadre.ErrorValidacion{Campo: "sucursal_id", Detalle: "uuid invalido"}
	}
	if req.SaldoInicial.IsNegative() {
		return nil, &cuadre.ErrorValidacion{Campo: "saldo_inicial", Detalle: "no puede ser negativo"}
	}

	fecha := hoy()
	// App-level guard; the partial unique index enforces this under races.
	existente, err := s.cortes.FindActivo(ctx, model.AmbitoCorteUsuario, sucursalID, &usuarioID, fecha)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, &cuadre.ErrorConflicto{Detalle: "ya existe un corte de caja abierto para este usuario"}
	}

	corte := &model.Corte{
		Ambito:       model.AmbitoCorteUsuario,
		SucursalID:   sucursalID,
		UsuarioID:    &usuarioID,
		Fecha:        fecha,
		SaldoInicial: req.SaldoInicial,
		Estado:       model.EstadoPendiente,
	}
	if err := s.cortes.Create(ctx, corte); err != nil {
		return nil, err
	}
	return precuadreResponse(corte), nil
}

func (s *corteService) Activo(ctx context.Context, usuarioID uuid.UUID, sucursalID uuid.UUID) (*dto.CorteResponse, error) {
	corte, err := s.cortes.FindActivo(ctx, model.AmbitoCorteUsuario, sucursalID, &usuarioID, hoy())
	if err != nil {
		return nil, err
	}
	if corte == nil {
		return nil, nil
	}
	return corteResponse(corte), nil
}

func (s *corteService) Precuadre(ctx context.Context, corteID uuid.UUID) (*dto.PrecuadreResponse, error) {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("corte no encontrado")
	}
	return precuadreResponse(corte), nil
}

func (s *corteService) Cerrar(ctx context.Context, corteID, cerradoPor uuid.UUID, req dto.CerrarCorteRequest) (*dto.CierreResponse, error) {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("corte no encontrado")
	}
	if corte.Ambito != model.AmbitoCorteUsuario {
		return nil, &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "no es un corte de usuario"}
	}
	if !corte.Editable() {
		return nil, &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "cerrar"}
	}

	aplicarCierre(corte, req.Conteo, req.Observaciones, &cerradoPor, s.tolerancia)
	if err := s.cortes.Update(ctx, corte); err != nil {
		return nil, err
	}

	if err := s.dispatcher.EnqueueCierre(ctx, corte.ID); err != nil {
		// Cierre already persisted; the retry cron will deliver the
		// notification even if the enqueue failed.
		return cierreResponse(corte), nil
	}
	return cierreResponse(corte), nil
}

func (s *corteService) Cancelar(ctx context.Context, corteID uuid.UUID, req dto.CancelarCorteRequest) error {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return errors.New("corte no encontrado")
	}
	if corte.Ambito != model.AmbitoCorteUsuario {
		return &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "no es un corte de usuario"}
	}
	if corte.Estado != model.EstadoCerrado {
		return &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "cancelar"}
	}
	if req.Motivo == "" {
		return &cuadre.ErrorValidacion{Campo: "motivo", Detalle: "obligatorio para cancelar"}
	}

	// Cancelling reopens the corte: movements may be recorded again and the
	// corte re-closed. Derived closing fields are kept for audit until the
	// next close overwrites them.
	corte.Estado = model.EstadoCancelado
	corte.MotivoCancelacion = &req.Motivo
	return s.cortes.Update(ctx, corte)
}

func (s *corteService) Reporte(ctx context.Context, corteID uuid.UUID) (*dto.CorteResponse, error) {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("corte no encontrado")
	}
	return corteResponse(corte), nil
}

func (s *corteService) Historial(ctx context.Context, page, limit int) ([]dto.CorteResponse, int64, error) {
	cortes, total, err := s.cortes.List(ctx, model.AmbitoCorteUsuario, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.CorteResponse, len(cortes))
	for i := range cortes {
		resp[i] = *corteResponse(&cortes[i])
	}
	return resp, total, nil
}
