package service

import (
	"context"
	"errors"
	"time"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CajaChicaService manages the branch petty-cash fund: a fixed fund is
// opened per cycle, expenses draw it down, reposiciones top it back up, and
// the cycle closes against a physical count like any other corte.
type CajaChicaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaChicaRequest) (*dto.PrecuadreResponse, error)
	Activa(ctx context.Context, sucursalID uuid.UUID) (*dto.CorteResponse, error)
	RegistrarGasto(ctx context.Context, usuarioID uuid.UUID, req dto.GastoCajaChicaRequest) (*dto.MovimientoResponse, error)
	RegistrarReposicion(ctx context.Context, usuarioID uuid.UUID, req dto.ReposicionCajaChicaRequest) (*dto.MovimientoResponse, error)
	Cerrar(ctx context.Context, corteID, cerradoPor uuid.UUID, req dto.CerrarCorteRequest) (*dto.CierreResponse, error)
	Cancelar(ctx context.Context, corteID uuid.UUID, req dto.CancelarCorteRequest) error
	Historial(ctx context.Context, page, limit int) ([]dto.CorteResponse, int64, error)
}

type cajaChicaService struct {
	cortes      repository.CorteRepository
	movimientos MovimientoService
	dispatcher  CierreDispatcher
	tolerancia  decimal.Decimal
}

func NewCajaChicaService(cortes repository.CorteRepository, movimientos MovimientoService, dispatcher CierreDispatcher, tolerancia decimal.Decimal) CajaChicaService {
	return &cajaChicaService{cortes: cortes, movimientos: movimientos, dispatcher: dispatcher, tolerancia: tolerancia}
}

func (s *cajaChicaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaChicaRequest) (*dto.PrecuadreResponse, error) {
	sucursalID, err := uuid.Parse(req.SucursalID)
	if err != nil {
		return nil, &cuadre.ErrorValidacion{Campo: "sucursal_id", Detalle: "uuid invalido"}
	}
	if !req.FondoFijo.IsPositive() {
		return nil, &cuadre.ErrorValidacion{Campo: "fondo_fijo", Detalle: "debe ser mayor a cero"}
	}

	existente, err := s.cortes.FindActivo(ctx, model.AmbitoCajaChica, sucursalID, nil, hoy())
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, &cuadre.ErrorConflicto{Detalle: "ya existe una caja chica abierta en esta sucursal"}
	}

	corte := &model.Corte{
		Ambito:       model.AmbitoCajaChica,
		SucursalID:   sucursalID,
		Fecha:        hoy(),
		SaldoInicial: req.FondoFijo,
		Estado:       model.EstadoPendiente,
	}
	if err := s.cortes.Create(ctx, corte); err != nil {
		return nil, err
	}
	return precuadreResponse(corte), nil
}

func (s *cajaChicaService) Activa(ctx context.Context, sucursalID uuid.UUID) (*dto.CorteResponse, error) {
	corte, err := s.cortes.FindActivo(ctx, model.AmbitoCajaChica, sucursalID, nil, hoy())
	if err != nil {
		return nil, err
	}
	if corte == nil {
		return nil, nil
	}
	return corteResponse(corte), nil
}

func (s *cajaChicaService) RegistrarGasto(ctx context.Context, usuarioID uuid.UUID, req dto.GastoCajaChicaRequest) (*dto.MovimientoResponse, error) {
	corte, err := s.activa(ctx, req.SucursalID)
	if err != nil {
		return nil, err
	}
	categoria := req.Categoria
	if categoria == "" {
		categoria = "gasto_administrativo"
	}
	now := time.Now()
	return s.movimientos.Registrar(ctx, usuarioID, dto.RegistrarMovimientoRequest{
		CorteID:          corte.ID.String(),
		Tipo:             model.TipoEgreso,
		Categoria:        categoria,
		MetodoPago:       model.MetodoEfectivo,
		Monto:            req.Monto,
		FechaTransaccion: &now,
		Referencia:       req.Referencia,
	})
}

func (s *cajaChicaService) RegistrarReposicion(ctx context.Context, usuarioID uuid.UUID, req dto.ReposicionCajaChicaRequest) (*dto.MovimientoResponse, error) {
	corte, err := s.activa(ctx, req.SucursalID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return s.movimientos.Registrar(ctx, usuarioID, dto.RegistrarMovimientoRequest{
		CorteID:          corte.ID.String(),
		Tipo:             model.TipoIngreso,
		Categoria:        "reposicion_fondo",
		MetodoPago:       req.MetodoPago,
		Monto:            req.Monto,
		FechaTransaccion: &now,
		UsuarioAutorizo:  req.UsuarioAutorizo,
		Referencia:       req.Referencia,
	})
}

func (s *cajaChicaService) Cerrar(ctx context.Context, corteID, cerradoPor uuid.UUID, req dto.CerrarCorteRequest) (*dto.CierreResponse, error) {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("caja chica no encontrada")
	}
	if corte.Ambito != model.AmbitoCajaChica {
		return nil, &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "no es una caja chica"}
	}
	if !corte.Editable() {
		return nil, &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "cerrar"}
	}

	aplicarCierre(corte, req.Conteo, req.Observaciones, &cerradoPor, s.tolerancia)
	if err := s.cortes.Update(ctx, corte); err != nil {
		return nil, err
	}
	_ = s.dispatcher.EnqueueCierre(ctx, corte.ID)
	return cierreResponse(corte), nil
}

func (s *cajaChicaService) Cancelar(ctx context.Context, corteID uuid.UUID, req dto.CancelarCorteRequest) error {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return errors.New("caja chica no encontrada")
	}
	if corte.Ambito != model.AmbitoCajaChica {
		return &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "no es una caja chica"}
	}
	if corte.Estado != model.EstadoCerrado {
		return &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "cancelar"}
	}
	corte.Estado = model.EstadoCancelado
	corte.MotivoCancelacion = &req.Motivo
	return s.cortes.Update(ctx, corte)
}

func (s *cajaChicaService) Historial(ctx context.Context, page, limit int) ([]dto.CorteResponse, int64, error) {
	cortes, total, err := s.cortes.List(ctx, model.AmbitoCajaChica, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.CorteResponse, len(cortes))
	for i := range cortes {
		resp[i] = *corteResponse(&cortes[i])
	}
	return resp, total, nil
}

func (s *cajaChicaService) activa(ctx context.Context, sucursal string) (*model.Corte, error) {
	sucursalID, err := uuid.Parse(sucursal)
	if err != nil {
		return nil, &cuadre.ErrorValidacion{Campo: "sucursal_id", Detalle: "uuid invalido"}
	}
	corte, err := s.cortes.FindActivo(ctx, model.AmbitoCajaChica, sucursalID, nil, hoy())
	if err != nil {
		return nil, err
	}
	if corte == nil {
		return nil, errors.New("no hay caja chica abierta en esta sucursal")
	}
	return corte, nil
}
