package service

import (
	"context"
	"errors"
	"fmt"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CajaGeneralService manages the branch master account. It does not own the
// day's drawer movements directly: closed user cuts are folded in as
// validated ingresos (by the cierre worker), and direct movements (bank
// deposits, administrative expenses) are recorded against it like any corte.
// It cannot close while any drawer cut of the branch+day is still open.
type CajaGeneralService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCorteRequest) (*dto.PrecuadreResponse, error)
	Activa(ctx context.Context, sucursalID uuid.UUID) (*dto.CorteResponse, error)
	Precuadre(ctx context.Context, corteID uuid.UUID) (*dto.PrecuadreResponse, error)
	Cerrar(ctx context.Context, corteID, cerradoPor uuid.UUID, req dto.CerrarCorteRequest) (*dto.CierreResponse, error)
	Cancelar(ctx context.Context, corteID uuid.UUID, req dto.CancelarCorteRequest) error
	Historial(ctx context.Context, page, limit int) ([]dto.CorteResponse, int64, error)
	// IncorporarCorte folds a closed drawer cut into the branch's active
	// caja general, opening one implicitly when none exists yet. Called by
	// the cierre worker, never by a handler.
	IncorporarCorte(ctx context.Context, corte *model.Corte) error
}

type cajaGeneralService struct {
	cortes      repository.CorteRepository
	usuarios    repository.UsuarioRepository
	movimientos repository.MovimientoRepository
	dispatcher  CierreDispatcher
	tolerancia  decimal.Decimal
}

func NewCajaGeneralService(
	cortes repository.CorteRepository,
	usuarios repository.UsuarioRepository,
	movimientos repository.MovimientoRepository,
	dispatcher CierreDispatcher,
	tolerancia decimal.Decimal,
) CajaGeneralService {
	return &cajaGeneralService{
		cortes:      cortes,
		usuarios:    usuarios,
		movimientos: movimientos,
		dispatcher:  dispatcher,
		tolerancia:  tolerancia,
	}
}

func (s *cajaGeneralService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCorteRequest) (*dto.PrecuadreResponse, error) {
	sucursalID, err := uuid.Parse(req.SucursalID)
	if err != nil {
		return nil, &cuadre.ErrorValidacion{Campo: "sucursal_id", Detalle: "uuid invalido"}
	}
	if req.SaldoInicial.IsNegative() {
		return nil, &cuadre.ErrorValidacion{Campo: "saldo_inicial", Detalle: "no puede ser negativo"}
	}

	existente, err := s.cortes.FindActivo(ctx, model.AmbitoCajaGeneral, sucursalID, nil, hoy())
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, &cuadre.ErrorConflicto{Detalle: "ya existe una caja general abierta en esta sucursal"}
	}

	corte := &model.Corte{
		Ambito:       model.AmbitoCajaGeneral,
		SucursalID:   sucursalID,
		Fecha:        hoy(),
		SaldoInicial: req.SaldoInicial,
		Estado:       model.EstadoPendiente,
	}
	if err := s.cortes.Create(ctx, corte); err != nil {
		return nil, err
	}
	return precuadreResponse(corte), nil
}

func (s *cajaGeneralService) Activa(ctx context.Context, sucursalID uuid.UUID) (*dto.CorteResponse, error) {
	corte, err := s.cortes.FindActivo(ctx, model.AmbitoCajaGeneral, sucursalID, nil, hoy())
	if err != nil {
		return nil, err
	}
	if corte == nil {
		return nil, nil
	}
	return corteResponse(corte), nil
}

func (s *cajaGeneralService) Precuadre(ctx context.Context, corteID uuid.UUID) (*dto.PrecuadreResponse, error) {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("caja general no encontrada")
	}
	return precuadreResponse(corte), nil
}

func (s *cajaGeneralService) Cerrar(ctx context.Context, corteID, cerradoPor uuid.UUID, req dto.CerrarCorteRequest) (*dto.CierreResponse, error) {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("caja general no encontrada")
	}
	if corte.Ambito != model.AmbitoCajaGeneral {
		return nil, &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "no es una caja general"}
	}
	if !corte.Editable() {
		return nil, &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "cerrar"}
	}

	// Guard: every drawer cut of the branch+day must be closed first.
	abiertos, err := s.cortes.ListCortesUsuarioNoCerrados(ctx, corte.SucursalID, corte.Fecha)
	if err != nil {
		return nil, err
	}
	if len(abiertos) > 0 {
		return nil, &cuadre.ErrorBloqueado{Dependencia: s.nombreDueno(ctx, &abiertos[0])}
	}

	aplicarCierre(corte, req.Conteo, req.Observaciones, &cerradoPor, s.tolerancia)
	if err := s.cortes.Update(ctx, corte); err != nil {
		return nil, err
	}
	_ = s.dispatcher.EnqueueCierre(ctx, corte.ID)
	return cierreResponse(corte), nil
}

func (s *cajaGeneralService) Cancelar(ctx context.Context, corteID uuid.UUID, req dto.CancelarCorteRequest) error {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return errors.New("caja general no encontrada")
	}
	if corte.Ambito != model.AmbitoCajaGeneral {
		return &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "no es una caja general"}
	}
	if corte.Estado != model.EstadoCerrado {
		return &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "cancelar"}
	}
	corte.Estado = model.EstadoCancelado
	corte.MotivoCancelacion = &req.Motivo
	return s.cortes.Update(ctx, corte)
}

func (s *cajaGeneralService) Historial(ctx context.Context, page, limit int) ([]dto.CorteResponse, int64, error) {
	cortes, total, err := s.cortes.List(ctx, model.AmbitoCajaGeneral, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.CorteResponse, len(cortes))
	for i := range cortes {
		resp[i] = *corteResponse(&cortes[i])
	}
	return resp, total, nil
}

func (s *cajaGeneralService) IncorporarCorte(ctx context.Context, origen *model.Corte) error {
	if origen.Ambito != model.AmbitoCorteUsuario || origen.Estado != model.EstadoCerrado {
		return &cuadre.ErrorEstadoInvalido{Estado: origen.Estado, Operacion: "incorporar a caja general"}
	}

	general, err := s.cortes.FindActivo(ctx, model.AmbitoCajaGeneral, origen.SucursalID, nil, origen.Fecha)
	if err != nil {
		return err
	}
	if general == nil {
		// Implicit open: the first folded cut creates the day's caja general.
		general = &model.Corte{
			Ambito:       model.AmbitoCajaGeneral,
			SucursalID:   origen.SucursalID,
			Fecha:        origen.Fecha,
			SaldoInicial: decimal.Zero,
			Estado:       model.EstadoPendiente,
		}
		if err := s.cortes.Create(ctx, general); err != nil {
			return err
		}
	}

	// Idempotent fold: a cancel/re-close cycle enqueues the cierre job again,
	// so the same drawer cut may arrive twice. The referencia carries the
	// origin corte ID; an existing entry is superseded, never duplicated.
	ref := origen.ID.String()
	for i := range general.Movimientos {
		m := &general.Movimientos[i]
		if m.Referencia == nil || *m.Referencia != ref {
			continue
		}
		if m.Monto.Equal(*origen.SaldoReal) {
			return nil
		}
		m.Monto = *origen.SaldoReal
		m.FechaTransaccion = *origen.FechaCierre
		m.UsuarioAutorizo = origen.CerradoPor
		return s.movimientos.Update(ctx, m)
	}

	creadoPor := origen.CerradoPor
	if creadoPor == nil {
		creadoPor = origen.UsuarioID
	}
	mov := &model.Movimiento{
		CorteID:          general.ID,
		Tipo:             model.TipoIngreso,
		Categoria:        "corte_usuario",
		MetodoPago:       model.MetodoEfectivo,
		Monto:            *origen.SaldoReal,
		FechaTransaccion: *origen.FechaCierre,
		UsuarioCreo:      *creadoPor,
		UsuarioAutorizo:  origen.CerradoPor,
		Validado:         model.ValidadoAprobado,
		Referencia:       &ref,
	}
	return s.movimientos.Create(ctx, mov)
}

func (s *cajaGeneralService) nombreDueno(ctx context.Context, corte *model.Corte) string {
	if corte.UsuarioID == nil {
		return "corte " + corte.ID.String()
	}
	u, err := s.usuarios.FindByID(ctx, *corte.UsuarioID)
	if err != nil {
		return fmt.Sprintf("usuario %s", corte.UsuarioID)
	}
	return u.Nombre
}
