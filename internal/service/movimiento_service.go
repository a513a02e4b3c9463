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
)

// MovimientoService creates ledger entries and applies validation verdicts.
// Entries are immutable once created; only the verdict may change, and only
// while the owning corte is still editable.
type MovimientoService interface {
	Registrar(ctx context.Context, usuarioCreo uuid.UUID, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error)
	Validar(ctx context.Context, movimientoID, autorizadoPor uuid.UUID) (*dto.MovimientoResponse, error)
	Rechazar(ctx context.Context, movimientoID, autorizadoPor uuid.UUID, req dto.RechazarMovimientoRequest) (*dto.MovimientoResponse, error)
	Listar(ctx context.Context, f repository.MovimientoFilter) ([]dto.MovimientoResponse, error)
}

type movimientoService struct {
	movimientos repository.MovimientoRepository
	cortes      repository.CorteRepository
}

func NewMovimientoService(movimientos repository.MovimientoRepository, cortes repository.CorteRepository) MovimientoService {
	return &movimientoService{movimientos: movimientos, cortes: cortes}
}

func (s *movimientoService) Registrar(ctx context.Context, usuarioCreo uuid.UUID, req dto.RegistrarMovimientoRequest) (*dto.MovimientoResponse, error) {
	corteID, err := uuid.Parse(req.CorteID)
	if err != nil {
		return nil, &cuadre.ErrorValidacion{Campo: "corte_id", Detalle: "uuid invalido"}
	}
	if !req.Monto.IsPositive() {
		return nil, &cuadre.ErrorValidacion{Campo: "monto", Detalle: "debe ser mayor a cero"}
	}
	// Policy: non-cash methods need a named authorizer.
	if req.MetodoPago != model.MetodoEfectivo && (req.UsuarioAutorizo == nil || *req.UsuarioAutorizo == "") {
		return nil, &cuadre.ErrorValidacion{Campo: "usuario_autorizo", Detalle: "obligatorio para métodos distintos de efectivo"}
	}

	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return nil, errors.New("corte no encontrado")
	}
	if !corte.Editable() {
		return nil, &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: "registrar movimiento"}
	}

	autorizo, err := parseOptionalUUID(req.UsuarioAutorizo)
	if err != nil {
		return nil, &cuadre.ErrorValidacion{Campo: "usuario_autorizo", Detalle: "uuid invalido"}
	}

	fecha := time.Now()
	if req.FechaTransaccion != nil {
		fecha = *req.FechaTransaccion
	}
	mov := &model.Movimiento{
		CorteID:          corteID,
		Tipo:             req.Tipo,
		Categoria:        req.Categoria,
		MetodoPago:       req.MetodoPago,
		Monto:            req.Monto,
		FechaTransaccion: fecha,
		UsuarioCreo:      usuarioCreo,
		UsuarioAutorizo:  autorizo,
		Validado:         model.ValidadoPendiente,
		Referencia:       req.Referencia,
	}
	if err := s.movimientos.Create(ctx, mov); err != nil {
		return nil, err
	}
	return movimientoResponse(mov), nil
}

func (s *movimientoService) Validar(ctx context.Context, movimientoID, autorizadoPor uuid.UUID) (*dto.MovimientoResponse, error) {
	mov, err := s.movimientos.FindByID(ctx, movimientoID)
	if err != nil {
		return nil, errors.New("movimiento no encontrado")
	}
	if mov.Validado != model.ValidadoPendiente {
		return nil, &cuadre.ErrorEstadoInvalido{Estado: "ya dictaminado", Operacion: "validar"}
	}
	if err := s.corteEditable(ctx, mov.CorteID, "validar movimiento"); err != nil {
		return nil, err
	}

	mov.Validado = model.ValidadoAprobado
	mov.UsuarioAutorizo = &autorizadoPor
	if err := s.movimientos.Update(ctx, mov); err != nil {
		return nil, err
	}
	return movimientoResponse(mov), nil
}

func (s *movimientoService) Rechazar(ctx context.Context, movimientoID, autorizadoPor uuid.UUID, req dto.RechazarMovimientoRequest) (*dto.MovimientoResponse, error) {
	if req.Motivo == "" {
		return nil, &cuadre.ErrorValidacion{Campo: "motivo", Detalle: "obligatorio al rechazar"}
	}
	mov, err := s.movimientos.FindByID(ctx, movimientoID)
	if err != nil {
		return nil, errors.New("movimiento no encontrado")
	}
	if mov.Validado != model.ValidadoPendiente {
		return nil, &cuadre.ErrorEstadoInvalido{Estado: "ya dictaminado", Operacion: "rechazar"}
	}
	if err := s.corteEditable(ctx, mov.CorteID, "rechazar movimiento"); err != nil {
		return nil, err
	}

	mov.Validado = model.ValidadoRechazado
	mov.MotivoRechazo = &req.Motivo
	mov.UsuarioAutorizo = &autorizadoPor
	if err := s.movimientos.Update(ctx, mov); err != nil {
		return nil, err
	}
	return movimientoResponse(mov), nil
}

func (s *movimientoService) Listar(ctx context.Context, f repository.MovimientoFilter) ([]dto.MovimientoResponse, error) {
	movs, err := s.movimientos.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimientoResponse, len(movs))
	for i := range movs {
		resp[i] = *movimientoResponse(&movs[i])
	}
	return resp, nil
}

func (s *movimientoService) corteEditable(ctx context.Context, corteID uuid.UUID, operacion string) error {
	corte, err := s.cortes.FindByID(ctx, corteID)
	if err != nil {
		return errors.New("corte no encontrado")
	}
	if !corte.Editable() {
		return &cuadre.ErrorEstadoInvalido{Estado: corte.Estado, Operacion: operacion}
	}
	return nil
}

func movimientoResponse(m *model.Movimiento) *dto.MovimientoResponse {
	resp := &dto.MovimientoResponse{
		ID:               m.ID.String(),
		CorteID:          m.CorteID.String(),
		Tipo:             m.Tipo,
		Categoria:        m.Categoria,
		MetodoPago:       m.MetodoPago,
		Monto:            m.Monto,
		FechaTransaccion: m.FechaTransaccion.Format(time.RFC3339),
		UsuarioCreo:      m.UsuarioCreo.String(),
		Validado:         m.Validado,
		MotivoRechazo:    m.MotivoRechazo,
		Referencia:       m.Referencia,
	}
	if m.UsuarioAutorizo != nil {
		s := m.UsuarioAutorizo.String()
		resp.UsuarioAutorizo = &s
	}
	return resp
}
