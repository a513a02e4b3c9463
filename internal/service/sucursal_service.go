package service

import (
	"context"
	"errors"

	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/repository"

	"github.com/google/uuid"
)

type SucursalService interface {
	Crear(ctx context.Context, req dto.CrearSucursalRequest) (*dto.SucursalResponse, error)
	Listar(ctx context.Context) ([]dto.SucursalResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarSucursalRequest) (*dto.SucursalResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type sucursalService struct {
	repo repository.SucursalRepository
}

func NewSucursalService(repo repository.SucursalRepository) SucursalService {
	return &sucursalService{repo: repo}
}

func (s *sucursalService) Crear(ctx context.Context, req dto.CrearSucursalRequest) (*dto.SucursalResponse, error) {
	sucursal := &model.Sucursal{
		Nombre:    req.Nombre,
		Direccion: req.Direccion,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, sucursal); err != nil {
		return nil, err
	}
	return sucursalResponse(sucursal), nil
}

func (s *sucursalService) Listar(ctx context.Context) ([]dto.SucursalResponse, error) {
	sucursales, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SucursalResponse, len(sucursales))
	for i := range sucursales {
		resp[i] = *sucursalResponse(&sucursales[i])
	}
	return resp, nil
}

func (s *sucursalService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarSucursalRequest) (*dto.SucursalResponse, error) {
	sucursal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("sucursal no encontrada")
	}
	if req.Nombre != "" {
		sucursal.Nombre = req.Nombre
	}
	if req.Direccion != nil {
		sucursal.Direccion = req.Direccion
	}
	if err := s.repo.Update(ctx, sucursal); err != nil {
		return nil, err
	}
	return sucursalResponse(sucursal), nil
}

func (s *sucursalService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func sucursalResponse(s *model.Sucursal) *dto.SucursalResponse {
	return &dto.SucursalResponse{
		ID:        s.ID.String(),
		Nombre:    s.Nombre,
		Direccion: s.Direccion,
		Activo:    s.Activo,
	}
}
