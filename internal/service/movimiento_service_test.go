package service_test

import (
	"context"
	"testing"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/repository"
	"cajas/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMovimientos(t *testing.T) (*memStore, service.MovimientoService, uuid.UUID) {
	t.Helper()
	store := newMemStore()
	corteSvc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, corteSvc, uuid.New(), uuid.New(), "1000")
	return store, service.NewMovimientoService(movRepoView{store}, store), corteID
}

func TestRegistrarMovimiento_NaceSinValidar(t *testing.T) {
	_, svc, corteID := setupMovimientos(t)

	resp, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:    corteID.String(),
		Tipo:       model.TipoIngreso,
		Categoria:  "venta_dia",
		MetodoPago: model.MetodoEfectivo,
		Monto:      d("150.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ValidadoPendiente, resp.Validado)
	assert.True(t, resp.Monto.Equal(d("150.50")))
}

func TestRegistrarMovimiento_MontoNoPositivo(t *testing.T) {
	_, svc, corteID := setupMovimientos(t)

	_, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:    corteID.String(),
		Tipo:       model.TipoEgreso,
		Categoria:  "retiro",
		MetodoPago: model.MetodoEfectivo,
		Monto:      decimal.Zero,
	})
	var validacion *cuadre.ErrorValidacion
	require.ErrorAs(t, err, &validacion)
	assert.Equal(t, "monto", validacion.Campo)
}

func TestRegistrarMovimiento_TarjetaRequiereAutorizador(t *testing.T) {
	_, svc, corteID := setupMovimientos(t)

	_, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:    corteID.String(),
		Tipo:       model.TipoIngreso,
		Categoria:  "venta_dia",
		MetodoPago: model.MetodoTarjeta,
		Monto:      d("100"),
	})
	var validacion *cuadre.ErrorValidacion
	require.ErrorAs(t, err, &validacion)
	assert.Equal(t, "usuario_autorizo", validacion.Campo)

	autorizo := uuid.New().String()
	_, err = svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:         corteID.String(),
		Tipo:            model.TipoIngreso,
		Categoria:       "venta_dia",
		MetodoPago:      model.MetodoTarjeta,
		Monto:           d("100"),
		UsuarioAutorizo: &autorizo,
	})
	require.NoError(t, err)
}

func TestRegistrarMovimiento_CorteCerradoEsInmutable(t *testing.T) {
	store := newMemStore()
	corteSvc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, corteSvc, uuid.New(), uuid.New(), "1000")
	svc := service.NewMovimientoService(movRepoView{store}, store)

	_, err := corteSvc.Cerrar(context.Background(), corteID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("1000")},
	})
	require.NoError(t, err)

	_, err = svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:    corteID.String(),
		Tipo:       model.TipoIngreso,
		Categoria:  "venta_dia",
		MetodoPago: model.MetodoEfectivo,
		Monto:      d("50"),
	})
	var estado *cuadre.ErrorEstadoInvalido
	require.ErrorAs(t, err, &estado)
}

func TestValidarMovimiento_DictamenUnico(t *testing.T) {
	_, svc, corteID := setupMovimientos(t)

	mov, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:    corteID.String(),
		Tipo:       model.TipoIngreso,
		Categoria:  "venta_dia",
		MetodoPago: model.MetodoEfectivo,
		Monto:      d("75"),
	})
	require.NoError(t, err)
	movID, _ := uuid.Parse(mov.ID)
	supervisor := uuid.New()

	aprobado, err := svc.Validar(context.Background(), movID, supervisor)
	require.NoError(t, err)
	assert.Equal(t, model.ValidadoAprobado, aprobado.Validado)
	require.NotNil(t, aprobado.UsuarioAutorizo)
	assert.Equal(t, supervisor.String(), *aprobado.UsuarioAutorizo)

	// A verdict is final; re-validating or rejecting afterwards fails.
	_, err = svc.Validar(context.Background(), movID, supervisor)
	var estado *cuadre.ErrorEstadoInvalido
	require.ErrorAs(t, err, &estado)

	_, err = svc.Rechazar(context.Background(), movID, supervisor, dto.RechazarMovimientoRequest{Motivo: "duplicado"})
	require.ErrorAs(t, err, &estado)
}

func TestRechazarMovimiento_GuardaMotivo(t *testing.T) {
	store, svc, corteID := setupMovimientos(t)

	mov, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
		CorteID:    corteID.String(),
		Tipo:       model.TipoEgreso,
		Categoria:  "retiro",
		MetodoPago: model.MetodoEfectivo,
		Monto:      d("300"),
	})
	require.NoError(t, err)
	movID, _ := uuid.Parse(mov.ID)

	rechazado, err := svc.Rechazar(context.Background(), movID, uuid.New(), dto.RechazarMovimientoRequest{Motivo: "sin comprobante"})
	require.NoError(t, err)
	assert.Equal(t, model.ValidadoRechazado, rechazado.Validado)
	require.NotNil(t, rechazado.MotivoRechazo)
	assert.Equal(t, "sin comprobante", *rechazado.MotivoRechazo)

	// The rejected amount never reaches the ledger.
	corte, err := store.FindByID(context.Background(), corteID)
	require.NoError(t, err)
	totales := cuadre.Agregar(corte.Movimientos)
	assert.True(t, totales.Egresos.IsZero())
}

func TestListarMovimientos_Filtros(t *testing.T) {
	_, svc, corteID := setupMovimientos(t)

	for _, tipo := range []string{model.TipoIngreso, model.TipoIngreso, model.TipoEgreso} {
		_, err := svc.Registrar(context.Background(), uuid.New(), dto.RegistrarMovimientoRequest{
			CorteID:    corteID.String(),
			Tipo:       tipo,
			Categoria:  "venta_dia",
			MetodoPago: model.MetodoEfectivo,
			Monto:      d("10"),
		})
		require.NoError(t, err)
	}

	tipo := model.TipoIngreso
	result, err := svc.Listar(context.Background(), repository.MovimientoFilter{CorteID: &corteID, Tipo: &tipo})
	require.NoError(t, err)
	assert.Len(t, result, 2)
}
