package service_test

import (
	"context"
	"testing"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCajaChica(t *testing.T) (*memStore, service.CajaChicaService) {
	t.Helper()
	store := newMemStore()
	movSvc := service.NewMovimientoService(movRepoView{store}, store)
	svc := service.NewCajaChicaService(store, movSvc, &fakeDispatcher{}, decimal.Zero)
	return store, svc
}

func TestAbrirCajaChica_FondoFijoPositivo(t *testing.T) {
	_, svc := setupCajaChica(t)

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaChicaRequest{
		SucursalID: uuid.New().String(),
		FondoFijo:  decimal.Zero,
	})
	var validacion *cuadre.ErrorValidacion
	require.ErrorAs(t, err, &validacion)
	assert.Equal(t, "fondo_fijo", validacion.Campo)
}

func TestAbrirCajaChica_UnaPorSucursal(t *testing.T) {
	_, svc := setupCajaChica(t)
	sucursalID := uuid.New()

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaChicaRequest{
		SucursalID: sucursalID.String(),
		FondoFijo:  d("2000"),
	})
	require.NoError(t, err)

	_, err = svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaChicaRequest{
		SucursalID: sucursalID.String(),
		FondoFijo:  d("2000"),
	})
	var conflicto *cuadre.ErrorConflicto
	require.ErrorAs(t, err, &conflicto)
}

func TestRegistrarGasto_EgresoEfectivoPendiente(t *testing.T) {
	_, svc := setupCajaChica(t)
	sucursalID := uuid.New()

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaChicaRequest{
		SucursalID: sucursalID.String(),
		FondoFijo:  d("2000"),
	})
	require.NoError(t, err)

	resp, err := svc.RegistrarGasto(context.Background(), uuid.New(), dto.GastoCajaChicaRequest{
		SucursalID: sucursalID.String(),
		Monto:      d("350"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TipoEgreso, resp.Tipo)
	assert.Equal(t, model.MetodoEfectivo, resp.MetodoPago)
	assert.Equal(t, "gasto_administrativo", resp.Categoria)
	assert.Equal(t, model.ValidadoPendiente, resp.Validado)
}

func TestRegistrarGasto_SinCajaAbierta(t *testing.T) {
	_, svc := setupCajaChica(t)

	_, err := svc.RegistrarGasto(context.Background(), uuid.New(), dto.GastoCajaChicaRequest{
		SucursalID: uuid.New().String(),
		Monto:      d("100"),
	})
	require.Error(t, err)
}

func TestRegistrarReposicion_Ingreso(t *testing.T) {
	_, svc := setupCajaChica(t)
	sucursalID := uuid.New()

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaChicaRequest{
		SucursalID: sucursalID.String(),
		FondoFijo:  d("2000"),
	})
	require.NoError(t, err)

	autorizo := uuid.New().String()
	resp, err := svc.RegistrarReposicion(context.Background(), uuid.New(), dto.ReposicionCajaChicaRequest{
		SucursalID:      sucursalID.String(),
		Monto:           d("500"),
		MetodoPago:      model.MetodoTransferencia,
		UsuarioAutorizo: &autorizo,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TipoIngreso, resp.Tipo)
	assert.Equal(t, "reposicion_fondo", resp.Categoria)
}

func TestCerrarCajaChica_CicloCompleto(t *testing.T) {
	store, svc := setupCajaChica(t)
	sucursalID := uuid.New()

	abierta, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaChicaRequest{
		SucursalID: sucursalID.String(),
		FondoFijo:  d("2000"),
	})
	require.NoError(t, err)
	cicloID, _ := uuid.Parse(abierta.CorteID)

	gasto, err := svc.RegistrarGasto(context.Background(), uuid.New(), dto.GastoCajaChicaRequest{
		SucursalID: sucursalID.String(),
		Monto:      d("350"),
	})
	require.NoError(t, err)

	// Approve the expense so it draws down the expected balance.
	movSvc := service.NewMovimientoService(movRepoView{store}, store)
	gastoID, _ := uuid.Parse(gasto.ID)
	_, err = movSvc.Validar(context.Background(), gastoID, uuid.New())
	require.NoError(t, err)

	resp, err := svc.Cerrar(context.Background(), cicloID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("1650")},
	})
	require.NoError(t, err)
	assert.True(t, resp.SaldoEsperado.Equal(d("1650")), "2000 - 350")
	assert.True(t, resp.Diferencia.IsZero())
	assert.Equal(t, model.CuadreCuadrada, resp.EstadoFinal)
}
