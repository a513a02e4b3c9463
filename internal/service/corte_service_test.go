package service_test

import (
	"context"
	"testing"
	"time"

	"cajas/internal/cuadre"
	"cajas/internal/dto"
	"cajas/internal/model"
	"cajas/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// seedMovimiento inserts a movement directly into the store, bypassing the
// service, so tests can control the validation verdict.
func seedMovimiento(t *testing.T, store *memStore, corteID uuid.UUID, tipo, metodo, monto string, validado int16) {
	t.Helper()
	err := store.CreateMovimiento(context.Background(), &model.Movimiento{
		CorteID:          corteID,
		Tipo:             tipo,
		Categoria:        "venta_dia",
		MetodoPago:       metodo,
		Monto:            d(monto),
		FechaTransaccion: time.Now(),
		UsuarioCreo:      uuid.New(),
		Validado:         validado,
	})
	require.NoError(t, err)
}

func abrirCorte(t *testing.T, svc service.CorteService, usuarioID, sucursalID uuid.UUID, saldoInicial string) uuid.UUID {
	t.Helper()
	resp, err := svc.Abrir(context.Background(), usuarioID, dto.AbrirCorteRequest{
		SucursalID:   sucursalID.String(),
		SaldoInicial: d(saldoInicial),
	})
	require.NoError(t, err)
	id, err := uuid.Parse(resp.CorteID)
	require.NoError(t, err)
	return id
}

func TestAbrirCorte_RechazaSegundoAbierto(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	usuarioID, sucursalID := uuid.New(), uuid.New()

	abrirCorte(t, svc, usuarioID, sucursalID, "1000")

	_, err := svc.Abrir(context.Background(), usuarioID, dto.AbrirCorteRequest{
		SucursalID:   sucursalID.String(),
		SaldoInicial: d("500"),
	})
	var conflicto *cuadre.ErrorConflicto
	require.ErrorAs(t, err, &conflicto)
}

func TestAbrirCorte_SaldoInicialNegativo(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCorteRequest{
		SucursalID:   uuid.New().String(),
		SaldoInicial: d("-1"),
	})
	var validacion *cuadre.ErrorValidacion
	require.ErrorAs(t, err, &validacion)
	assert.Equal(t, "saldo_inicial", validacion.Campo)
}

func TestCerrarCorte_SoloMovimientosAprobados(t *testing.T) {
	store := newMemStore()
	dispatcher := &fakeDispatcher{}
	svc := service.NewCorteService(store, dispatcher, decimal.Zero)
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "15000")

	seedMovimiento(t, store, corteID, model.TipoIngreso, model.MetodoEfectivo, "20450", model.ValidadoAprobado)
	seedMovimiento(t, store, corteID, model.TipoEgreso, model.MetodoEfectivo, "8200", model.ValidadoAprobado)
	// Pending and rejected entries must not move the expected balance.
	seedMovimiento(t, store, corteID, model.TipoIngreso, model.MetodoTarjeta, "999", model.ValidadoPendiente)
	seedMovimiento(t, store, corteID, model.TipoEgreso, model.MetodoEfectivo, "500", model.ValidadoRechazado)

	resp, err := svc.Cerrar(context.Background(), corteID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("27250")},
	})
	require.NoError(t, err)

	assert.True(t, resp.SaldoEsperado.Equal(d("27250")), "esperado = 15000 + 20450 - 8200")
	assert.True(t, resp.Diferencia.IsZero())
	assert.Equal(t, model.CuadreCuadrada, resp.EstadoFinal)
	assert.Equal(t, model.EstadoCerrado, resp.Estado)
	assert.Len(t, dispatcher.enqueued, 1)
}

func TestCerrarCorte_FaltanteEsPositivo(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "1000")

	// Counted 100 short of the expected 1000.
	resp, err := svc.Cerrar(context.Background(), corteID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("900")},
	})
	require.NoError(t, err)

	assert.True(t, resp.Diferencia.Equal(d("100")), "faltante must be positive")
	assert.Equal(t, model.CuadreConDiferencia, resp.EstadoFinal)
}

func TestCerrarCorte_ToleranciaInclusiva(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, d("100"))
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "30750")

	resp, err := svc.Cerrar(context.Background(), corteID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("30650")},
	})
	require.NoError(t, err)

	// |diferencia| == tolerancia counts as CUADRADA.
	assert.True(t, resp.Diferencia.Equal(d("100")))
	assert.Equal(t, model.CuadreCuadrada, resp.EstadoFinal)
}

func TestCerrarCorte_YaCerrado(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "1000")

	req := dto.CerrarCorteRequest{Conteo: dto.ConteoCapturado{Efectivo: d("1000")}}
	_, err := svc.Cerrar(context.Background(), corteID, uuid.New(), req)
	require.NoError(t, err)

	_, err = svc.Cerrar(context.Background(), corteID, uuid.New(), req)
	var estado *cuadre.ErrorEstadoInvalido
	require.ErrorAs(t, err, &estado)
	assert.Equal(t, model.EstadoCerrado, estado.Estado)
}

func TestCancelarCorte_ReabreParaCorreccion(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "1000")

	_, err := svc.Cerrar(context.Background(), corteID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("900")},
	})
	require.NoError(t, err)

	err = svc.Cancelar(context.Background(), corteID, dto.CancelarCorteRequest{Motivo: "conteo equivocado"})
	require.NoError(t, err)

	corte, err := store.FindByID(context.Background(), corteID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCancelado, corte.Estado)
	require.NotNil(t, corte.MotivoCancelacion)
	assert.True(t, corte.Editable())

	// A cancelled corte accepts a fresh close.
	resp, err := svc.Cerrar(context.Background(), corteID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("1000")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.CuadreCuadrada, resp.EstadoFinal)
}

func TestCancelarCorte_SoloCerrados(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "1000")

	err := svc.Cancelar(context.Background(), corteID, dto.CancelarCorteRequest{Motivo: "no aplica todavia"})
	var estado *cuadre.ErrorEstadoInvalido
	require.ErrorAs(t, err, &estado)
}

// The generic corte operations only drive drawer cuts; a caja general ID must
// not slip past them, or a cajero could close the branch master account with
// zero tolerance and without the open-drawer-cut guard.
func TestCerrarCorte_RechazaOtrosAmbitos(t *testing.T) {
	store := newMemStore()
	usuarios := newMemUsuarioRepo()
	corteSvc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	generalSvc := service.NewCajaGeneralService(store, usuarios, movRepoView{store}, &fakeDispatcher{}, d("100"))
	sucursalID := uuid.New()

	generalID := abrirCajaGeneral(t, generalSvc, sucursalID, "5000")
	abrirCorte(t, corteSvc, uuid.New(), sucursalID, "1000") // drawer cut still open

	_, err := corteSvc.Cerrar(context.Background(), generalID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("5000")},
	})
	var validacion *cuadre.ErrorValidacion
	require.ErrorAs(t, err, &validacion)

	general, err := store.FindByID(context.Background(), generalID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPendiente, general.Estado)
}

func TestCancelarCorte_RechazaOtrosAmbitos(t *testing.T) {
	store := newMemStore()
	usuarios := newMemUsuarioRepo()
	corteSvc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	generalSvc := service.NewCajaGeneralService(store, usuarios, movRepoView{store}, &fakeDispatcher{}, d("100"))

	generalID := abrirCajaGeneral(t, generalSvc, uuid.New(), "5000")
	_, err := generalSvc.Cerrar(context.Background(), generalID, uuid.New(), dto.CerrarCorteRequest{
		Conteo: dto.ConteoCapturado{Efectivo: d("5000")},
	})
	require.NoError(t, err)

	err = corteSvc.Cancelar(context.Background(), generalID, dto.CancelarCorteRequest{Motivo: "no corresponde"})
	var validacion *cuadre.ErrorValidacion
	require.ErrorAs(t, err, &validacion)

	general, err := store.FindByID(context.Background(), generalID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCerrado, general.Estado)
}

func TestPrecuadre_NoCierraElCorte(t *testing.T) {
	store := newMemStore()
	svc := service.NewCorteService(store, &fakeDispatcher{}, decimal.Zero)
	corteID := abrirCorte(t, svc, uuid.New(), uuid.New(), "500")

	seedMovimiento(t, store, corteID, model.TipoIngreso, model.MetodoEfectivo, "250", model.ValidadoAprobado)

	resp, err := svc.Precuadre(context.Background(), corteID)
	require.NoError(t, err)
	assert.True(t, resp.SaldoEsperado.Equal(d("750")))
	assert.Equal(t, model.EstadoPendiente, resp.Estado)

	corte, err := store.FindByID(context.Background(), corteID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPendiente, corte.Estado)
	assert.Nil(t, corte.SaldoReal)
}
