//go:build integration

package router_test

// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
//
// Covered flows:
//   - login → abrir corte → registrar movimiento → validar → precuadre → cerrar
//   - cerrar con faltante → CON_DIFERENCIA → cancelar → re-cerrar
//   - caja chica: abrir fondo → gasto → conflicto de segunda apertura

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cajas/internal/config"
	"cajas/internal/infra"
	"cajas/internal/model"
	"cajas/internal/router"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	token      string // admin JWT
	sucursalID string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("cajas_test"),
		tcPostgres.WithUsername("cajas"),
		tcPostgres.WithPassword("cajas"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                  8000,
		Env:                   "test",
		JWTSecret:             "test-secret-key",
		JWTExpirationHours:    8,
		JWTRefreshHours:       24,
		DatabaseURL:           pgURL,
		RedisURL:              rdURL,
		ToleranciaCorte:       "0",
		ToleranciaCajaChica:   "0",
		ToleranciaCajaGeneral: "100",
		WorkerPoolSize:        1,
		PDFStoragePath:        t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("cajas2026"), bcrypt.DefaultCost)
	require.NoError(t, err)
	admin := &model.Usuario{
		Username:     "admin.e2e",
		Nombre:       "Admin E2E",
		PasswordHash: string(hash),
		Rol:          "administrador",
		Activo:       true,
	}
	require.NoError(t, db.Create(admin).Error)

	webhookCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := router.New(cfg, db, rdb, webhookCB)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "cajas2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	// Create a branch for the flows
	sucResp := do(t, srv, "POST", "/v1/sucursales",
		jsonBody(t, map[string]any{"nombre": "Sucursal Centro"}),
		loginBody.AccessToken,
	)
	require.Equal(t, http.StatusCreated, sucResp.StatusCode)
	var suc struct {
		ID string `json:"id"`
	}
	decodeJSON(t, sucResp, &suc)

	return &testEnv{server: srv, token: loginBody.AccessToken, sucursalID: suc.ID}
}

func abrirCorteHTTP(t *testing.T, env *testEnv, saldoInicial string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/cortes/abrir",
		jsonBody(t, map[string]any{
			"sucursal_id":   env.sucursalID,
			"saldo_inicial": saldoInicial,
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		CorteID string `json:"corte_id"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.CorteID)
	return body.CorteID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CicloCorteCompleto(t *testing.T) {
	env := setupTestEnv(t)

	corteID := abrirCorteHTTP(t, env, "15000")

	// Register a cash income
	movResp := do(t, env.server, "POST", "/v1/movimientos",
		jsonBody(t, map[string]any{
			"corte_id":    corteID,
			"tipo":        "ingreso",
			"categoria":   "venta_dia",
			"metodo_pago": "efectivo",
			"monto":       "20450",
		}), env.token)
	require.Equal(t, http.StatusCreated, movResp.StatusCode)
	var mov struct {
		ID       string `json:"id"`
		Validado int16  `json:"validado"`
	}
	decodeJSON(t, movResp, &mov)
	assert.Equal(t, int16(0), mov.Validado) // nace pendiente

	// Approve it
	valResp := do(t, env.server, "POST", "/v1/movimientos/"+mov.ID+"/validar", nil, env.token)
	require.Equal(t, http.StatusOK, valResp.StatusCode)
	valResp.Body.Close()

	// An expense, also approved
	egResp := do(t, env.server, "POST", "/v1/movimientos",
		jsonBody(t, map[string]any{
			"corte_id":    corteID,
			"tipo":        "egreso",
			"categoria":   "retiro_efectivo",
			"metodo_pago": "efectivo",
			"monto":       "8200",
		}), env.token)
	require.Equal(t, http.StatusCreated, egResp.StatusCode)
	var eg struct {
		ID string `json:"id"`
	}
	decodeJSON(t, egResp, &eg)
	valResp = do(t, env.server, "POST", "/v1/movimientos/"+eg.ID+"/validar", nil, env.token)
	require.Equal(t, http.StatusOK, valResp.StatusCode)
	valResp.Body.Close()

	// Live preview: 15000 + 20450 - 8200 = 27250
	preResp := do(t, env.server, "GET", "/v1/cortes/"+corteID+"/precuadre", nil, env.token)
	require.Equal(t, http.StatusOK, preResp.StatusCode)
	var pre struct {
		SaldoEsperado decimal.Decimal `json:"saldo_esperado"`
		Estado        string          `json:"estado"`
	}
	decodeJSON(t, preResp, &pre)
	assert.True(t, pre.SaldoEsperado.Equal(decimal.RequireFromString("27250")))
	assert.Equal(t, "pendiente", pre.Estado)

	// Close with an exact count
	cerrarResp := do(t, env.server, "POST", "/v1/cortes/"+corteID+"/cerrar",
		jsonBody(t, map[string]any{
			"conteo": map[string]any{"efectivo": "27250"},
		}), env.token)
	require.Equal(t, http.StatusOK, cerrarResp.StatusCode)
	var cierre struct {
		Diferencia  decimal.Decimal `json:"diferencia"`
		EstadoFinal string          `json:"estado_final"`
	}
	decodeJSON(t, cerrarResp, &cierre)
	assert.True(t, cierre.Diferencia.IsZero())
	assert.Equal(t, "CUADRADA", cierre.EstadoFinal)

	// A closed corte rejects further movements
	lateResp := do(t, env.server, "POST", "/v1/movimientos",
		jsonBody(t, map[string]any{
			"corte_id":    corteID,
			"tipo":        "ingreso",
			"categoria":   "venta_dia",
			"metodo_pago": "efectivo",
			"monto":       "1",
		}), env.token)
	assert.Equal(t, http.StatusConflict, lateResp.StatusCode)
	lateResp.Body.Close()
}

func TestE2E_FaltanteYCancelacion(t *testing.T) {
	env := setupTestEnv(t)

	corteID := abrirCorteHTTP(t, env, "1000")

	// Count 100 short → faltante positivo, CON_DIFERENCIA
	cerrarResp := do(t, env.server, "POST", "/v1/cortes/"+corteID+"/cerrar",
		jsonBody(t, map[string]any{
			"conteo": map[string]any{"efectivo": "900"},
		}), env.token)
	require.Equal(t, http.StatusOK, cerrarResp.StatusCode)
	var cierre struct {
		Diferencia  decimal.Decimal `json:"diferencia"`
		EstadoFinal string          `json:"estado_final"`
	}
	decodeJSON(t, cerrarResp, &cierre)
	assert.True(t, cierre.Diferencia.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, "CON_DIFERENCIA", cierre.EstadoFinal)

	// Supervisor voids the close to correct the count
	cancelResp := do(t, env.server, "POST", "/v1/cortes/"+corteID+"/cancelar",
		jsonBody(t, map[string]any{"motivo": "conteo equivocado"}), env.token)
	require.Equal(t, http.StatusNoContent, cancelResp.StatusCode)
	cancelResp.Body.Close()

	// Fresh close with the right count
	cerrarResp = do(t, env.server, "POST", "/v1/cortes/"+corteID+"/cerrar",
		jsonBody(t, map[string]any{
			"conteo": map[string]any{"efectivo": "1000"},
		}), env.token)
	require.Equal(t, http.StatusOK, cerrarResp.StatusCode)
	decodeJSON(t, cerrarResp, &cierre)
	assert.Equal(t, "CUADRADA", cierre.EstadoFinal)
}

func TestE2E_CajaChicaFondoUnico(t *testing.T) {
	env := setupTestEnv(t)

	abrirResp := do(t, env.server, "POST", "/v1/caja-chica/abrir",
		jsonBody(t, map[string]any{
			"sucursal_id": env.sucursalID,
			"fondo_fijo":  "2000",
		}), env.token)
	require.Equal(t, http.StatusCreated, abrirResp.StatusCode)
	abrirResp.Body.Close()

	// Second open for the same branch conflicts
	dupResp := do(t, env.server, "POST", "/v1/caja-chica/abrir",
		jsonBody(t, map[string]any{
			"sucursal_id": env.sucursalID,
			"fondo_fijo":  "2000",
		}), env.token)
	assert.Equal(t, http.StatusConflict, dupResp.StatusCode)
	dupResp.Body.Close()

	// Expense against the open fund
	gastoResp := do(t, env.server, "POST", "/v1/caja-chica/gastos",
		jsonBody(t, map[string]any{
			"sucursal_id": env.sucursalID,
			"monto":       "350",
		}), env.token)
	require.Equal(t, http.StatusCreated, gastoResp.StatusCode)
	var gasto struct {
		Tipo      string `json:"tipo"`
		Categoria string `json:"categoria"`
	}
	decodeJSON(t, gastoResp, &gasto)
	assert.Equal(t, "egreso", gasto.Tipo)
	assert.Equal(t, "gasto_administrativo", gasto.Categoria)
}
