package handler

import (
	"net/http"
	"strconv"
	"time"

	"cajas/internal/apierror"
	"cajas/internal/dto"
	"cajas/internal/middleware"
	"cajas/internal/repository"
	"cajas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MovimientosHandler struct{ svc service.MovimientoService }

func NewMovimientosHandler(svc service.MovimientoService) *MovimientosHandler {
	return &MovimientosHandler{svc: svc}
}

// Registrar godoc
// @Summary Registra un ingreso o egreso en un corte abierto
// @Tags movimientos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarMovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/movimientos [post]
func (h *MovimientosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Registrar(c.Request.Context(), usuarioID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Validar approves a pending movement so it counts toward the expected balance.
func (h *MovimientosHandler) Validar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	autorizadoPor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Validar(c.Request.Context(), id, autorizadoPor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Rechazar rejects a pending movement; the amount never enters the ledger.
func (h *MovimientosHandler) Rechazar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.RechazarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	autorizadoPor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Rechazar(c.Request.Context(), id, autorizadoPor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar filters movements by corte, tipo, metodo_pago, validado and date range.
func (h *MovimientosHandler) Listar(c *gin.Context) {
	filter, err := filtroDeQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func filtroDeQuery(c *gin.Context) (repository.MovimientoFilter, error) {
	var f repository.MovimientoFilter

	if v := c.Query("corte_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, err
		}
		f.CorteID = &id
	}
	if v := c.Query("tipo"); v != "" {
		f.Tipo = &v
	}
	if v := c.Query("metodo_pago"); v != "" {
		f.MetodoPago = &v
	}
	if v := c.Query("validado"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, err
		}
		validado := int16(n)
		f.Validado = &validado
	}
	if v := c.Query("desde"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.Desde = &t
	}
	if v := c.Query("hasta"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.Hasta = &t
	}
	return f, nil
}
