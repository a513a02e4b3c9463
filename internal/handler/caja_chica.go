package handler

import (
	"net/http"

	"cajas/internal/apierror"
	"cajas/internal/dto"
	"cajas/internal/middleware"
	"cajas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaChicaHandler struct{ svc service.CajaChicaService }

func NewCajaChicaHandler(svc service.CajaChicaService) *CajaChicaHandler {
	return &CajaChicaHandler{svc: svc}
}

// Abrir godoc
// @Summary Abre un ciclo de caja chica con su fondo fijo
// @Tags caja-chica
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaChicaRequest true "Fondo fijo"
// @Success 201 {object} dto.PrecuadreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja-chica/abrir [post]
func (h *CajaChicaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaChicaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Abrir(c.Request.Context(), usuarioID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Activa returns the branch's open petty-cash cycle.
func (h *CajaChicaHandler) Activa(c *gin.Context) {
	sucursalID, err := sucursalDeContexto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("sucursal_id requerido"))
		return
	}
	resp, err := h.svc.Activa(c.Request.Context(), sucursalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("Sin caja chica abierta"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarGasto records a petty-cash expense against the active cycle.
func (h *CajaChicaHandler) RegistrarGasto(c *gin.Context) {
	var req dto.GastoCajaChicaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegistrarGasto(c.Request.Context(), usuarioID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarReposicion tops the fund back up.
func (h *CajaChicaHandler) RegistrarReposicion(c *gin.Context) {
	var req dto.ReposicionCajaChicaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegistrarReposicion(c.Request.Context(), usuarioID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar closes the cycle against the physical count.
func (h *CajaChicaHandler) Cerrar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.CerrarCorteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	cerradoPor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Cerrar(c.Request.Context(), id, cerradoPor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaChicaHandler) Cancelar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.CancelarCorteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), id, req); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CajaChicaHandler) Historial(c *gin.Context) {
	page, limit := paginacion(c)
	resp, total, err := h.svc.Historial(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}
