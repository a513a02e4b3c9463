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

type CajaGeneralHandler struct{ svc service.CajaGeneralService }

func NewCajaGeneralHandler(svc service.CajaGeneralService) *CajaGeneralHandler {
	return &CajaGeneralHandler{svc: svc}
}

// Abrir godoc
// @Summary Abre la caja general del día para la sucursal
// @Tags caja-general
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCorteRequest true "Saldo inicial"
// @Success 201 {object} dto.PrecuadreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja-general/abrir [post]
func (h *CajaGeneralHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCorteRequest
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

func (h *CajaGeneralHandler) Activa(c *gin.Context) {
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
		c.JSON(http.StatusNotFound, apierror.New("Sin caja general abierta"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaGeneralHandler) Precuadre(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Precuadre(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Cierra la caja general; bloqueado mientras haya cortes de usuario abiertos
// @Tags caja-general
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja general"
// @Param body body dto.CerrarCorteRequest true "Conteo capturado"
// @Success 200 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja-general/{id}/cerrar [post]
func (h *CajaGeneralHandler) Cerrar(c *gin.Context) {
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

func (h *CajaGeneralHandler) Cancelar(c *gin.Context) {
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

func (h *CajaGeneralHandler) Historial(c *gin.Context) {
	page, limit := paginacion(c)
	resp, total, err := h.svc.Historial(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}
