package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"cajas/internal/apierror"
	"cajas/internal/dto"
	"cajas/internal/middleware"
	"cajas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CorteHandler struct {
	svc            service.CorteService
	pdfStoragePath string
}

func NewCorteHandler(svc service.CorteService, pdfStoragePath string) *CorteHandler {
	return &CorteHandler{svc: svc, pdfStoragePath: pdfStoragePath}
}

// Abrir godoc
// @Summary Abre el corte de caja diario del usuario autenticado
// @Tags cortes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCorteRequest true "Datos de apertura"
// @Success 201 {object} dto.PrecuadreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cortes/abrir [post]
func (h *CorteHandler) Abrir(c *gin.Context) {
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

// Activo returns the authenticated user's open corte for today.
func (h *CorteHandler) Activo(c *gin.Context) {
	claims := middleware.GetClaims(c)
	usuarioID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	sucursalID, err := sucursalDeContexto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("sucursal_id requerido"))
		return
	}
	resp, err := h.svc.Activo(c.Request.Context(), usuarioID, sucursalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("Sin corte abierto"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Precuadre godoc
// @Summary Saldo esperado en vivo del corte, sin cerrarlo
// @Tags cortes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del corte"
// @Success 200 {object} dto.PrecuadreResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cortes/{id}/precuadre [get]
func (h *CorteHandler) Precuadre(c *gin.Context) {
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
// @Summary Cierra el corte contra el conteo físico capturado
// @Tags cortes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del corte"
// @Param body body dto.CerrarCorteRequest true "Conteo capturado"
// @Success 200 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cortes/{id}/cerrar [post]
func (h *CorteHandler) Cerrar(c *gin.Context) {
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

// Cancelar voids a closed corte so movements can be corrected and the corte
// re-closed. Supervisor and admin only (enforced at the route).
func (h *CorteHandler) Cancelar(c *gin.Context) {
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

// Reporte returns the full corte with its movement listing.
func (h *CorteHandler) Reporte(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Reporte(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReportePDF serves the reconciliation sheet the cierre worker rendered at
// close time. 404 while the corte is still open or the job has not run yet.
func (h *CorteHandler) ReportePDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	path := filepath.Join(h.pdfStoragePath, fmt.Sprintf("corte_%s.pdf", id))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Reporte PDF no disponible"))
		return
	}
	c.FileAttachment(path, fmt.Sprintf("corte_%s.pdf", id))
}

// Historial returns a paginated list of drawer cuts.
func (h *CorteHandler) Historial(c *gin.Context) {
	page, limit := paginacion(c)
	resp, total, err := h.svc.Historial(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}

// sucursalDeContexto resolves the branch: the JWT claim wins, the query
// param is a fallback for admins without a home branch.
func sucursalDeContexto(c *gin.Context) (uuid.UUID, error) {
	claims := middleware.GetClaims(c)
	if claims.SucursalID != nil && *claims.SucursalID != "" {
		return uuid.Parse(*claims.SucursalID)
	}
	return uuid.Parse(c.Query("sucursal_id"))
}

func paginacion(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
