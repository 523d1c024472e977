package handler

import (
	"net/http"

	"pharmacy-backend/internal/middleware"
	"pharmacy-backend/internal/service"
	"pharmacy-backend/pkg/pagination"
	"pharmacy-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MedicineHandler struct {
	catalogService service.CatalogService
	importService  service.ImportService
}

func NewMedicineHandler(catalogService service.CatalogService, importService service.ImportService) *MedicineHandler {
	return &MedicineHandler{catalogService: catalogService, importService: importService}
}

func (h *MedicineHandler) RegisterRoutes(router *gin.RouterGroup) {
	medicines := router.Group("/api", middleware.RequireDoctor())
	{
		medicines.GET("/medicines", h.ListMedicines)
		medicines.POST("/medicines", h.AddMedicine)
		medicines.PUT("/medicines/:id", h.UpdateMedicine)
		medicines.DELETE("/medicines/:id", h.ArchiveMedicine)
		medicines.POST("/medicines/import/validate", h.ValidateImport)
		medicines.POST("/medicines/import", h.SubmitImport)
	}
}

// ListMedicines handles retrieving a doctor's paginated medicine catalog
// @Summary      List medicines
// @Description  Retrieves a stable page of the doctor's catalog ordered by name ascending
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by medicine name"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/medicines [get]
func (h *MedicineHandler) ListMedicines(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	search := c.Query("search")

	medicines, total, err := h.catalogService.ListMedicines(c.Request.Context(), doctorID, params.Page, params.Limit, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, medicines, params.Meta(total)))
}

// AddMedicine creates a new catalog entry
// @Summary      Add medicine
// @Description  Creates a medicine; the name must be unique per doctor case-insensitively
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMedicineRequest  true  "Create Medicine Payload"
// @Success      201      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/medicines [post]
func (h *MedicineHandler) AddMedicine(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	var req service.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	medicine, err := h.catalogService.AddMedicine(c.Request.Context(), doctorID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, medicine))
}

// UpdateMedicine updates an existing medicine's details
// @Summary      Update medicine
// @Description  Updates price, stock, tax rates or name of an existing medicine
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Medicine ID"
// @Param        payload  body      service.UpdateMedicineRequest  true  "Update Medicine Payload"
// @Success      200      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/medicines/{id} [put]
func (h *MedicineHandler) UpdateMedicine(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	var req service.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	medicine, err := h.catalogService.UpdateMedicine(c.Request.Context(), doctorID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}

// ArchiveMedicine soft-archives a medicine
// @Summary      Archive medicine
// @Description  Archives a medicine; historical orders keep referencing it
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/medicines/{id} [delete]
func (h *MedicineHandler) ArchiveMedicine(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	if err := h.catalogService.ArchiveMedicine(c.Request.Context(), doctorID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Medicine archived successfully"))
}

type importRequest struct {
	Rows []service.BulkRow `json:"rows" binding:"required,min=1"`
}

// ValidateImport checks an inventory sheet without applying it
// @Summary      Validate bulk import
// @Description  Validates each row independently; errors carry 1-based source row numbers
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      importRequest  true  "Rows to validate"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/medicines/import/validate [post]
func (h *MedicineHandler) ValidateImport(c *gin.Context) {
	if _, ok := doctorIDFrom(c); !ok {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rowErrors := h.importService.ValidateBatch(req.Rows)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"valid_count": len(req.Rows) - len(rowErrors),
		"errors":      rowErrors,
	}))
}

// SubmitImport applies an inventory sheet as insert-or-reject per row
// @Summary      Submit bulk import
// @Description  Inserts new medicines and rejects duplicates per row; partial success is the normal outcome
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      importRequest  true  "Rows to import"
// @Success      200      {object}  response.Response{data=service.ImportResult}
// @Failure      400      {object}  response.Response
// @Router       /api/medicines/import [post]
func (h *MedicineHandler) SubmitImport(c *gin.Context) {
	doctorID, ok := doctorIDFrom(c)
	if !ok {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.importService.SubmitBatch(c.Request.Context(), doctorID, req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
