package handler

import (
	"net/http"

	"petzap/internal/apierror"
	"petzap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler serves employees, pet plans and the pet-ready action.
type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler { return &CatalogHandler{svc: svc} }

// Employees godoc
// @Summary Funcionários ativos (para comissão)
// @Tags funcionarios
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.EmployeeResponse
// @Router /v1/funcionarios [get]
func (h *CatalogHandler) Employees(c *gin.Context) {
	resp, err := h.svc.ListEmployees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PetPlan godoc
// @Summary Plano de banhos ativo do pet
// @Tags pets
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pet"
// @Param client_id query string true "ID do cliente"
// @Success 200 {object} dto.PlanResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/pets/{id}/plano [get]
func (h *CatalogHandler) PetPlan(c *gin.Context) {
	petID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	clientID, err := uuid.Parse(c.Query("client_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("client_id inválido"))
		return
	}
	resp, err := h.svc.ActivePlan(c.Request.Context(), clientID, petID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkReady godoc
// @Summary Marca o pet como pronto e avisa o tutor
// @Tags agendamentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do agendamento"
// @Success 200 {object} dto.AppointmentResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/agendamentos/{id}/pronto [patch]
func (h *CatalogHandler) MarkReady(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.MarkPetReady(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
