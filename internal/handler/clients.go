package handler

import (
	"net/http"
	"strconv"

	"petzap/internal/dto"
	"petzap/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientsHandler struct {
	catalog service.CatalogService
	sales   service.SaleService
}

func NewClientsHandler(catalog service.CatalogService, sales service.SaleService) *ClientsHandler {
	return &ClientsHandler{catalog: catalog, sales: sales}
}

// Search godoc
// @Summary Busca clientes por nome ou WhatsApp
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param q query string false "Nome ou telefone"
// @Success 200 {array} dto.ClientResponse
// @Router /v1/clientes [get]
func (h *ClientsHandler) Search(c *gin.Context) {
	resp, err := h.catalog.SearchClients(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Pets godoc
// @Summary Lista os pets de um cliente
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do cliente"
// @Success 200 {array} dto.PetResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/clientes/{id}/pets [get]
func (h *ClientsHandler) Pets(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.catalog.ListPets(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sales godoc
// @Summary Histórico de compras pagas do cliente
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do cliente"
// @Param periodo query string false "30d | 90d | 12m | all"
// @Param pet_id query string false "Filtra por pet"
// @Param metodo query string false "cash | pix | credit | debit"
// @Success 200 {object} dto.ClientSalesResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/clientes/{id}/vendas [get]
func (h *ClientsHandler) Sales(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var filter dto.ClientSalesFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.sales.ListByClient(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Inactive godoc
// @Summary Clientes sem compra nem interação no período
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param dias query int false "Dias de inatividade (padrão 30)"
// @Success 200 {array} dto.InactiveClientResponse
// @Router /v1/clientes/inativos [get]
func (h *ClientsHandler) Inactive(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("dias", "30"))
	resp, err := h.catalog.InactiveClients(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Campaign godoc
// @Summary Dispara a campanha de reativação para clientes inativos
// @Tags clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CampaignRequest true "Período e clientes"
// @Success 202 {object} dto.CampaignResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/clientes/inativos/campanha [post]
func (h *ClientsHandler) Campaign(c *gin.Context) {
	var req dto.CampaignRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.catalog.LaunchInactivityCampaign(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}
