package handler

import (
	"net/http"

	"petzap/internal/dto"
	"petzap/internal/service"

	"github.com/gin-gonic/gin"
)

type CartsHandler struct{ svc service.CartService }

func NewCartsHandler(svc service.CartService) *CartsHandler { return &CartsHandler{svc: svc} }

// Create godoc
// @Summary Abre um carrinho vazio
// @Tags carrinhos
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.CartResponse
// @Router /v1/carrinhos [post]
func (h *CartsHandler) Create(c *gin.Context) {
	resp, err := h.svc.Create(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Carrinho com itens e totais
// @Tags carrinhos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/carrinhos/{id} [get]
func (h *CartsHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discard godoc
// @Summary Descarta o carrinho
// @Tags carrinhos
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Success 204
// @Router /v1/carrinhos/{id} [delete]
func (h *CartsHandler) Discard(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Discard(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectClient godoc
// @Summary Seleciona cliente e pet e carrega os serviços pendentes
// @Tags carrinhos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.SelectClientRequest true "Cliente e pet"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/carrinhos/{id}/cliente [put]
func (h *CartsHandler) SelectClient(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SelectClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SelectClientPet(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetEmployee godoc
// @Summary Define o funcionário comissionado
// @Tags carrinhos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.SetEmployeeRequest true "Funcionário (vazio remove)"
// @Success 200 {object} dto.CartResponse
// @Router /v1/carrinhos/{id}/funcionario [put]
func (h *CartsHandler) SetEmployee(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetEmployeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetEmployee(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddProduct godoc
// @Summary Adiciona um produto do catálogo
// @Tags carrinhos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.AddProductRequest true "Produto e quantidade"
// @Success 200 {object} dto.CartResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/carrinhos/{id}/produtos [post]
func (h *CartsHandler) AddProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AddProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddExtra godoc
// @Summary Adiciona um item avulso
// @Tags carrinhos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.AddExtraRequest true "Descrição, quantidade e preço"
// @Success 200 {object} dto.CartResponse
// @Router /v1/carrinhos/{id}/extras [post]
func (h *CartsHandler) AddExtra(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AddExtraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddExtra(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateQuantity godoc
// @Summary Altera a quantidade de um item
// @Tags carrinhos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param item_id path string true "ID do item"
// @Param body body dto.UpdateQuantityRequest true "Nova quantidade"
// @Success 200 {object} dto.CartResponse
// @Router /v1/carrinhos/{id}/itens/{item_id}/quantidade [patch]
func (h *CartsHandler) UpdateQuantity(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), id, c.Param("item_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyDiscount godoc
// @Summary Aplica desconto em valor a um item
// @Tags carrinhos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param item_id path string true "ID do item"
// @Param body body dto.ApplyDiscountRequest true "Desconto"
// @Success 200 {object} dto.CartResponse
// @Router /v1/carrinhos/{id}/itens/{item_id}/desconto [patch]
func (h *CartsHandler) ApplyDiscount(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ApplyDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyDiscount(c.Request.Context(), id, c.Param("item_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary Remove um item do carrinho
// @Tags carrinhos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param item_id path string true "ID do item"
// @Success 200 {object} dto.CartResponse
// @Router /v1/carrinhos/{id}/itens/{item_id} [delete]
func (h *CartsHandler) RemoveItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), id, c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
