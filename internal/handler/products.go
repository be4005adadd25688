package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"petzap/internal/dto"
	"petzap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const barcodeCacheTTL = 10 * time.Minute

type ProductsHandler struct {
	catalog   service.CatalogService
	inventory service.InventoryService
	rdb       *redis.Client // nil disables the barcode cache
}

func NewProductsHandler(catalog service.CatalogService, inventory service.InventoryService, rdb *redis.Client) *ProductsHandler {
	return &ProductsHandler{catalog: catalog, inventory: inventory, rdb: rdb}
}

// List godoc
// @Summary Busca produtos ativos
// @Tags produtos
// @Produce json
// @Security BearerAuth
// @Param q query string false "Nome, SKU ou código de barras"
// @Param categoria query string false "Categoria"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/produtos [get]
func (h *ProductsHandler) List(c *gin.Context) {
	resp, err := h.catalog.SearchProducts(c.Request.Context(), c.Query("q"), c.Query("categoria"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary Produtos no estoque mínimo ou abaixo
// @Tags produtos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ProductResponse
// @Router /v1/produtos/estoque-baixo [get]
func (h *ProductsHandler) LowStock(c *gin.Context) {
	resp, err := h.catalog.LowStockProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ByBarcode godoc
// @Summary Produto pelo código de barras (leitor do PDV)
// @Tags produtos
// @Produce json
// @Security BearerAuth
// @Param barcode path string true "Código de barras"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/produtos/barcode/{barcode} [get]
func (h *ProductsHandler) ByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	ctx := c.Request.Context()
	cacheKey := "produto:barcode:" + barcode

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal(cached, &resp) == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	resp, err := h.catalog.ProductByBarcode(ctx, barcode)
	if err != nil {
		respondError(c, err)
		return
	}

	// best effort; stock shown at the counter may lag by the TTL
	if h.rdb != nil {
		if b, err := json.Marshal(resp); err == nil {
			if err := h.rdb.Set(context.Background(), cacheKey, b, barcodeCacheTTL).Err(); err != nil {
				log.Debug().Err(err).Str("barcode", barcode).Msg("barcode cache write failed")
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary Movimentações de estoque de um produto
// @Tags produtos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 200 {array} dto.StockMovementResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/produtos/{id}/movimentos [get]
func (h *ProductsHandler) Movements(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.Movements(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
