package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "github.com/orderdesk/backend/internal/application/orders"
	domain "github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
)

// OrdersHandler serves the dashboard view and its mutations.
type OrdersHandler struct {
	BaseHandler
	engine *app.Orchestrator
	logger *zap.Logger
}

// NewOrdersHandler creates the orders handler.
func NewOrdersHandler(engine *app.Orchestrator, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{engine: engine, logger: logger}
}

// View returns the current read model without triggering a sync.
// GET /api/v1/orders/view
func (h *OrdersHandler) View(c *gin.Context) {
	h.Success(c, dto.NewViewResponse(h.engine.View()))
}

// Refresh triggers the entry-point load: published immediately from a warm
// cache with a background sync, or blocking on the tiered load when cold.
// POST /api/v1/orders/refresh
func (h *OrdersHandler) Refresh(c *gin.Context) {
	view, err := h.engine.Refresh(c.Request.Context())
	if err != nil {
		logger.FromGin(c, h.logger).Error("Refresh failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewViewResponse(view))
}

// UpdateFilters merges a partial filter change and re-derives the view from
// the cached set.
// PATCH /api/v1/orders/filters
func (h *OrdersHandler) UpdateFilters(c *gin.Context) {
	var req dto.UpdateFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	view, err := h.engine.UpdateFilters(c.Request.Context(), req.ToPatch())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewViewResponse(view))
}

// ClearFilters resets filters to the default current-month window.
// DELETE /api/v1/orders/filters
func (h *OrdersHandler) ClearFilters(c *gin.Context) {
	view, err := h.engine.ClearFilters(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewViewResponse(view))
}

// EditItem forwards an order-line edit to the collaborator API and refreshes.
// PATCH /api/v1/orders/items
func (h *OrdersHandler) EditItem(c *gin.Context) {
	var req dto.EditItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	view, err := h.engine.EditItem(c.Request.Context(), req.ToPatch())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewViewResponse(view))
}

// ProcessItem debits inventory for a line and refreshes. The line is looked
// up in the current view so availability is judged against what the user saw.
// POST /api/v1/orders/items/process
func (h *OrdersHandler) ProcessItem(c *gin.Context) {
	var req dto.ProcessItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, found := h.findItem(req.OrderNumber, req.SKU)
	if !found {
		h.Error(c, dto.ErrCodeNotFound, "line item not found in current view")
		return
	}

	view, err := h.engine.ProcessItem(c.Request.Context(), item)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewViewResponse(view))
}

// RegisterRoutes mounts the orders routes.
func (h *OrdersHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("/view", h.View)
		orders.POST("/refresh", h.Refresh)
		orders.PATCH("/filters", h.UpdateFilters)
		orders.DELETE("/filters", h.ClearFilters)
		orders.PATCH("/items", h.EditItem)
		orders.POST("/items/process", h.ProcessItem)
	}
}

func (h *OrdersHandler) findItem(orderNumber, sku string) (domain.EnrichedItem, bool) {
	for _, item := range h.engine.View().Items {
		if item.OrderNumber == orderNumber && item.SKU == sku {
			return item, true
		}
	}
	return domain.EnrichedItem{}, false
}
