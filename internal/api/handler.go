package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reservation-service/internal/models"
	"reservation-service/internal/service"
)

// Handler exposes the reservation engine and batch orchestrator over HTTP.
// The core's guarantees live below this layer; handlers only translate
// requests and outcomes.
type Handler struct {
	engine *service.ReservationService
	batch  *service.BatchOrchestrator
}

// NewHandler creates a new API handler
func NewHandler(engine *service.ReservationService, batch *service.BatchOrchestrator) *Handler {
	return &Handler{
		engine: engine,
		batch:  batch,
	}
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/health", h.healthCheck)

	api := r.Group("/api/v1")
	{
		api.POST("/inventory/:product_id/reserve", h.reserve)
		api.POST("/inventory/:product_id/confirm", h.confirm)
		api.POST("/inventory/:product_id/release", h.release)
		api.POST("/inventory/:product_id/restock", h.restock)
		api.GET("/inventory/:product_id", h.status)

		api.POST("/orders/:order_id/rollback", h.rollback)
		api.POST("/orders/:order_id/reserve-batch", h.reserveBatch)
		api.POST("/orders/:order_id/confirm-batch", h.confirmBatch)
		api.POST("/orders/:order_id/release-batch", h.releaseBatch)
	}

	return r
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// reserve handles single-line reservation requests. Insufficient stock is a
// 409, not a 500: it is a normal business outcome.
func (h *Handler) reserve(c *gin.Context) {
	productID := c.Param("product_id")

	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind reserve request")
		Response.BindingError(c, err)
		return
	}

	reserved := h.engine.ReserveForOrder(c.Request.Context(), productID, req.Qty, req.OrderID)

	resp := models.ReserveResponse{
		ProductID: productID,
		OrderID:   req.OrderID,
		Qty:       req.Qty,
		Reserved:  reserved,
	}
	if !reserved {
		Response.BusinessError(c, http.StatusConflict, models.ErrInsufficientStock.Error(), models.ErrorCodeInsufficientStock)
		return
	}
	Response.Created(c, resp)
}

func (h *Handler) confirm(c *gin.Context) {
	productID := c.Param("product_id")

	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind confirm request")
		Response.BindingError(c, err)
		return
	}

	err := h.engine.ConfirmForOrder(c.Request.Context(), productID, req.Qty, req.OrderID)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Str("order_id", req.OrderID).Msg("Failed to confirm reservation")

		switch {
		case errors.Is(err, models.ErrRecordNotFound):
			Response.BusinessError(c, http.StatusNotFound, err.Error(), models.ErrorCodeRecordNotFound)
		case errors.Is(err, models.ErrRecordReleased):
			Response.BusinessError(c, http.StatusConflict, err.Error(), models.ErrorCodeAlreadyReleased)
		default:
			Response.InternalError(c, err.Error())
		}
		return
	}

	Response.NoContent(c)
}

func (h *Handler) release(c *gin.Context) {
	productID := c.Param("product_id")

	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind release request")
		Response.BindingError(c, err)
		return
	}

	if err := h.engine.ReleaseForOrder(c.Request.Context(), productID, req.Qty, req.OrderID); err != nil {
		log.Error().Err(err).Str("product_id", productID).Str("order_id", req.OrderID).Msg("Failed to release reservation")
		Response.InternalError(c, err.Error())
		return
	}

	Response.NoContent(c)
}

func (h *Handler) restock(c *gin.Context) {
	productID := c.Param("product_id")

	var req models.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindingError(c, err)
		return
	}

	if err := h.engine.Restock(c.Request.Context(), productID, req.Qty); err != nil {
		if errors.Is(err, models.ErrInvalidQuantity) {
			Response.ValidationError(c, "qty", "Quantity must be positive")
			return
		}
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to restock")
		Response.InternalError(c, err.Error())
		return
	}

	Response.NoContent(c)
}

func (h *Handler) status(c *gin.Context) {
	productID := c.Param("product_id")

	status, err := h.engine.Status(c.Request.Context(), productID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrLedgerNotFound):
			Response.BusinessError(c, http.StatusNotFound, err.Error(), models.ErrorCodeProductNotFound)
		default:
			log.Error().Err(err).Str("product_id", productID).Msg("Failed to read stock status")
			Response.InternalError(c, err.Error())
		}
		return
	}

	Response.Success(c, status)
}

// rollback releases every outstanding reservation of an order. A false
// engine result means at least one row could not be released; the call is
// safe to repeat.
func (h *Handler) rollback(c *gin.Context) {
	orderID := c.Param("order_id")

	done := h.engine.RollbackForOrder(c.Request.Context(), orderID)
	Response.Success(c, gin.H{"order_id": orderID, "rolled_back": done})
}

func (h *Handler) reserveBatch(c *gin.Context) {
	orderID := c.Param("order_id")

	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind batch request")
		Response.BindingError(c, err)
		return
	}

	ok := h.batch.ReserveBatch(c.Request.Context(), req.Items, orderID)
	resp := models.BatchResponse{OrderID: orderID, Success: ok}
	if !ok {
		Response.BusinessError(c, http.StatusConflict, "one or more lines could not be reserved", models.ErrorCodeInsufficientStock)
		return
	}
	Response.Created(c, resp)
}

func (h *Handler) confirmBatch(c *gin.Context) {
	orderID := c.Param("order_id")

	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindingError(c, err)
		return
	}

	h.batch.ConfirmBatch(c.Request.Context(), req.Items, orderID)
	Response.Success(c, models.BatchResponse{OrderID: orderID, Success: true})
}

func (h *Handler) releaseBatch(c *gin.Context) {
	orderID := c.Param("order_id")

	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Response.BindingError(c, err)
		return
	}

	h.batch.ReleaseBatch(c.Request.Context(), req.Items, orderID)
	Response.Success(c, models.BatchResponse{OrderID: orderID, Success: true})
}
