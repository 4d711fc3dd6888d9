package handler

import (
	"net/http"
	"strconv"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler serves availability, deductions, adjustments, the movement
// ledger and the stock reports.
type StockHandler struct {
	stock     service.StockService
	inventory service.InventoryService
	ledger    service.LedgerService
}

func NewStockHandler(stock service.StockService, inventory service.InventoryService, ledger service.LedgerService) *StockHandler {
	return &StockHandler{stock: stock, inventory: inventory, ledger: ledger}
}

func (h *StockHandler) Available(c *gin.Context) {
	id, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	n, err := h.stock.AvailableStock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AvailableStockResponse{ProductID: id.String(), Available: n})
}

func (h *StockHandler) Deduct(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	var req dto.DeductStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ref, err := dto.ParseOptionalUUID(req.ReferenceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid reference_id"))
		return
	}
	mv, err := h.stock.Deduct(c.Request.Context(), op, service.DeductInput{
		ProductID:    uuid.MustParse(req.ProductID),
		Quantity:     req.Quantity,
		MovementType: req.MovementType,
		ReferenceID:  ref,
		Reason:       req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMovementResponse(mv))
}

func (h *StockHandler) Adjust(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.inventory.Adjust(c.Request.Context(), op, service.AdjustInput{
		ProductID: uuid.MustParse(req.ProductID),
		Type:      req.AdjustmentType,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAdjustmentResponse(res.Adjustment, res.Movement))
}

func (h *StockHandler) Movements(c *gin.Context) {
	rg, ok := bindRange(c)
	if !ok {
		return
	}
	ms, err := h.ledger.ListAll(c.Request.Context(), rg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMovementList(ms))
}

func (h *StockHandler) ProductMovements(c *gin.Context) {
	id, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	rg, ok := bindRange(c)
	if !ok {
		return
	}
	ms, err := h.ledger.ListByProduct(c.Request.Context(), id, rg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMovementList(ms))
}

func (h *StockHandler) Adjustments(c *gin.Context) {
	rg, ok := bindRange(c)
	if !ok {
		return
	}
	as, err := h.ledger.ListAdjustments(c.Request.Context(), rg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAdjustmentList(as))
}

// LowStock accepts an optional ?threshold=.
func (h *StockHandler) LowStock(c *gin.Context) {
	var threshold *int
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid threshold"))
			return
		}
		threshold = &n
	}
	resp, err := h.inventory.LowStockReport(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) StockValue(c *gin.Context) {
	resp, err := h.inventory.StockValueReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
