package handler

import (
	"net/http"

	"posengine/internal/dto"
	"posengine/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

func (h *SalesHandler) Complete(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CompleteSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sale, err := h.svc.Complete(c.Request.Context(), op, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSaleResponse(sale))
}

func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sale, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSaleResponse(sale))
}
