package handler

import (
	"net/http"
	"strconv"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/service"

	"github.com/gin-gonic/gin"
)

type CustomersHandler struct{ svc service.CustomerService }

func NewCustomersHandler(svc service.CustomerService) *CustomersHandler {
	return &CustomersHandler{svc: svc}
}

func (h *CustomersHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cust, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCustomerResponse(cust))
}

// Search matches ?q= against name, email and phone.
func (h *CustomersHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	cs, err := h.svc.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.CustomerResponse, len(cs))
	for i := range cs {
		resp[i] = dto.NewCustomerResponse(&cs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CustomersHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cust, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCustomerResponse(cust))
}

func (h *CustomersHandler) AdjustBalance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	saleID, err := dto.ParseOptionalUUID(req.SaleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale_id"))
		return
	}
	cust, err := h.svc.AdjustBalance(c.Request.Context(), id, req.Amount, req.Description, saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCustomerResponse(cust))
}

func (h *CustomersHandler) RecordPurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordPurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	saleID, err := dto.ParseOptionalUUID(req.SaleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale_id"))
		return
	}
	cust, err := h.svc.RecordPurchase(c.Request.Context(), id, req.Amount, saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCustomerResponse(cust))
}

func (h *CustomersHandler) Transactions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	txs, err := h.svc.TransactionHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCustomerTransactionList(txs))
}
