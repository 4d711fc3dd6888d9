package handler

import (
	"net/http"

	"posengine/internal/dto"
	"posengine/internal/service"

	"github.com/gin-gonic/gin"
)

type FamiliesHandler struct{ svc service.StockService }

func NewFamiliesHandler(svc service.StockService) *FamiliesHandler {
	return &FamiliesHandler{svc: svc}
}

func (h *FamiliesHandler) Create(c *gin.Context) {
	var req dto.CreateFamilyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	f, err := h.svc.CreateFamily(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewFamilyResponse(f))
}

func (h *FamiliesHandler) List(c *gin.Context) {
	fs, err := h.svc.ListFamilies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.FamilyResponse, len(fs))
	for i := range fs {
		resp[i] = dto.NewFamilyResponse(&fs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FamiliesHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := h.svc.GetFamily(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFamilyResponse(f))
}

func (h *FamiliesHandler) AddMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}
	op, ok := actor(c)
	if !ok {
		return
	}
	f, err := h.svc.AddMember(c.Request.Context(), op, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFamilyResponse(f))
}

func (h *FamiliesHandler) RemoveMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), id, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FamiliesHandler) SetTotal(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.SetFamilyTotalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	f, err := h.svc.SetFamilyTotal(c.Request.Context(), op, id, req.TotalStock, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFamilyResponse(f))
}

func (h *FamiliesHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteFamily(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
