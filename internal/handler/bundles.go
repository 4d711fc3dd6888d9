package handler

import (
	"net/http"

	"posengine/internal/bundle"
	"posengine/internal/dto"
	"posengine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BundlesHandler struct{ svc service.BundleService }

func NewBundlesHandler(svc service.BundleService) *BundlesHandler {
	return &BundlesHandler{svc: svc}
}

func (h *BundlesHandler) Create(c *gin.Context) {
	var req dto.CreateBundleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	b, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBundleResponse(b))
}

func (h *BundlesHandler) List(c *gin.Context) {
	bs, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBundleList(bs))
}

func (h *BundlesHandler) ListActive(c *gin.Context) {
	bs, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBundleList(bs))
}

func (h *BundlesHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBundleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	b, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBundleResponse(b))
}

func (h *BundlesHandler) AddProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.BundleProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	b, err := h.svc.AddProduct(c.Request.Context(), id, uuid.MustParse(req.ProductID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBundleResponse(b))
}

func (h *BundlesHandler) RemoveProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	b, err := h.svc.RemoveProduct(c.Request.Context(), id, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBundleResponse(b))
}

func (h *BundlesHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Apply prices a cart against the active bundles without persisting anything.
func (h *BundlesHandler) Apply(c *gin.Context) {
	var req dto.ApplyBundlesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	lines := make([]bundle.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = bundle.Line{ProductID: uuid.MustParse(l.ProductID), Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	apps, err := h.svc.Apply(c.Request.Context(), lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewApplicationList(apps))
}
