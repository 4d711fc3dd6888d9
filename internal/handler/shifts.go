package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/middleware"
	"posengine/internal/model"
	"posengine/internal/service"

	"github.com/gin-gonic/gin"
)

type ShiftsHandler struct{ svc service.ShiftService }

func NewShiftsHandler(svc service.ShiftService) *ShiftsHandler {
	return &ShiftsHandler{svc: svc}
}

func (h *ShiftsHandler) Start(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	var req dto.StartShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	s, err := h.svc.Start(c.Request.Context(), op, req.OpeningBalance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewShiftResponse(s))
}

// End closes a shift. Cashiers may only close their own.
func (h *ShiftsHandler) End(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.EndShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	current, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if current.UserID != op.ID && middleware.GetClaims(c).Role == model.RoleCashier {
		c.JSON(http.StatusForbidden, apierror.New("cannot end another user's shift"))
		return
	}
	s, err := h.svc.End(c.Request.Context(), id, req.ClosingBalance, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShiftResponse(s))
}

func (h *ShiftsHandler) Approve(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.Approve(c.Request.Context(), id, op)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShiftResponse(s))
}

// Active returns the caller's active shift.
func (h *ShiftsHandler) Active(c *gin.Context) {
	op, ok := actor(c)
	if !ok {
		return
	}
	s, err := h.svc.ActiveShiftFor(c.Request.Context(), op.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShiftResponse(s))
}

func (h *ShiftsHandler) Pending(c *gin.Context) {
	ss, err := h.svc.PendingApprovals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShiftList(ss))
}

func (h *ShiftsHandler) History(c *gin.Context) {
	rg, ok := bindRange(c)
	if !ok {
		return
	}
	ss, err := h.svc.History(c.Request.Context(), rg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShiftList(ss))
}

func (h *ShiftsHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewShiftResponse(s))
}

// Report streams the closing report as a PDF attachment.
func (h *ShiftsHandler) Report(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.WriteReport(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shift-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
