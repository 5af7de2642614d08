package assignment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/common"
)

// Handler handles HTTP requests for driver assignment
type Handler struct {
	service *Service
}

// NewHandler creates a new assignment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers assignment routes on the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.GET("/:id/offers", h.ListOffers)
		bookings.POST("/:id/accept", h.AcceptBooking)
		bookings.POST("/:id/reject", h.RejectBooking)
	}
}

type driverActionRequest struct {
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}

// ListOffers handles listing candidate drivers for a booking
func (h *Handler) ListOffers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	candidates, err := h.service.Offer(c.Request.Context(), id)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list offers")
		return
	}

	common.SuccessResponse(c, candidates)
}

// AcceptBooking handles a driver accepting a booking
func (h *Handler) AcceptBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req driverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.service.Accept(c.Request.Context(), id, req.DriverID)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to accept booking")
		return
	}

	common.SuccessResponse(c, b)
}

// RejectBooking handles a driver declining a booking
func (h *Handler) RejectBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req driverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Reject(c.Request.Context(), id, req.DriverID); err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to reject booking")
		return
	}

	common.SuccessResponse(c, gin.H{"rejected": true})
}
