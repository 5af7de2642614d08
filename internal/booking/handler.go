package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaivikpatel2001/sendme/pkg/common"
)

// Handler handles HTTP requests for bookings
type Handler struct {
	service *Service
}

// NewHandler creates a new booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers booking routes on the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("/quote", h.QuoteBooking)
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/transition", h.TransitionBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// QuoteBooking handles pricing a booking request without creating it
func (h *Handler) QuoteBooking(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to quote booking")
		return
	}

	common.SuccessResponse(c, quote)
}

// CreateBooking handles creating a new booking
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create booking")
		return
	}

	common.CreatedResponse(c, b)
}

// GetBooking handles getting a booking by ID
func (h *Handler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get booking")
		return
	}

	common.SuccessResponse(c, b)
}

// TransitionBooking handles advancing a booking's status
func (h *Handler) TransitionBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.service.Transition(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "failed to transition booking")
		return
	}

	common.SuccessResponse(c, b)
}

// CancelBooking handles cancelling a booking
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "failed to cancel booking")
		return
	}

	common.SuccessResponse(c, b)
}

func respondError(c *gin.Context, err error, fallback string) {
	if appErr, ok := common.AsAppError(err); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}
