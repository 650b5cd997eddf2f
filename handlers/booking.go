package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"tripnest/services/booking"
	"tripnest/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking ledger over HTTP.
type BookingHandler struct {
	Svc booking.Service
}

// NewBookingHandler creates a BookingHandler.
func NewBookingHandler(svc booking.Service) *BookingHandler {
	return &BookingHandler{Svc: svc}
}

type createBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
	Guests    int    `json:"guests" binding:"required,min=1"`
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	userID := c.GetString("userID")
	bk, err := h.Svc.Create(c.Request.Context(), userID, booking.CreateInput{
		ListingID: req.ListingID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests:    req.Guests,
	})
	if err != nil {
		status := http.StatusBadRequest
		msg := "failed to create booking"
		var be *booking.Error
		if errors.As(err, &be) {
			msg = be.Message
			if be.Code == booking.CodeNotFound {
				status = http.StatusNotFound
			} else if be.Code == booking.CodeInternal {
				status = http.StatusInternalServerError
			}
		}
		utils.JSONError(c, status, msg, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Booking created successfully",
		"booking_id":  bk.ID,
		"total_price": fmt.Sprintf("%.2f", bk.TotalPrice),
	})
}
