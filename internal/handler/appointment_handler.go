package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"appointment-booking-api/internal/service"
)

// POST /api/appointments
func (h *Handler) CreateAppointment(c *gin.Context) {
	var in service.BookingRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := h.appts.Create(c.Request.Context(), in); err != nil {
		h.fail(c, err)
		return
	}
	message(c, http.StatusCreated, "Appointment booked successfully!")
}

// GET /api/appointments (admin)
func (h *Handler) ListAppointments(c *gin.Context) {
	list, err := h.appts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PUT /api/appointments/:id (admin)
func (h *Handler) UpdateAppointment(c *gin.Context) {
	var in struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	a, err := h.appts.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /api/appointments/:id (admin)
func (h *Handler) DeleteAppointment(c *gin.Context) {
	if err := h.appts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	message(c, http.StatusOK, "Appointment deleted successfully!")
}
