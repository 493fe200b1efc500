package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/admin/signup
func (h *Handler) Signup(c *gin.Context) {
	var in credentialsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.creds.Register(c.Request.Context(), in.Username, in.Password); err != nil {
		h.fail(c, err)
		return
	}
	message(c, http.StatusCreated, "Admin registered successfully!")
}

// POST /api/admin/login
func (h *Handler) Login(c *gin.Context) {
	var in credentialsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	tok, err := h.creds.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "message": "Login successful!"})
}
