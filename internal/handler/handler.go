package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"appointment-booking-api/internal/metrics"
	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
)

type Handler struct {
	appts *service.Appointments
	creds *service.Credentials
	log   *logrus.Entry
}

func New(appts *service.Appointments, creds *service.Credentials, log *logrus.Logger) *Handler {
	return &Handler{appts: appts, creds: creds, log: log.WithField("component", "handler")}
}

// Router wires every REST route. origins lists the allowed CORS origins; empty
// or "*" allows any.
func (h *Handler) Router(log *logrus.Logger, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics())
	r.Use(cors.New(corsConfig(origins)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.POST("/appointments", h.CreateAppointment)
	api.POST("/admin/login", h.Login)
	api.POST("/admin/signup", middleware.OptionalAdmin(h.creds), h.Signup)

	admin := api.Group("/appointments", middleware.RequireAdmin(h.creds))
	admin.GET("", h.ListAppointments)
	admin.PUT("/:id", h.UpdateAppointment)
	admin.DELETE("/:id", h.DeleteAppointment)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func message(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"message": msg})
}

// fail maps a service error onto a status code. Anything unrecognised is a
// 500 whose detail only reaches the log.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidStatus):
		message(c, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, service.ErrMissingField):
		message(c, http.StatusBadRequest, "Username and password are required")
	case errors.Is(err, service.ErrNotFound):
		message(c, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, service.ErrUsernameTaken):
		message(c, http.StatusConflict, "Username already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		message(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrSignupClosed):
		message(c, http.StatusUnauthorized, "Admin token required")
	default:
		_ = c.Error(err)
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		message(c, http.StatusInternalServerError, "Internal server error")
	}
}
