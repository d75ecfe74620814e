package handlers

import (
	"net/http"
	"time"

	bookingRepo "senara/database/repository/booking"
	"senara/utils"

	"github.com/gin-gonic/gin"
)

// ReportsHandler exposes the booking analytics endpoints.
type ReportsHandler struct {
	Repo bookingRepo.BookingRepository
}

func NewReportsHandler(repo bookingRepo.BookingRepository) *ReportsHandler {
	return &ReportsHandler{Repo: repo}
}

func (h *ReportsHandler) TotalAppointments(c *gin.Context) {
	total, err := h.Repo.TotalAppointments(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to count appointments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_appointments": total})
}

func (h *ReportsHandler) TotalBookedServices(c *gin.Context) {
	total, err := h.Repo.TotalAppointments(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to count booked services", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_booked_services": total})
}

func (h *ReportsHandler) TotalRevenue(c *gin.Context) {
	sum, err := h.Repo.TotalRevenue(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to sum revenue", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_revenue": sum})
}

func (h *ReportsHandler) AppointmentDetails(c *gin.Context) {
	details, err := h.Repo.AppointmentDetails(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load appointment details", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": details})
}

func (h *ReportsHandler) ServicePopularity(c *gin.Context) {
	services, err := h.Repo.ServicePopularity(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load service popularity", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_popularity": services})
}

func (h *ReportsHandler) AreaDistribution(c *gin.Context) {
	areas, err := h.Repo.AreaDistribution(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load area distribution", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"area_distribution": areas})
}

// UpdateAppointmentStatus triggers the status sweep on demand; the worker
// also runs it on a schedule.
func (h *ReportsHandler) UpdateAppointmentStatus(c *gin.Context) {
	n, err := h.Repo.SweepStatuses(c.Request.Context(), time.Now())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update appointment statuses", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Appointment statuses updated successfully.", "updated": n})
}
