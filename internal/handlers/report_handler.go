package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "travelbudget/internal/errors"
	"travelbudget/internal/pagination"
	"travelbudget/internal/services"
)

// ReportHandler handles statistics and report requests.
type ReportHandler struct {
	reportService services.ReportServicer
	auditService  services.AuditServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer, auditService services.AuditServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, auditService: auditService}
}

// CompareTripsRequest represents the request payload for comparing two trips.
type CompareTripsRequest struct {
	TripID1 uint `json:"trip_id_1" binding:"required"`
	TripID2 uint `json:"trip_id_2" binding:"required"`
}

// GetStatistics handles the spending statistics rollup for a trip.
// @Summary     Get trip statistics
// @Description Get total spent, budget figures, category breakdown, and daily spending for a trip
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trip ID"
// @Success     200 {object} services.TripStatistics "Statistics"
// @Failure     400 {object} ErrorResponse "Invalid trip ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips/{id}/statistics [get]
func (h *ReportHandler) GetStatistics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.reportService.GetTripStatistics(c.Request.Context(), userID, tripID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CompareTrips handles comparing the spending of two trips.
// @Summary     Compare two trips
// @Description Compare totals, breakdowns, and daily averages of two trips
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CompareTripsRequest true "Trip IDs to compare"
// @Success     200 {object} services.TripComparison "Comparison"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the owner of both trips"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/compare [post]
func (h *ReportHandler) CompareTrips(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CompareTripsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	comparison, err := h.reportService.CompareTrips(userID, req.TripID1, req.TripID2)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// CreateReport handles snapshotting a trip's spending into a report.
// @Summary     Create a report
// @Description Snapshot a trip's current spending into a persisted report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trip ID"
// @Success     201 {object} models.Report "Report created"
// @Failure     400 {object} ErrorResponse "Invalid trip ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips/{id}/reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.CreateReport(userID, tripID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_REPORT", "report", report.ID, c.ClientIP(),
		map[string]interface{}{"trip_id": tripID, "total_spent": report.TotalSpent})

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// GetTripReports handles listing a trip's reports.
// @Summary     Get trip reports
// @Description Get a paginated list of a trip's persisted reports
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  int true  "Trip ID"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Report] "Paginated reports"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips/{id}/reports [get]
func (h *ReportHandler) GetTripReports(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.reportService.GetTripReports(userID, tripID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAllReports handles listing reports across all of the user's trips.
// @Summary     Get all reports
// @Description Get a paginated list of reports across all of the user's trips
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Report] "Paginated reports"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports [get]
func (h *ReportHandler) GetAllReports(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.reportService.GetAllReports(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetReport handles retrieving a single report.
// @Summary     Get report by ID
// @Description Get a specific report; ownership is checked through its trip
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Report ID"
// @Success     200 {object} models.Report "Report details"
// @Failure     400 {object} ErrorResponse "Invalid report ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Report not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reportID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GetReportByID(userID, reportID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// DeleteReport handles deleting a report.
// @Summary     Delete report
// @Description Delete a report by ID
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Report ID"
// @Success     200 {object} MessageResponse "Report deleted"
// @Failure     400 {object} ErrorResponse "Invalid report ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Report not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/{id} [delete]
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reportID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.reportService.DeleteReport(userID, reportID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_REPORT", "report", reportID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}
