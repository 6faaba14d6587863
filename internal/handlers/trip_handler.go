package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "travelbudget/internal/errors"
	"travelbudget/internal/pagination"
	"travelbudget/internal/services"
)

// TripHandler handles trip-related requests.
type TripHandler struct {
	tripService  services.TripServicer
	auditService services.AuditServicer
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService services.TripServicer, auditService services.AuditServicer) *TripHandler {
	return &TripHandler{tripService: tripService, auditService: auditService}
}

// CreateTripRequest represents the request payload for creating a trip.
type CreateTripRequest struct {
	TripName    string    `json:"trip_name" binding:"required,notblank,max=100"`
	TotalBudget float64   `json:"total_budget" binding:"min=0"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

// UpdateTripRequest represents the request payload for updating a trip.
type UpdateTripRequest struct {
	TripName    *string    `json:"trip_name" binding:"omitempty,notblank,max=100"`
	TotalBudget *float64   `json:"total_budget" binding:"omitempty,min=0"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// CreateTrip handles the creation of a new trip.
// @Summary     Create a trip
// @Description Create a new trip with a budget and date range
// @Tags        trips
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTripRequest true "Trip details"
// @Success     201 {object} models.Trip "Trip created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Overlapping trip"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips [post]
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trip, err := h.tripService.CreateTrip(userID, req.TripName, req.TotalBudget, req.StartDate, req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRIP", "trip", trip.ID, c.ClientIP(),
		map[string]interface{}{"trip_name": trip.TripName, "total_budget": trip.TotalBudget})

	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// GetTrips handles listing trips for the authenticated user.
// @Summary     Get trips
// @Description Get a paginated list of the authenticated user's trips
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Trip] "Paginated trips"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips [get]
func (h *TripHandler) GetTrips(c *gin.Context) {
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

	result, err := h.tripService.GetUserTrips(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTrip handles retrieving a specific trip with its expenses.
// @Summary     Get trip by ID
// @Description Get a specific trip with its expenses
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trip ID"
// @Success     200 {object} models.Trip "Trip details"
// @Failure     400 {object} ErrorResponse "Invalid trip ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips/{id} [get]
func (h *TripHandler) GetTrip(c *gin.Context) {
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

	trip, err := h.tripService.GetTripByID(userID, tripID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// UpdateTrip handles updating an existing trip.
// @Summary     Update trip
// @Description Update a trip's name, budget, or dates
// @Tags        trips
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "Trip ID"
// @Param       request body UpdateTripRequest true "Updated trip details"
// @Success     200 {object} models.Trip "Updated trip"
// @Failure     400 {object} ErrorResponse "Invalid input or trip ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     409 {object} ErrorResponse "Overlapping trip"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips/{id} [put]
func (h *TripHandler) UpdateTrip(c *gin.Context) {
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

	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trip, err := h.tripService.UpdateTrip(userID, tripID, services.TripUpdateFields{
		TripName:    req.TripName,
		TotalBudget: req.TotalBudget,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRIP", "trip", tripID, c.ClientIP(),
		map[string]interface{}{"trip_name": trip.TripName, "total_budget": trip.TotalBudget})

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// DeleteTrip handles deleting a trip and its expenses.
// @Summary     Delete trip
// @Description Delete a trip and all of its expenses
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trip ID"
// @Success     200 {object} MessageResponse "Trip deleted"
// @Failure     400 {object} ErrorResponse "Invalid trip ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the trip owner"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trips/{id} [delete]
func (h *TripHandler) DeleteTrip(c *gin.Context) {
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

	if err := h.tripService.DeleteTrip(userID, tripID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRIP", "trip", tripID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted successfully"})
}
