package http

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/store"
)

const (
	// rideHistoryLimit caps the ride history page size.
	rideHistoryLimit = 10
	// defaultFare is used when the client sends no estimate.
	defaultFare = 50
)

// RideHandlers provides HTTP handlers for the ride-hailing flow.
type RideHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRideHandlers creates a new ride handlers instance.
func NewRideHandlers(st store.Store, logger *zerolog.Logger) *RideHandlers {
	return &RideHandlers{
		store: st,
		log:   logger,
	}
}

// Driver is the simulated driver assigned to a ride.
type Driver struct {
	Name   string  `json:"name"`
	Car    string  `json:"car"`
	Plate  string  `json:"plate"`
	Rating float64 `json:"rating"`
}

// There is no dispatch system in the demo; drivers are picked from a fixed pool.
var driverPool = []Driver{
	{Name: "Ahmet Yılmaz", Car: "Toyota Corolla", Plate: "34 ABC 123", Rating: 4.8},
	{Name: "Mehmet Demir", Car: "Honda Civic", Plate: "34 XYZ 456", Rating: 4.9},
	{Name: "Ali Kaya", Car: "Renault Megane", Plate: "34 DEF 789", Rating: 4.7},
}

// RequestRideRequest represents the ride request body.
type RequestRideRequest struct {
	Pickup        string  `json:"pickup" binding:"required"`
	Destination   string  `json:"destination" binding:"required"`
	EstimatedFare float64 `json:"estimated_fare"`
}

// RequestRideResponse represents the ride request response body.
type RequestRideResponse struct {
	Message          string  `json:"message"`
	RideID           int64   `json:"ride_id"`
	Ref              string  `json:"ref"`
	Driver           Driver  `json:"driver"`
	EstimatedArrival string  `json:"estimated_arrival"`
	Fare             float64 `json:"fare"`
}

// CompleteRideRequest represents the ride completion request body.
type CompleteRideRequest struct {
	RideID int64 `json:"ride_id" binding:"required"`
}

// CompleteRideResponse represents the ride completion response body.
type CompleteRideResponse struct {
	Message    string  `json:"message"`
	Fare       float64 `json:"fare"`
	NewBalance string  `json:"new_balance"`
}

// RideResponse represents a ride in API responses.
type RideResponse struct {
	ID          int64   `json:"id"`
	Ref         string  `json:"ref"`
	Pickup      string  `json:"pickup"`
	Destination string  `json:"destination"`
	Status      string  `json:"status"`
	Fare        float64 `json:"fare"`
	CreatedAt   string  `json:"created_at"`
}

// RequestRide checks the balance and creates a ride with an assigned driver.
// POST /ride/request
func (h *RideHandlers) RequestRide(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup and destination are required"})
		return
	}

	fare := req.EstimatedFare
	if fare <= 0 {
		fare = defaultFare
	}

	ctx := c.Request.Context()
	balance, err := h.store.Balance(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if balance < fare {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "insufficient balance"})
		return
	}

	ride, err := h.store.CreateRide(ctx, uid, req.Pickup, req.Destination, fare)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to create ride")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, RequestRideResponse{
		Message:          "driver assigned",
		RideID:           ride.ID,
		Ref:              ride.Ref,
		Driver:           driverPool[rand.Intn(len(driverPool))],
		EstimatedArrival: "3-5 min",
		Fare:             fare,
	})
}

// CompleteRide marks the ride completed and charges the fare.
// POST /ride/complete
func (h *RideHandlers) CompleteRide(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CompleteRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ride_id is required"})
		return
	}

	ctx := c.Request.Context()
	ride, err := h.store.GetRide(ctx, req.RideID, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ride not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch ride")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.CompleteRide(ctx, ride.ID, uid); err != nil {
		h.log.Error().Err(err).Int64("ride_id", ride.ID).Msg("failed to complete ride")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	description := fmt.Sprintf("Ride %s", ride.Ref)
	if _, err := h.store.AppendTransaction(ctx, uid, store.TransactionRideFare, ride.Fare, description); err != nil {
		h.log.Error().Err(err).Int64("ride_id", ride.ID).Msg("failed to charge ride")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	balance, err := h.store.Balance(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, CompleteRideResponse{
		Message:    "ride completed",
		Fare:       ride.Fare,
		NewBalance: fmt.Sprintf("%.2f", balance),
	})
}

// History returns the caller's newest rides.
// GET /ride/history
func (h *RideHandlers) History(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	rides, err := h.store.ListRides(c.Request.Context(), uid, rideHistoryLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch rides")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, RideResponse{
			ID:          ride.ID,
			Ref:         ride.Ref,
			Pickup:      ride.Pickup,
			Destination: ride.Destination,
			Status:      string(ride.Status),
			Fare:        ride.Fare,
			CreatedAt:   ride.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
