package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/auth"
	"github.com/tahakaan/superapp-server/internal/store"
)

// ProfileHandlers provides HTTP handlers for profile management.
type ProfileHandlers struct {
	store       store.Store
	authService *auth.Service
	log         *zerolog.Logger
}

// NewProfileHandlers creates a new profile handlers instance.
func NewProfileHandlers(st store.Store, authService *auth.Service, logger *zerolog.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		store:       st,
		authService: authService,
		log:         logger,
	}
}

// ProfileStats aggregates usage counters shown on the profile screen.
type ProfileStats struct {
	TotalOrders int64  `json:"total_orders"`
	TotalRides  int64  `json:"total_rides"`
	Balance     string `json:"balance"`
}

// ProfileResponse represents the profile response body.
type ProfileResponse struct {
	ID        int64        `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	FullName  string       `json:"full_name"`
	CreatedAt string       `json:"created_at"`
	Stats     ProfileStats `json:"stats"`
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
}

// ChangePasswordRequest represents the password change request body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// MessageResponse is a bare confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Get returns the caller's profile with usage stats.
// GET /profile
func (h *ProfileHandlers) Get(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	totalOrders, err := h.store.CountOrders(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to count orders")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	totalRides, err := h.store.CountCompletedRides(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to count rides")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	balance, err := h.store.Balance(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		Stats: ProfileStats{
			TotalOrders: totalOrders,
			TotalRides:  totalRides,
			Balance:     fmt.Sprintf("%.2f", balance),
		},
	})
}

// Update replaces the caller's profile fields.
// PUT /profile
func (h *ProfileHandlers) Update(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.UpdateProfile(c.Request.Context(), uid, req.Email, req.Phone, req.FullName); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "profile updated"})
}

// ChangePassword verifies the current password and sets a new one.
// PUT /profile/password
func (h *ProfileHandlers) ChangePassword(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "current and new password are required"})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "current password is wrong"})
			return
		}
		if errors.Is(err, auth.ErrInvalidPassword) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "new password too short"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to change password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}
