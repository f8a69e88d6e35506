package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/store"
)

// AddressHandlers provides HTTP handlers for saved addresses.
type AddressHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewAddressHandlers creates a new address handlers instance.
func NewAddressHandlers(st store.Store, logger *zerolog.Logger) *AddressHandlers {
	return &AddressHandlers{
		store: st,
		log:   logger,
	}
}

// AddressRequest represents the create/update address body.
type AddressRequest struct {
	Title     string `json:"title" binding:"required"`
	Address   string `json:"address" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

// AddressResponse represents an address in API responses.
type AddressResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Address   string `json:"address"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// List returns the caller's addresses, default first.
// GET /addresses
func (h *AddressHandlers) List(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	addrs, err := h.store.ListAddresses(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch addresses")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]AddressResponse, 0, len(addrs))
	for _, addr := range addrs {
		response = append(response, AddressResponse{
			ID:        addr.ID,
			Title:     addr.Title,
			Address:   addr.Address,
			IsDefault: addr.IsDefault,
			CreatedAt: addr.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}

// Create saves a new address.
// POST /addresses
func (h *AddressHandlers) Create(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title and address are required"})
		return
	}

	addr, err := h.store.CreateAddress(c.Request.Context(), uid, req.Title, req.Address, req.IsDefault)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to create address")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, AddressResponse{
		ID:        addr.ID,
		Title:     addr.Title,
		Address:   addr.Address,
		IsDefault: addr.IsDefault,
		CreatedAt: addr.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Update replaces an address owned by the caller.
// PUT /addresses/:id
func (h *AddressHandlers) Update(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address id"})
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title and address are required"})
		return
	}

	if err := h.store.UpdateAddress(c.Request.Context(), id, uid, req.Title, req.Address, req.IsDefault); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "address not found"})
			return
		}
		h.log.Error().Err(err).Int64("address_id", id).Msg("failed to update address")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "address updated"})
}

// Delete removes an address owned by the caller.
// DELETE /addresses/:id
func (h *AddressHandlers) Delete(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address id"})
		return
	}

	if err := h.store.DeleteAddress(c.Request.Context(), id, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "address not found"})
			return
		}
		h.log.Error().Err(err).Int64("address_id", id).Msg("failed to delete address")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "address deleted"})
}
