package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/store"
)

// transactionHistoryLimit caps the wallet history page size.
const transactionHistoryLimit = 20

// WalletHandlers provides HTTP handlers for the wallet ledger.
type WalletHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewWalletHandlers creates a new wallet handlers instance.
func NewWalletHandlers(st store.Store, logger *zerolog.Logger) *WalletHandlers {
	return &WalletHandlers{
		store: st,
		log:   logger,
	}
}

// BalanceResponse represents the wallet balance response body.
type BalanceResponse struct {
	Balance     string `json:"balance"`
	LastUpdated string `json:"last_updated"`
}

// MutationResponse is returned by operations that change the balance.
type MutationResponse struct {
	Message    string `json:"message"`
	NewBalance string `json:"new_balance"`
}

// AddFundsRequest represents the top-up request body.
type AddFundsRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// TransferRequest represents the transfer request body.
type TransferRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	IBAN          string  `json:"iban" binding:"required"`
	RecipientName string  `json:"recipient_name" binding:"required"`
}

// TransactionResponse represents a ledger entry in API responses.
type TransactionResponse struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// Balance returns the caller's derived wallet balance.
// GET /wallet/balance
func (h *WalletHandlers) Balance(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	balance, err := h.store.Balance(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		Balance:     fmt.Sprintf("%.2f", balance),
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
}

// AddFunds appends a credit entry to the ledger.
// POST /wallet/add
func (h *WalletHandlers) AddFunds(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.AppendTransaction(ctx, uid, store.TransactionAdd, req.Amount, "Wallet top-up"); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to add funds")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	balance, err := h.store.Balance(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MutationResponse{
		Message:    "funds added",
		NewBalance: fmt.Sprintf("%.2f", balance),
	})
}

// Transfer debits the ledger after a balance check.
// POST /wallet/transfer
func (h *WalletHandlers) Transfer(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	balance, err := h.store.Balance(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if balance < req.Amount {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "insufficient balance"})
		return
	}

	description := fmt.Sprintf("Transfer: %s (%s)", req.RecipientName, req.IBAN)
	if _, err := h.store.AppendTransaction(ctx, uid, store.TransactionTransfer, req.Amount, description); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to record transfer")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, MutationResponse{
		Message:    "transfer completed",
		NewBalance: fmt.Sprintf("%.2f", balance-req.Amount),
	})
}

// Transactions returns the newest ledger entries.
// GET /wallet/transactions
func (h *WalletHandlers) Transactions(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	txs, err := h.store.ListTransactions(c.Request.Context(), uid, transactionHistoryLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		response = append(response, TransactionResponse{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Amount:      tx.Amount,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
