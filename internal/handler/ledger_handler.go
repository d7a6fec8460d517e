// Package handler exposes the ledger over HTTP. Handlers parse transport
// arguments, call the core, and map its failure kinds to status codes;
// no balance logic lives here.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/khazhoyan/money-transfer/internal/middleware"
	"github.com/khazhoyan/money-transfer/internal/service"
)

// LedgerService defines the core operations used by LedgerHandler.
type LedgerService interface {
	CreateAccount() service.Snapshot
	GetAccount(id int64) (service.Snapshot, error)
	ListAccounts() []service.Snapshot
	Deposit(id int64, amount decimal.Decimal) (service.Snapshot, error)
	Withdraw(id int64, amount decimal.Decimal) (service.Snapshot, error)
	Transfer(fromID, toID int64, amount decimal.Decimal) error
}

// LedgerHandler handles account and transfer HTTP requests.
type LedgerHandler struct {
	ledger LedgerService
}

func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type MoneyOperationRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type AccountResponse struct {
	Account service.Snapshot `json:"account"`
}

type ListAccountsResponse struct {
	Accounts []service.Snapshot `json:"accounts"`
}

type TransferResponse struct {
	Message string           `json:"message"`
	From    service.Snapshot `json:"from"`
	To      service.Snapshot `json:"to"`
}

type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// Error codes surfaced to clients, one per ledger failure kind.
const (
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodeAmountNotPositive   = "AMOUNT_NOT_POSITIVE"
	CodeSameAccount         = "SAME_ACCOUNT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeBadRequest          = "BAD_REQUEST"
)

// Routes registers every ledger endpoint on the router.
func (h *LedgerHandler) Routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	accounts := r.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("", h.ListAccounts)
		accounts.GET("/:id", h.GetAccount)
		accounts.POST("/:id/deposit", h.Deposit)
		accounts.POST("/:id/withdraw", h.Withdraw)
	}

	r.POST("/transfers/:from/:to", h.Transfer)
}

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	c.JSON(http.StatusCreated, AccountResponse{Account: h.ledger.CreateAccount()})
}

func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: h.ledger.ListAccounts()})
}

func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snap, err := h.ledger.GetAccount(id)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccountResponse{Account: snap})
}

func (h *LedgerHandler) Deposit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	amount, ok := bindAmount(c)
	if !ok {
		return
	}
	snap, err := h.ledger.Deposit(id, amount)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccountResponse{Account: snap})
}

func (h *LedgerHandler) Withdraw(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	amount, ok := bindAmount(c)
	if !ok {
		return
	}
	snap, err := h.ledger.Withdraw(id, amount)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccountResponse{Account: snap})
}

func (h *LedgerHandler) Transfer(c *gin.Context) {
	fromID, ok := pathID(c, "from")
	if !ok {
		return
	}
	toID, ok := pathID(c, "to")
	if !ok {
		return
	}
	amount, ok := bindAmount(c)
	if !ok {
		return
	}
	if err := h.ledger.Transfer(fromID, toID, amount); err != nil {
		respondWithLedgerError(c, err)
		return
	}

	from, _ := h.ledger.GetAccount(fromID)
	to, _ := h.ledger.GetAccount(toID)
	c.JSON(http.StatusOK, TransferResponse{Message: "transfer succeeded", From: from, To: to})
}

func bindAmount(c *gin.Context) (decimal.Decimal, bool) {
	var req MoneyOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return decimal.Decimal{}, false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return decimal.Decimal{}, false
	}
	return *req.Amount, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		respondWithError(c, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("param %q must be a non-negative integer, got %q", name, raw))
		return 0, false
	}
	return id, true
}

func respondWithLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAmountNotPositive):
		respondWithError(c, http.StatusBadRequest, CodeAmountNotPositive, err.Error())
	case errors.Is(err, service.ErrSameAccount):
		respondWithError(c, http.StatusBadRequest, CodeSameAccount, err.Error())
	case errors.Is(err, service.ErrInsufficientBalance):
		respondWithError(c, http.StatusForbidden, CodeInsufficientBalance, err.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		respondWithError(c, http.StatusNotFound, CodeAccountNotFound, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, "INTERNAL", "unexpected error")
	}
}

func respondWithError(c *gin.Context, code int, errCode, description string) {
	c.JSON(code, ErrorResponse{Error: errCode, Description: description})
}
