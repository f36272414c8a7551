package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"moneta/internal/billing"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// TransactionHandler handles transaction-related requests, including the
// recurring-amount override ledger.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	overrideService    services.OverrideServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, overrideService services.OverrideServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		overrideService:    overrideService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	CategoryID   *uint                  `json:"category_id"`
	Type         models.TransactionType `json:"type" binding:"required,transaction_type"`
	Description  string                 `json:"description" binding:"max=500"`
	Amount       decimal.Decimal        `json:"amount" binding:"required"`
	Date         *string                `json:"date"`
	IsRecurring  bool                   `json:"is_recurring"`
	CardID       *uint                  `json:"card_id"`
	Installments int                    `json:"installments" binding:"omitempty,min=1,max=60"`
	Surcharge    decimal.Decimal        `json:"surcharge"`
}

// TransactionResponse represents a transaction in the response
type TransactionResponse struct {
	ID           uint                   `json:"id"`
	UserID       uint                   `json:"user_id"`
	CategoryID   *uint                  `json:"category_id,omitempty"`
	Type         models.TransactionType `json:"type"`
	Description  string                 `json:"description"`
	Amount       decimal.Decimal        `json:"amount"`
	Date         time.Time              `json:"date"`
	IsRecurring  bool                   `json:"is_recurring"`
	EndDate      *time.Time             `json:"end_date,omitempty"`
	CardID       *uint                  `json:"card_id,omitempty"`
	Installments int                    `json:"installments"`
	Surcharge    decimal.Decimal        `json:"surcharge"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new income or expense, optionally financed with a credit card
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or credit limit exceeded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transactionDate := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidDateFormat, parseErr))
			return
		}
		transactionDate = parsed
	}

	transaction, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		CategoryID:   req.CategoryID,
		Type:         req.Type,
		Description:  req.Description,
		Amount:       req.Amount,
		Date:         transactionDate,
		IsRecurring:  req.IsRecurring,
		CardID:       req.CardID,
		Installments: req.Installments,
		Surcharge:    req.Surcharge,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount, "card_id": req.CardID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions handles listing the user's transactions
// @Summary     List transactions
// @Description List the authenticated user's transactions with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date     query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "Filter by type (income/expense)"
// @Param       category_id query int    false "Filter by category"
// @Param       card_id     query int    false "Filter by credit card"
// @Param       recurring   query bool   false "Filter by recurrence"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Page size"
// @Success     200 {array} TransactionResponse "List of transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense")
		}
	}

	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		catID := uint(id)
		filter.CategoryID = &catID
	}

	if v := c.Query("card_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid card_id")
		}
		cardID := uint(id)
		filter.CardID = &cardID
	}

	if v := c.Query("recurring"); v != "" {
		recurring, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid recurring, must be true or false")
		}
		filter.Recurring = &recurring
	}

	return filter, nil
}

// GetTransaction handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
type UpdateTransactionRequest struct {
	CategoryID  *int64           `json:"category_id"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	IsRecurring *bool            `json:"is_recurring"`
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Update a transaction's amount, category, date, description, or recurrence flag. Card financing terms are immutable.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                      true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} TransactionResponse "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or credit limit exceeded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	updateFields := services.TransactionUpdate{
		Description: req.Description,
		Amount:      req.Amount,
		IsRecurring: req.IsRecurring,
	}

	// Handle CategoryID: nil in JSON = don't change; negative/zero = clear; positive = set
	if req.CategoryID != nil {
		if *req.CategoryID <= 0 {
			var nilUint *uint
			updateFields.CategoryID = &nilUint
		} else {
			catID := uint(*req.CategoryID)
			catIDPtr := &catID
			updateFields.CategoryID = &catIDPtr
		}
	}

	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidDateFormat, parseErr))
			return
		}
		updateFields.Date = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, txID, updateFields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", txID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction and its amount overrides
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// OverrideRequest represents the request payload for recording an override
type OverrideRequest struct {
	Year   int             `json:"year" binding:"required,min=1970,max=9999"`
	Month  int             `json:"month" binding:"required,min=1,max=12"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// OverrideResponse represents an override in the response
type OverrideResponse struct {
	ID            uint            `json:"id"`
	TransactionID uint            `json:"transaction_id"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Amount        decimal.Decimal `json:"amount"`
}

// UpsertOverride handles recording a recurring amount change
// @Summary     Record an amount override
// @Description Record that a recurring transaction charges a different amount from a given month onward. Writing the same month again replaces the amount.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int             true "Transaction ID"
// @Param       request body OverrideRequest true "Override month and amount"
// @Success     200 {object} OverrideResponse "Override recorded"
// @Failure     400 {object} ErrorResponse "Invalid input or non-recurring transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/override [put]
func (h *TransactionHandler) UpsertOverride(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	override, err := h.overrideService.UpsertOverride(userID, txID, billing.NewMonth(req.Year, req.Month), req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPSERT_OVERRIDE", "transaction", txID, c.ClientIP(),
		map[string]interface{}{"year": req.Year, "month": req.Month, "amount": req.Amount})

	c.JSON(http.StatusOK, gin.H{"override": override})
}

// GetOverrides handles listing a transaction's override ledger
// @Summary     List amount overrides
// @Description List a recurring transaction's amount overrides in chronological order
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {array} OverrideResponse "Override ledger"
// @Failure     400 {object} ErrorResponse "Non-recurring transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/overrides [get]
func (h *TransactionHandler) GetOverrides(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	overrides, err := h.overrideService.GetOverrides(userID, txID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"overrides": overrides})
}

// GetEffectiveAmount handles resolving a recurring transaction's amount for a month
// @Summary     Get effective amount
// @Description Resolve what a recurring transaction charges in the month containing the given date (defaults to today)
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  int    true  "Transaction ID"
// @Param       date query string false "Reference date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} map[string]interface{} "Effective amount"
// @Failure     400 {object} ErrorResponse "Invalid input or non-recurring transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/effective-amount [get]
func (h *TransactionHandler) GetEffectiveAmount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, parseErr := parseFlexibleTime(v)
		if parseErr != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidDateFormat, parseErr))
			return
		}
		asOf = parsed
	}

	amount, err := h.overrideService.EffectiveAmount(userID, txID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id":   txID,
		"as_of":            asOf.Format("2006-01-02"),
		"effective_amount": amount,
	})
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
