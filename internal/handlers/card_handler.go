package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// CardHandler handles credit-card-related requests.
type CardHandler struct {
	cardService  services.CardServicer
	auditService services.AuditServicer
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService services.CardServicer, auditService services.AuditServicer) *CardHandler {
	return &CardHandler{cardService: cardService, auditService: auditService}
}

// CardRequest represents the request payload for creating or updating a card
type CardRequest struct {
	LastFour    string          `json:"last_four" binding:"required,last_four"`
	Brand       string          `json:"brand" binding:"required,card_brand"`
	ExpireDate  string          `json:"expire_date" binding:"required"`
	CreditLimit decimal.Decimal `json:"credit_limit" binding:"required"`
	PaymentDay  int             `json:"payment_day" binding:"required,day_of_month"`
	CloseDay    int             `json:"close_day" binding:"required,day_of_month"`
}

// CardResponse represents a credit card in the response
type CardResponse struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	LastFour    string          `json:"last_four"`
	Brand       string          `json:"brand"`
	ExpireDate  time.Time       `json:"expire_date"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	PaymentDay  int             `json:"payment_day"`
	CloseDay    int             `json:"close_day"`
}

// BalanceResponse represents a card's balance for one billing month
type BalanceResponse struct {
	CardID          uint            `json:"card_id"`
	Balance         decimal.Decimal `json:"balance"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
}

func (r *CardRequest) toInput() (services.CardInput, error) {
	// Cards are commonly identified by expiry month alone, so YYYY-MM is
	// accepted alongside full dates.
	expire, err := parseFlexibleTime(r.ExpireDate)
	if err != nil {
		if expire, err = time.Parse("2006-01", r.ExpireDate); err != nil {
			return services.CardInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput,
				"invalid expire_date, use YYYY-MM or YYYY-MM-DD")
		}
	}

	return services.CardInput{
		LastFour:    r.LastFour,
		Brand:       r.Brand,
		ExpireDate:  expire,
		CreditLimit: r.CreditLimit,
		PaymentDay:  r.PaymentDay,
		CloseDay:    r.CloseDay,
	}, nil
}

// CreateCard handles registering a new credit card
// @Summary     Register a credit card
// @Description Register a credit card with its statement cycle and limit
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CardRequest true "Card details"
// @Success     201 {object} CardResponse "Card created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards [post]
func (h *CardHandler) CreateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.CreateCard(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CARD", "credit_card", card.ID, c.ClientIP(),
		map[string]interface{}{"last_four": req.LastFour, "brand": req.Brand})

	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// GetCards handles listing the user's credit cards
// @Summary     List credit cards
// @Description List the authenticated user's credit cards
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {array} CardResponse "List of cards"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards [get]
func (h *CardHandler) GetCards(c *gin.Context) {
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

	result, err := h.cardService.GetUserCards(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCard handles the retrieval of a specific card
// @Summary     Get card by ID
// @Description Get a specific credit card by ID
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Card ID"
// @Success     200 {object} CardResponse "Card details"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id} [get]
func (h *CardHandler) GetCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.GetCardByID(userID, cardID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// UpdateCard handles replacing a card's details
// @Summary     Update card
// @Description Replace a credit card's details
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int         true "Card ID"
// @Param       request body CardRequest true "Card details"
// @Success     200 {object} CardResponse "Updated card"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id} [put]
func (h *CardHandler) UpdateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.UpdateCard(userID, cardID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CARD", "credit_card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// DeleteCard handles the deletion of a card
// @Summary     Delete card
// @Description Delete a credit card; historical expenses are kept
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Card ID"
// @Success     200 {object} MessageResponse "Card deleted"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cardService.DeleteCard(userID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CARD", "credit_card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}

// GetCardBalance handles the balance query for a billing month
// @Summary     Get card balance
// @Description Get the card's statement balance and available credit for a billing month (defaults to the current month)
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int true  "Card ID"
// @Param       year  query int false "Billing year"
// @Param       month query int false "Billing month (1-12)"
// @Success     200 {object} BalanceResponse "Balance for the billing month"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id}/balance [get]
func (h *CardHandler) GetCardBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.cardService.GetBalance(userID, cardID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetCardExpenses handles listing a card's expenses for a calendar month
// @Summary     List card expenses
// @Description List the card's expenses purchased in a calendar month (defaults to the current month)
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  int true  "Card ID"
// @Param       year      query int false "Year"
// @Param       month     query int false "Month (1-12)"
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {array} TransactionResponse "Card expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cards/{id}/expenses [get]
func (h *CardHandler) GetCardExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.cardService.GetCardExpenses(userID, cardID, month, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
