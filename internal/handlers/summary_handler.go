package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneta/internal/services"
)

// SummaryHandler handles monthly aggregation requests.
type SummaryHandler struct {
	summaryService services.SummaryServicer
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// GetMonthlySummary handles the monthly view query
// @Summary     Monthly summary
// @Description Aggregate the user's incomes and expenses for a calendar month (defaults to the current month). Recurring amounts are resolved through the override ledger; cash and card expense totals are reported separately.
// @Tags        summary
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year"
// @Param       month query int false "Month (1-12)"
// @Success     200 {object} services.MonthlySummary "Monthly view"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary/monthly [get]
func (h *SummaryHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.MonthlyView(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
