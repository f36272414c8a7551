package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"moneta/internal/billing"
	"moneta/internal/services"
)

type mockSummaryService struct {
	monthlyViewFn func(userID uint, month billing.Month) (*services.MonthlySummary, error)
}

var _ services.SummaryServicer = (*mockSummaryService)(nil)

func (m *mockSummaryService) MonthlyView(userID uint, month billing.Month) (*services.MonthlySummary, error) {
	if m.monthlyViewFn != nil {
		return m.monthlyViewFn(userID, month)
	}
	return &services.MonthlySummary{Month: month}, nil
}

func setupSummaryRouter(handler *SummaryHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(1))
	r.GET("/summary/monthly", handler.GetMonthlySummary)
	return r
}

func TestSummaryHandler_GetMonthlySummary(t *testing.T) {
	t.Run("passes requested month to service", func(t *testing.T) {
		var gotMonth billing.Month
		svc := &mockSummaryService{
			monthlyViewFn: func(_ uint, month billing.Month) (*services.MonthlySummary, error) {
				gotMonth = month
				return &services.MonthlySummary{
					Month:       month,
					TotalIncome: decimal.RequireFromString("1000"),
					Net:         decimal.RequireFromString("800"),
				}, nil
			},
		}
		r := setupSummaryRouter(NewSummaryHandler(svc))

		rec := doRequest(r, "GET", "/summary/monthly?year=2024&month=4", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMonth != billing.NewMonth(2024, 4) {
			t.Errorf("expected month 2024-04, got %v", gotMonth)
		}
		result := parseJSON(t, rec)
		summary := result["summary"].(map[string]interface{})
		if summary["net"] != "800" {
			t.Errorf("expected net 800, got %v", summary["net"])
		}
	})

	t.Run("rejects year without month", func(t *testing.T) {
		r := setupSummaryRouter(NewSummaryHandler(&mockSummaryService{}))

		rec := doRequest(r, "GET", "/summary/monthly?year=2024", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewSummaryHandler(&mockSummaryService{})
		r := gin.New()
		r.GET("/summary/monthly", handler.GetMonthlySummary)

		rec := doRequest(r, "GET", "/summary/monthly", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
