package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pharmacy-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubPaymentService struct {
	priceCalls int
	lastPrice  decimal.Decimal
}

func (s *stubPaymentService) SetLinePrice(ctx context.Context, doctorID uuid.UUID, orderID, lineID string, price decimal.Decimal) (service.OrderResponse, error) {
	s.priceCalls++
	s.lastPrice = price
	return service.OrderResponse{}, nil
}

func (s *stubPaymentService) SelectMethod(ctx context.Context, doctorID uuid.UUID, orderID, method string) (service.OrderResponse, error) {
	return service.OrderResponse{}, nil
}

func (s *stubPaymentService) ConfirmPayment(ctx context.Context, doctorID uuid.UUID, orderID, method string, amount decimal.Decimal) (service.ConfirmPaymentResponse, error) {
	return service.ConfirmPaymentResponse{}, nil
}

func putPrice(t *testing.T, svc service.PaymentService, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPut, "/api/orders/o/lines/l/price", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{
		{Key: "id", Value: uuid.NewString()},
		{Key: "lineId", Value: uuid.NewString()},
	}
	c.Set("doctorID", uuid.NewString())
	NewPaymentHandler(svc).SavePrice(c)
	return w
}

func TestSavePriceRequiresPriceField(t *testing.T) {
	svc := &stubPaymentService{}
	w := putPrice(t, svc, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when price is absent", w.Code)
	}
	if svc.priceCalls != 0 {
		t.Errorf("service called %d times for a payload without a price", svc.priceCalls)
	}
}

func TestSavePriceAcceptsExplicitZero(t *testing.T) {
	svc := &stubPaymentService{}
	w := putPrice(t, svc, `{"price": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for an explicit zero price", w.Code)
	}
	if svc.priceCalls != 1 || !svc.lastPrice.IsZero() {
		t.Errorf("calls = %d, price = %s, want one call carrying 0", svc.priceCalls, svc.lastPrice)
	}
}
