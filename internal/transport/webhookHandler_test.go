package transport

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtsidehq/booking-server/internal/entity"
	"github.com/courtsidehq/booking-server/internal/payments"
)

type stubGateway struct {
	event     *payments.Event
	verifyErr error

	gotPayload   []byte
	gotSignature string
}

func (g *stubGateway) CreateCustomer(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (g *stubGateway) CreatePaymentIntent(context.Context, payments.CreateIntentInput) (*payments.PaymentIntent, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) CreateRefund(context.Context, string, int64) error {
	return errors.New("not implemented")
}

func (g *stubGateway) GetSubscription(context.Context, string) (*payments.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) VerifyWebhook(payload []byte, signatureHeader string) (*payments.Event, error) {
	g.gotPayload = payload
	g.gotSignature = signatureHeader
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

type stubWebhookService struct {
	processErr error
	processed  []*payments.Event
}

func (s *stubWebhookService) Process(_ context.Context, event *payments.Event) error {
	s.processed = append(s.processed, event)
	return s.processErr
}

func newWebhookTestRouter(gateway *stubGateway, svc *stubWebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	handler := NewWebhookHandler(gateway, svc, logger)

	router := gin.New()
	router.POST("/webhooks/payment", handler.HandlePaymentWebhook)
	return router
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewBufferString(body))
	req.Header.Set("Stripe-Signature", signature)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	gateway := &stubGateway{verifyErr: entity.ErrSignatureInvalid}
	svc := &stubWebhookService{}
	router := newWebhookTestRouter(gateway, svc)

	w := postWebhook(router, `{"id":"evt_1"}`, "t=bad")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Nothing past the signature check may touch the payload.
	assert.Empty(t, svc.processed)
}

func TestWebhookVerifiesRawBody(t *testing.T) {
	gateway := &stubGateway{event: &payments.Event{ID: "evt_1", Type: "payment_intent.succeeded"}}
	svc := &stubWebhookService{}
	router := newWebhookTestRouter(gateway, svc)

	body := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	w := postWebhook(router, body, "t=123,v1=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, string(gateway.gotPayload))
	assert.Equal(t, "t=123,v1=abc", gateway.gotSignature)

	require.Len(t, svc.processed, 1)
	assert.Equal(t, "evt_1", svc.processed[0].ID)
}

func TestWebhookProcessingFailureAnswers500(t *testing.T) {
	gateway := &stubGateway{event: &payments.Event{ID: "evt_1", Type: "payment_intent.succeeded"}}
	svc := &stubWebhookService{processErr: errors.New("db down")}
	router := newWebhookTestRouter(gateway, svc)

	w := postWebhook(router, `{"id":"evt_1"}`, "t=123,v1=abc")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookAcknowledgesUnrecognizedTypes(t *testing.T) {
	// The service treats unknown types as handled; the handler answers 200
	// so the gateway stops redelivering them.
	gateway := &stubGateway{event: &payments.Event{ID: "evt_1", Type: "charge.refund.updated"}}
	svc := &stubWebhookService{}
	router := newWebhookTestRouter(gateway, svc)

	w := postWebhook(router, `{"id":"evt_1"}`, "t=123,v1=abc")

	assert.Equal(t, http.StatusOK, w.Code)
}
