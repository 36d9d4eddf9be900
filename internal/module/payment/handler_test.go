package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/provider"
	"github.com/payflow/server/internal/module/payment/token"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(svc, zap.NewNop())
	handler.RegisterRoutes(router.Group("/api/v1"), router)
	return router
}

func TestHandlerFinalizeRedirectsToFinishURL(t *testing.T) {
	methodID := uuid.New()
	tx := openTransaction(methodID)
	tx.Status = domain.StatusInProgress
	gateway := newMockGateway(tx)

	registry := provider.NewRegistry()
	registry.Register(methodID, &mockModern{})

	codec := &mockCodec{decodeTok: decodedToken(tx)}
	router := newTestRouter(newTestService(gateway, registry, codec))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payment/finalize-transaction?_token=bearer-token", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop/finish", rec.Header().Get("Location"))
}

func TestHandlerFinalizeRedirectsToErrorURLWithCode(t *testing.T) {
	methodID := uuid.New()
	tx := openTransaction(methodID)
	tx.Status = domain.StatusInProgress
	gateway := newMockGateway(tx)

	registry := provider.NewRegistry()
	registry.Register(methodID, &mockModern{finalizeErr: provider.ErrCustomerCanceled})

	codec := &mockCodec{decodeTok: decodedToken(tx)}
	router := newTestRouter(newTestService(gateway, registry, codec))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payment/finalize-transaction?_token=bearer-token", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop/error?error-code=CUSTOMER_CANCELED_EXTERNAL", rec.Header().Get("Location"))
}

func TestHandlerFinalizeInvalidTokenAnswersJSON(t *testing.T) {
	codec := &mockCodec{decodeErr: token.ErrMalformed}
	router := newTestRouter(newTestService(newMockGateway(), provider.NewRegistry(), codec))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payment/finalize-transaction?_token=garbage", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeInvalidToken, body.Error.Code)
}

func TestHandlerPay(t *testing.T) {
	methodID := uuid.New()
	tx := openTransaction(methodID)
	gateway := newMockGateway(tx)

	registry := provider.NewRegistry()
	registry.Register(methodID, &mockModern{payResp: &provider.RedirectResponse{URL: "https://gateway/pay"}})

	router := newTestRouter(newTestService(gateway, registry, &mockCodec{}))

	payload, _ := json.Marshal(PayRequest{FinishURL: "https://shop/finish"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/order/"+tx.OrderID.String()+"/pay", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp PayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://gateway/pay", resp.RedirectURL)
}

func TestHandlerCreateTransaction(t *testing.T) {
	methodID := uuid.New()
	gateway := newMockGateway()

	registry := provider.NewRegistry()
	registry.Register(methodID, &mockModern{})

	router := newTestRouter(newTestService(gateway, registry, &mockCodec{}))

	payload, _ := json.Marshal(CreateTransactionRequest{
		PaymentMethodID: methodID.String(),
		Amount:          4200,
		Currency:        "EUR",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/order/"+uuid.NewString()+"/transaction", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandlerPayInvalidOrderID(t *testing.T) {
	router := newTestRouter(newTestService(newMockGateway(), provider.NewRegistry(), &mockCodec{}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/order/not-a-uuid/pay", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, zap.NewNop())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	h.respondError(c, errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	h.respondError(c, NewPaymentProcessError(errors.New("declined")))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), CodePaymentProcessError)
}
