package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New("payflow_test_new")
	require.NotNil(t, m)
	assert.NotNil(t, m.PaymentFlowsTotal)
	assert.NotNil(t, m.ProviderCallDuration)
	assert.NotNil(t, m.TransactionTransitions)
}

func TestRecordFlow(t *testing.T) {
	m := New("payflow_test_flow")

	m.RecordFlow("pay", "success")
	m.RecordFlow("pay", "success")
	m.RecordFlow("finalize", "failed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PaymentFlowsTotal.WithLabelValues("pay", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PaymentFlowsTotal.WithLabelValues("finalize", "failed")))
}

func TestRecordTransition(t *testing.T) {
	m := New("payflow_test_transition")

	m.RecordTransition("open", "failed")
	m.RecordTransition("open", "failed")
	m.RecordTransition("open", "canceled")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.TransactionTransitions.WithLabelValues("open", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransactionTransitions.WithLabelValues("open", "canceled")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New("payflow_test_http")

	m.RecordHTTPRequest("POST", "/api/v1/payment", 200, 50*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/payment", 402, 10*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/payment", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/payment", "4xx")))
}

func TestStatusCodeToString(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToString(204))
	assert.Equal(t, "3xx", statusCodeToString(302))
	assert.Equal(t, "4xx", statusCodeToString(422))
	assert.Equal(t, "5xx", statusCodeToString(503))
}
