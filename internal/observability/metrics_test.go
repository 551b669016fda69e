package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUnit(t *testing.T) {
	before := testutil.ToFloat64(unitsTotal.WithLabelValues("Transfer", "committed"))
	ObserveUnit("Transfer", "committed", 3*time.Millisecond)
	after := testutil.ToFloat64(unitsTotal.WithLabelValues("Transfer", "committed"))

	assert.Equal(t, before+1, after)
}

func TestAddVolume_IgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(volumeMinorUnits.WithLabelValues("TOP_UP"))
	AddVolume("TOP_UP", 2500)
	AddVolume("TOP_UP", 0)
	AddVolume("TOP_UP", -10)
	after := testutil.ToFloat64(volumeMinorUnits.WithLabelValues("TOP_UP"))

	assert.Equal(t, before+2500, after)
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/status", "200"))
	ObserveHTTP("GET", "/status", 200, time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/status", "200"))

	assert.Equal(t, before+1, after)
}
