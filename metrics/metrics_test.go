package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePass(t *testing.T) {
	before := testutil.ToFloat64(Passes.WithLabelValues("test"))
	ObservePass("test", 12, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(Passes.WithLabelValues("test")))
}

func TestLoaderRowsGauge(t *testing.T) {
	LoaderRows.WithLabelValues("fixture.csv").Set(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(LoaderRows.WithLabelValues("fixture.csv")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
}
