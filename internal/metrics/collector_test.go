package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestCollector() *Collector {
	return NewCollector("flowkit_test", prometheus.NewRegistry(), zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	c := newTestCollector()

	assert.NotNil(t, c)
	assert.NotNil(t, c.stageExecutions)
	assert.NotNil(t, c.stageDuration)
	assert.NotNil(t, c.runsTotal)
	assert.NotNil(t, c.runDuration)
}

func TestCollector_RecordStage(t *testing.T) {
	c := newTestCollector()

	c.RecordStage("step", "ok", 100*time.Millisecond)
	c.RecordStage("step", "error", 50*time.Millisecond)
	c.RecordStage("parallel", "ok", 200*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.stageExecutions.WithLabelValues("step", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.stageExecutions.WithLabelValues("step", "error")))
	assert.Greater(t, testutil.CollectAndCount(c.stageDuration), 0)
}

func TestCollector_RecordRun(t *testing.T) {
	c := newTestCollector()

	c.RecordRun("ok", time.Second)
	c.RecordRun("ok", 2*time.Second)
	c.RecordRun("error", 100*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.runsTotal.WithLabelValues("error")))
}
