package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementAndCounter(t *testing.T) {
	service := NewService()

	service.Increment("jobs.created")
	service.Increment("jobs.created")
	service.Add("jobs.created", 3)

	assert.Equal(t, int64(5), service.Counter("jobs.created"))
	assert.Equal(t, int64(0), service.Counter("jobs.queued"))
}

func TestGauge(t *testing.T) {
	service := NewService()

	service.SetGauge("api.startup", 1)

	assert.Equal(t, 1.0, service.Gauge("api.startup"))
	assert.Equal(t, 0.0, service.Gauge("missing"))
}

func TestSnapshot(t *testing.T) {
	service := NewService()
	service.Increment("worker.jobs.completed")
	service.SetGauge("api.startup", 1)

	snapshot := service.Snapshot()

	assert.Equal(t, 1.0, snapshot["worker.jobs.completed"])
	assert.Equal(t, 1.0, snapshot["api.startup"])
}

func TestDefault_SharedInstance(t *testing.T) {
	Reset()
	Default().Increment("api.healthcheck")

	assert.Equal(t, int64(1), Default().Counter("api.healthcheck"))
	Reset()
	assert.Equal(t, int64(0), Default().Counter("api.healthcheck"))
}
