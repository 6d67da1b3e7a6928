package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/models"
)

func newTestRegistry(t *testing.T) *Service {
	t.Helper()
	return NewService(filepath.Join(t.TempDir(), "model_registry.json"), arbor.NewLogger())
}

func TestRegister_AssignsSequentialVersions(t *testing.T) {
	service := newTestRegistry(t)

	first, err := service.Register("baseline", nil, models.ModelStatusCandidate)
	require.NoError(t, err)
	second, err := service.Register("baseline", nil, models.ModelStatusCandidate)
	require.NoError(t, err)

	assert.Equal(t, "001", first.Version)
	assert.Equal(t, "002", second.Version)
}

func TestPromote_ArchivesOtherVersions(t *testing.T) {
	service := newTestRegistry(t)
	_, err := service.Register("baseline", nil, models.ModelStatusCandidate)
	require.NoError(t, err)
	_, err = service.Register("baseline", nil, models.ModelStatusCandidate)
	require.NoError(t, err)

	require.NoError(t, service.Promote("002"))

	history, err := service.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ModelStatusArchived, history[0].Status)
	assert.Equal(t, models.ModelStatusProduction, history[1].Status)
}

func TestRollback_ReinstatesPreviousVersion(t *testing.T) {
	service := newTestRegistry(t)
	_, err := service.Register("baseline", nil, models.ModelStatusCandidate)
	require.NoError(t, err)
	_, err = service.Register("baseline", nil, models.ModelStatusCandidate)
	require.NoError(t, err)
	require.NoError(t, service.Promote("002"))

	require.NoError(t, service.Rollback("001"))

	history, err := service.History()
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusProduction, history[0].Status)
	assert.Equal(t, models.ModelStatusArchived, history[1].Status)
}

func TestPromote_UnknownVersion(t *testing.T) {
	service := newTestRegistry(t)

	err := service.Promote("999")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestUpdateMetrics_MergesIntoRecord(t *testing.T) {
	service := newTestRegistry(t)
	record, err := service.Register("baseline", map[string]interface{}{"rows": 5}, models.ModelStatusCandidate)
	require.NoError(t, err)

	require.NoError(t, service.UpdateMetrics(record.Version, map[string]interface{}{"dataset_score": 0.9}))

	history, err := service.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 0.9, history[0].Metrics["dataset_score"])
	assert.NotNil(t, history[0].Metrics["rows"])
}

func TestHistory_EmptyRegistry(t *testing.T) {
	service := newTestRegistry(t)

	history, err := service.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}
