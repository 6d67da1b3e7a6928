package masterdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/models"
)

func TestService_UpsertAndGet(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.Upsert(models.MasterRecord{Sigla: "mec", Descricao: "Ministério da Educação"}))

	record, ok := service.Get("MEC")
	require.True(t, ok)
	assert.Equal(t, "Ministério da Educação", record.Descricao)
}

func TestService_ListSortedBySigla(t *testing.T) {
	service := newTestService(t,
		models.MasterRecord{Sigla: "INEP", Descricao: "Instituto"},
		models.MasterRecord{Sigla: "CAPES", Descricao: "Coordenação"},
	)

	records, err := service.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"CAPES", "INEP"}, service.Keys())
}

func TestService_ReloadPicksUpArrayFiles(t *testing.T) {
	dir := t.TempDir()
	payload := `[{"sigla": "MEC", "descricao": "Ministério da Educação"},
		{"sigla": "FNDE", "descricao": "Fundo"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bulk.json"), []byte(payload), 0644))

	service, err := NewService(dir, arbor.NewLogger())
	require.NoError(t, err)

	_, ok := service.Get("MEC")
	assert.True(t, ok)
	_, ok = service.Get("FNDE")
	assert.True(t, ok)
}

func TestService_VersionEmptyRegistry(t *testing.T) {
	service := newTestService(t)

	version, err := service.Version()
	require.NoError(t, err)
	assert.Equal(t, "empty", version)
}

func TestService_VersionDeterministic(t *testing.T) {
	records := []models.MasterRecord{
		{Sigla: "MEC", Descricao: "Ministério da Educação"},
		{Sigla: "INEP", Descricao: "Instituto"},
	}
	first := newTestService(t, records...)
	second := newTestService(t, records[1], records[0])

	v1, err := first.Version()
	require.NoError(t, err)
	v2, err := second.Version()
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestService_VersionChangesWithContent(t *testing.T) {
	service := newTestService(t, models.MasterRecord{Sigla: "MEC", Descricao: "Ministério"})
	before, err := service.Version()
	require.NoError(t, err)

	require.NoError(t, service.Upsert(models.MasterRecord{Sigla: "INEP", Descricao: "Instituto"}))
	after, err := service.Version()
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}
