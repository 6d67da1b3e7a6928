package masterdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/models"
)

func newTestService(t *testing.T, records ...models.MasterRecord) *Service {
	t.Helper()
	service, err := NewService(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)
	for _, record := range records {
		require.NoError(t, service.Upsert(record))
	}
	return service
}

func TestRatio_IdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("MEC", "MEC"))
}

func TestRatio_NoOverlap(t *testing.T) {
	assert.Equal(t, 0.0, Ratio("XYZ", "ABC"))
}

func TestRatio_SingleCharacterSuffix(t *testing.T) {
	// MECX vs MEC: 3 matching of 7 runes total gives 6/7.
	assert.InDelta(t, 6.0/7.0, Ratio("MECX", "MEC"), 0.0001)
}

func TestRatio_EmptyStrings(t *testing.T) {
	assert.Equal(t, 0.0, Ratio("", "MEC"))
	assert.Equal(t, 1.0, Ratio("", ""))
}

func TestMatch_ExactHit(t *testing.T) {
	service := newTestService(t, models.MasterRecord{Sigla: "MEC", Descricao: "Ministério da Educação"})

	matched, meta := service.Match("mec")
	require.NotNil(t, meta)
	assert.Equal(t, "MEC", matched)
	assert.Equal(t, "Ministério da Educação", meta.Descricao)
}

func TestMatch_FuzzyHitAboveCutoff(t *testing.T) {
	service := newTestService(t, models.MasterRecord{Sigla: "MEC", Descricao: "Ministério da Educação"})

	matched, meta := service.Match("MECX")
	require.NotNil(t, meta)
	assert.Equal(t, "MEC", matched)
}

func TestMatch_BelowCutoffReturnsUppercase(t *testing.T) {
	service := newTestService(t, models.MasterRecord{Sigla: "MEC", Descricao: "Ministério da Educação"})

	matched, meta := service.Match("zzzz")
	assert.Nil(t, meta)
	assert.Equal(t, "ZZZZ", matched)
}

func TestMatch_EmptyRegistry(t *testing.T) {
	service := newTestService(t)

	matched, meta := service.Match("mec")
	assert.Nil(t, meta)
	assert.Equal(t, "MEC", matched)
}

func TestMatch_PicksClosestKey(t *testing.T) {
	service := newTestService(t,
		models.MasterRecord{Sigla: "INEP", Descricao: "Instituto"},
		models.MasterRecord{Sigla: "FNDE", Descricao: "Fundo"},
	)

	matched, meta := service.Match("INEPE")
	require.NotNil(t, meta)
	assert.Equal(t, "INEP", matched)
}
