package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/diario/internal/models"
)

func badgeFor(badges []models.Badge, field string) (models.Badge, bool) {
	for _, badge := range badges {
		if badge.Field == field {
			return badge, true
		}
	}
	return models.Badge{}, false
}

func validRow(tipo, numOrdem string) models.Record {
	return models.Record{
		models.ColDTMNFR:    "2024-01-15",
		models.ColOrgao:     "Conselho Municipal",
		models.ColNomeLista: "Lista A",
		models.ColTipo:      tipo,
		models.ColSigla:     "MEC",
		models.RawSigla:     "MEC",
		models.ColNumOrdem:  numOrdem,
	}
}

func rawRow(tipo string) models.Record {
	return models.Record{models.ColTipo: tipo}
}

func TestValidate_CleanRow(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate(
		[]models.Record{validRow("2", "1"), validRow("3", "2")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente")}},
	)

	require.Len(t, badges, 2)
	for _, row := range badges {
		for _, badge := range row {
			assert.Equal(t, models.BadgeOk, badge.Status, "field %s", badge.Field)
		}
	}
}

func TestValidate_BadgeOrderFollowsFieldOrder(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate(
		[]models.Record{validRow("2", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente")}},
	)

	fields := make([]string, len(badges[0]))
	for i, badge := range badges[0] {
		fields[i] = badge.Field
	}
	assert.Equal(t, FieldOrder, fields)
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate([]models.Record{{}}, Context{RawRecords: []models.Record{{}}})

	require.Len(t, badges, 1)
	orgao, _ := badgeFor(badges[0], "orgao")
	assert.Equal(t, models.BadgeErro, orgao.Status)
	lista, _ := badgeFor(badges[0], "lista")
	assert.Equal(t, models.BadgeErro, lista.Status)
	tipo, _ := badgeFor(badges[0], "tipo")
	assert.Equal(t, models.BadgeErro, tipo.Status)
	sigla, _ := badgeFor(badges[0], "sigla")
	assert.Equal(t, models.BadgeAviso, sigla.Status)
	dtmnfr, _ := badgeFor(badges[0], "dtmnfr")
	assert.Equal(t, models.BadgeAviso, dtmnfr.Status)
	assert.Equal(t, "Data de nomeação ausente", dtmnfr.Message)
}

func TestValidate_DateFormats(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	iso := validRow("2", "1")
	br := validRow("3", "1")
	br[models.ColDTMNFR] = "15/02/2024"
	bad := validRow("3", "2")
	bad[models.ColDTMNFR] = "2024/14/01"

	badges := validator.Validate(
		[]models.Record{iso, br, bad},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente"), rawRow("Suplente")}},
	)

	first, _ := badgeFor(badges[0], "dtmnfr")
	assert.Equal(t, models.BadgeOk, first.Status)
	second, _ := badgeFor(badges[1], "dtmnfr")
	assert.Equal(t, models.BadgeOk, second.Status)
	third, _ := badgeFor(badges[2], "dtmnfr")
	assert.Equal(t, models.BadgeErro, third.Status)
}

func TestValidate_InvalidRawTipo(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate(
		[]models.Record{validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Observador")}},
	)

	tipo, _ := badgeFor(badges[0], "tipo")
	assert.Equal(t, models.BadgeErro, tipo.Status)
	assert.Equal(t, "Tipo inválido", tipo.Message)
}

func TestValidate_GceTipoAccepted(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate(
		[]models.Record{validRow("3", "1"), validRow("3", "2")},
		Context{RawRecords: []models.Record{rawRow("GCE"), rawRow("Suplente")}},
	)

	tipo, _ := badgeFor(badges[0], "tipo")
	assert.Equal(t, models.BadgeOk, tipo.Status)
}

func TestValidate_SiglaNotFound(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	row := validRow("2", "1")
	row[models.ColSigla] = "ZZZZ"
	row[models.RawSigla] = "zzzz"

	badges := validator.Validate(
		[]models.Record{row, validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente")}},
	)

	sigla, _ := badgeFor(badges[0], "sigla")
	assert.Equal(t, models.BadgeErro, sigla.Status)
	assert.Equal(t, "Sigla não encontrada no cadastro mestre", sigla.Message)
}

func TestValidate_SiglaAdjustedWarning(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	row := validRow("2", "1")
	row[models.ColSigla] = "MEC"
	row[models.RawSigla] = "MECX"

	badges := validator.Validate(
		[]models.Record{row, validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente")}},
	)

	sigla, _ := badgeFor(badges[0], "sigla")
	assert.Equal(t, models.BadgeAviso, sigla.Status)
	assert.Equal(t, "Sigla ajustada para cadastro mestre", sigla.Message)
}

func TestValidate_NumOrdemGap(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate(
		[]models.Record{validRow("2", "1"), validRow("2", "3"), validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Titular"), rawRow("Suplente")}},
	)

	first, _ := badgeFor(badges[0], "num_ordem")
	assert.Equal(t, models.BadgeOk, first.Status)
	second, _ := badgeFor(badges[1], "num_ordem")
	assert.Equal(t, models.BadgeAviso, second.Status)
	assert.Contains(t, second.Message, "Número de ordem esperado 2")
}

func TestValidate_NumOrdemInvalid(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	row := validRow("2", "abc")

	badges := validator.Validate(
		[]models.Record{row, validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente")}},
	)

	numOrdem, _ := badgeFor(badges[0], "num_ordem")
	assert.Equal(t, models.BadgeErro, numOrdem.Status)
	assert.Equal(t, "Número de ordem inválido", numOrdem.Message)
}

func TestValidate_ListaWithoutSuplentes(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	badges := validator.Validate(
		[]models.Record{validRow("2", "1"), validRow("2", "2")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Titular")}},
	)

	lista, _ := badgeFor(badges[0], "lista")
	assert.Equal(t, models.BadgeAviso, lista.Status)
	assert.Equal(t, "Lista sem suplentes cadastrados", lista.Message)

	// Only the first row of the lista carries the warning.
	second, _ := badgeFor(badges[1], "lista")
	assert.Equal(t, models.BadgeOk, second.Status)
}

func TestValidate_OrgaoInvalidCharacters(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	row := validRow("2", "1")
	row[models.ColOrgao] = "Conselho @ Municipal"

	badges := validator.Validate(
		[]models.Record{row, validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Suplente")}},
	)

	orgao, _ := badgeFor(badges[0], "orgao")
	assert.Equal(t, models.BadgeAviso, orgao.Status)
	assert.Equal(t, "Formato de órgão inesperado", orgao.Message)
}

func TestValidate_NumOrdemRestartsWithinLista(t *testing.T) {
	validator := NewValidator(newTestMaster(t))

	// Suplente numbering restarts at 1 inside the same lista, so the
	// lista-wide sequence 1, 2, 1 flags the duplicated 1.
	badges := validator.Validate(
		[]models.Record{validRow("2", "1"), validRow("2", "2"), validRow("3", "1")},
		Context{RawRecords: []models.Record{rawRow("Titular"), rawRow("Titular"), rawRow("Suplente")}},
	)

	first, _ := badgeFor(badges[0], "num_ordem")
	assert.Equal(t, models.BadgeOk, first.Status)
	second, _ := badgeFor(badges[1], "num_ordem")
	assert.Equal(t, models.BadgeOk, second.Status)
	third, _ := badgeFor(badges[2], "num_ordem")
	assert.Equal(t, models.BadgeAviso, third.Status)
	assert.Contains(t, third.Message, "Número de ordem esperado 2 para a lista 'Lista A'")
}
