package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ternarybob/diario/internal/models"
)

// labelColumns maps folded "label:" prefixes to canonical columns.
var labelColumns = map[string]string{
	"dtmnfr":             models.ColDTMNFR,
	"competencia":        models.ColDTMNFR,
	"orgao":              models.ColOrgao,
	"lista":              models.ColNomeLista,
	"tipo":               models.ColTipo,
	"sigla":              models.ColSigla,
	"descricao":          models.ColNomeCandidato,
	"partido_proponente": models.ColPartidoProponente,
}

// metadataLabels are recognized in the preamble, before the first
// orgao line, and become defaults for every extracted record.
var metadataLabels = map[string]string{
	"dtmnfr": models.ColDTMNFR,
}

var labelFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldLabel canonicalizes a raw label: accents stripped, lowercased,
// hyphens and spaces collapsed to underscores.
func foldLabel(label string) string {
	folded, _, err := transform.String(labelFolder, label)
	if err != nil {
		folded = label
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "-", "_")
	folded = strings.ReplaceAll(folded, " ", "_")
	return folded
}

// ExtractRecords walks merged layout entries and assembles raw records.
// A record closes on a blank line, on a second orgao label, or at end
// of input; plain text lines extend the candidate name of an open
// record. Raw lista and sigla values are shadowed for downstream
// normalization and validation.
func ExtractRecords(entries []LayoutEntry) []models.Record {
	var records []models.Record
	current := models.Record{}
	metadata := map[string]string{}
	seenOrgao := false

	finalize := func() {
		if len(current) == 0 {
			return
		}
		for column, value := range metadata {
			if current.Get(column) == "" {
				current[column] = value
			}
		}
		records = append(records, current)
		current = models.Record{}
	}

	for _, entry := range entries {
		text := strings.TrimSpace(entry.Content)
		if text == "" {
			if hasContent(current) {
				finalize()
			}
			continue
		}

		idx := strings.Index(text, ":")
		if idx < 0 {
			// Plain text continues the candidate name of an open record.
			if hasContent(current) {
				if existing := current.Get(models.ColNomeCandidato); existing != "" {
					current[models.ColNomeCandidato] = existing + " " + text
				} else {
					current[models.ColNomeCandidato] = text
				}
			}
			continue
		}

		label := foldLabel(strings.TrimSpace(text[:idx]))
		value := strings.TrimSpace(text[idx+1:])

		if !seenOrgao {
			if column, ok := metadataLabels[label]; ok {
				metadata[column] = value
				continue
			}
		}

		if label == "orgao" {
			seenOrgao = true
			if current.Get(models.ColOrgao) != "" {
				finalize()
			}
		}

		column, ok := labelColumns[label]
		if !ok {
			continue
		}
		switch column {
		case models.ColNomeLista:
			current[models.RawLista] = value
		case models.ColSigla:
			current[models.RawSigla] = value
		}
		current[column] = value
	}

	finalize()
	return records
}

// hasContent reports whether the open record has accumulated any of
// the fields that make it a real nomination row.
func hasContent(record models.Record) bool {
	for _, column := range []string{models.ColOrgao, models.ColNomeLista, models.ColTipo, models.ColNomeCandidato} {
		if record.Get(column) != "" {
			return true
		}
	}
	return false
}
