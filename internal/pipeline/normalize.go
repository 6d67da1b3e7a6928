package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/masterdata"
)

// Normalizer rewrites raw extracted records into canonical form: tipo
// codes, lista name/symbol splitting, sigla resolution against the
// master registry and per-context ordering numbers.
type Normalizer struct {
	master *masterdata.Service
}

// NewNormalizer returns a normalizer backed by the master registry.
func NewNormalizer(master *masterdata.Service) *Normalizer {
	return &Normalizer{master: master}
}

// counterKey scopes NUM_ORDEM assignment. Orgao, sigla and lista are
// compared case-insensitively.
type counterKey struct {
	dtmnfr string
	orgao  string
	sigla  string
	lista  string
	tipo   string
}

// Normalize transforms every record in order. Input records are not
// mutated; raw lista and sigla shadows are preserved on the output for
// validation.
func (n *Normalizer) Normalize(records []models.Record) []models.Record {
	counters := make(map[counterKey]int)
	out := make([]models.Record, 0, len(records))

	for _, raw := range records {
		record := raw.Clone()

		record[models.ColTipo] = normalizeTipo(record.Get(models.ColTipo))

		rawLista := record.Get(models.RawLista)
		if rawLista == "" {
			rawLista = record.Get(models.ColNomeLista)
		}
		name, symbol := splitLista(rawLista)
		record[models.ColNomeLista] = name
		record[models.ColSimbolo] = symbol
		record[models.ColIndependente] = independente(rawLista)

		rawSigla := record.Get(models.RawSigla)
		if rawSigla == "" {
			rawSigla = record.Get(models.ColSigla)
		}
		if rawSigla != "" {
			resolved, meta := n.master.Match(rawSigla)
			record[models.ColSigla] = resolved
			if meta != nil {
				record[models.ColPartidoProponente] = meta.Descricao
			} else if record.Get(models.ColPartidoProponente) == "" {
				record[models.ColPartidoProponente] = strings.ToUpper(rawSigla)
			}
		}

		record[models.ColNomeCandidato] = collapseWhitespace(record.Get(models.ColNomeCandidato))

		tipo := record.Get(models.ColTipo)
		if tipo != "" {
			key := counterKey{
				dtmnfr: record.Get(models.ColDTMNFR),
				orgao:  strings.ToUpper(record.Get(models.ColOrgao)),
				sigla:  strings.ToUpper(record.Get(models.ColSigla)),
				lista:  strings.ToUpper(record.Get(models.ColNomeLista)),
				tipo:   tipo,
			}
			counters[key]++
			record[models.ColNumOrdem] = strconv.Itoa(counters[key])
		}

		out = append(out, record)
	}
	return out
}

// normalizeTipo maps raw role designations to wire codes: titulares to
// "2", suplentes and anything else non-empty to "3".
func normalizeTipo(value string) string {
	upper := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case upper == "":
		return ""
	case strings.HasPrefix(upper, "TITULAR"):
		return "2"
	case strings.HasPrefix(upper, "SUPLENTE"):
		return "3"
	case upper == "2" || upper == "3":
		return upper
	default:
		return "3"
	}
}

// splitLista separates a raw lista value into display name and symbol.
// Branches are tried in order: coligacao prefix strip, " - " suffix,
// parenthesized symbol, "§"-marked symbol, initials for stripped
// coligacao names, else the raw value with no symbol.
func splitLista(raw string) (string, string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ""
	}

	working := value
	removedPrefix := false
	if strings.HasPrefix(strings.ToLower(working), "coligacao ") {
		working = strings.TrimSpace(working[len("coligacao "):])
		removedPrefix = true
	}

	switch {
	case strings.Contains(working, " - "):
		idx := strings.LastIndex(working, " - ")
		return strings.TrimSpace(working[:idx]), strings.TrimSpace(working[idx+3:])

	case strings.Contains(working, "("):
		open := strings.Index(working, "(")
		name := strings.TrimSpace(working[:open])
		symbol := working[open+1:]
		if close := strings.Index(symbol, ")"); close >= 0 {
			symbol = symbol[:close]
		}
		return name, strings.TrimSpace(symbol)

	case strings.Contains(value, "§"):
		left, right, _ := strings.Cut(value, "§")
		symbol := ""
		if fields := strings.Fields(left); len(fields) > 0 {
			symbol = fields[len(fields)-1]
		}
		name := strings.TrimSpace(right)
		if name == "" {
			name = working
		}
		return name, symbol

	case removedPrefix:
		return working, initials(working)

	default:
		return value, ""
	}
}

// initials builds an uppercase acronym from the leading letters of the
// alphabetic tokens in name.
func initials(name string) string {
	var builder strings.Builder
	for _, token := range strings.Fields(name) {
		first := []rune(token)[0]
		if unicode.IsLetter(first) {
			builder.WriteRune(unicode.ToUpper(first))
		}
	}
	return builder.String()
}

// independente classifies the raw lista: coalitions are party-backed,
// "lista unica" entries are independent, empty stays undecided.
func independente(rawLista string) string {
	lowered := strings.ToLower(rawLista)
	switch {
	case strings.Contains(lowered, "coligacao"):
		return "N"
	case strings.Contains(lowered, "lista unica"):
		return "S"
	case strings.TrimSpace(lowered) == "":
		return ""
	default:
		return "N"
	}
}

func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
