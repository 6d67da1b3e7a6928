package models

// Canonical output columns, in CSV order.
const (
	ColDTMNFR            = "DTMNFR"
	ColOrgao             = "ORGAO"
	ColTipo              = "TIPO"
	ColSigla             = "SIGLA"
	ColSimbolo           = "SIMBOLO"
	ColNomeLista         = "NOME_LISTA"
	ColNumOrdem          = "NUM_ORDEM"
	ColNomeCandidato     = "NOME_CANDIDATO"
	ColPartidoProponente = "PARTIDO_PROPONENTE"
	ColIndependente      = "INDEPENDENTE"
)

// Shadow keys carrying pre-normalization text for the validator.
const (
	RawLista = "_raw_lista"
	RawSigla = "_raw_sigla"
)

// Columns is the canonical column order of the output CSV and preview.
var Columns = []string{
	ColDTMNFR,
	ColOrgao,
	ColTipo,
	ColSigla,
	ColSimbolo,
	ColNomeLista,
	ColNumOrdem,
	ColNomeCandidato,
	ColPartidoProponente,
	ColIndependente,
}

// Record maps canonical column names to string values. Missing columns
// read as the empty string. Shadow keys are never written to the CSV.
type Record map[string]string

// Get returns the value for a column, or "" when absent.
func (r Record) Get(column string) string {
	return r[column]
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
