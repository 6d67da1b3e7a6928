package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/masterdata"
)

// FieldOrder fixes the presentation order of validation badges.
var FieldOrder = []string{"orgao", "lista", "tipo", "sigla", "dtmnfr", "num_ordem"}

// Context carries cross-cutting inputs for a validation run. Raw
// records are index-aligned with the normalized rows and keep the
// pre-normalization tipo designations.
type Context struct {
	RawRecords  []models.Record
	OCRConfMean float64
}

// Validator applies row-level and cross-row rules to normalized
// records and produces one badge list per row.
type Validator struct {
	master *masterdata.Service
}

// NewValidator returns a validator backed by the master registry.
func NewValidator(master *masterdata.Service) *Validator {
	return &Validator{master: master}
}

var orgaoPattern = regexp.MustCompile(`^[A-Za-zÀ-ÿ0-9 .,'ºª/&()\-]+$`)

var validRawTipos = map[string]bool{
	"TITULAR":  true,
	"SUPLENTE": true,
	"GCE":      true,
}

// Validate runs all rules. Badges for one field merge by severity:
// the higher severity wins, equal severities concatenate messages.
func (v *Validator) Validate(records []models.Record, ctx Context) [][]models.Badge {
	sets := make([]*models.BadgeSet, len(records))
	for i := range records {
		sets[i] = models.NewBadgeSet()
	}

	type orderEntry struct {
		row    int
		number int
	}
	ordersByList := make(map[string][]orderEntry)
	seenOrderKeys := make(map[string]bool)
	firstRowByList := make(map[string]int)
	titularLists := make(map[string]bool)
	suplenteLists := make(map[string]bool)
	var listKeys []string
	var orderKeys []string

	for i, record := range records {
		set := sets[i]

		// Required fields.
		if record.Get(models.ColOrgao) == "" {
			set.Update("orgao", models.BadgeErro, "Valor obrigatório ausente")
		} else {
			set.Update("orgao", models.BadgeOk, "")
		}
		if record.Get(models.ColNomeLista) == "" {
			set.Update("lista", models.BadgeErro, "Valor obrigatório ausente")
		} else {
			set.Update("lista", models.BadgeOk, "")
		}
		if record.Get(models.ColTipo) == "" {
			set.Update("tipo", models.BadgeErro, "Valor obrigatório ausente")
		} else {
			set.Update("tipo", models.BadgeOk, "")
		}
		if record.Get(models.ColSigla) == "" {
			set.Update("sigla", models.BadgeAviso, "Sigla ausente")
		} else {
			set.Update("sigla", models.BadgeOk, "")
		}

		if record.Get(models.ColDTMNFR) == "" {
			set.Update("dtmnfr", models.BadgeAviso, "Data de nomeação ausente")
		} else {
			set.Update("dtmnfr", models.BadgeOk, "")
		}

		// Ordering numbers, collected per lista.
		listKey := strings.ToLower(record.Get(models.ColNomeLista))
		numValue := record.Get(models.ColNumOrdem)
		if numValue == "" {
			set.Update("num_ordem", models.BadgeErro, "Número de ordem ausente")
		} else if number, err := strconv.Atoi(numValue); err != nil {
			set.Update("num_ordem", models.BadgeErro, "Número de ordem inválido")
		} else {
			set.Update("num_ordem", models.BadgeOk, "")
			if listKey != "" {
				ordersByList[listKey] = append(ordersByList[listKey], orderEntry{row: i, number: number})
				if !seenOrderKeys[listKey] {
					seenOrderKeys[listKey] = true
					orderKeys = append(orderKeys, listKey)
				}
			}
		}

		if listKey != "" {
			if _, seen := firstRowByList[listKey]; !seen {
				firstRowByList[listKey] = i
				listKeys = append(listKeys, listKey)
			}
			rawTipo := record.Get(models.ColTipo)
			if i < len(ctx.RawRecords) {
				rawTipo = ctx.RawRecords[i].Get(models.ColTipo)
			}
			switch strings.ToUpper(strings.TrimSpace(rawTipo)) {
			case "TITULAR":
				titularLists[listKey] = true
			case "SUPLENTE":
				suplenteLists[listKey] = true
			}
		}
	}

	for i, record := range records {
		set := sets[i]

		if value := record.Get(models.ColOrgao); value != "" && !orgaoPattern.MatchString(value) {
			set.Update("orgao", models.BadgeAviso, "Formato de órgão inesperado")
		}

		rawTipo := ""
		if i < len(ctx.RawRecords) {
			rawTipo = strings.TrimSpace(ctx.RawRecords[i].Get(models.ColTipo))
		}
		if rawTipo != "" && !validRawTipos[strings.ToUpper(rawTipo)] {
			set.Update("tipo", models.BadgeErro, "Tipo inválido")
		}

		if value := record.Get(models.ColDTMNFR); value != "" && !parsesAsDate(value) {
			set.Update("dtmnfr", models.BadgeErro,
				"Formato de data inválido (use AAAA-MM-DD ou DD/MM/AAAA)")
		}

		rawSigla := record.Get(models.RawSigla)
		if rawSigla == "" {
			rawSigla = record.Get(models.ColSigla)
		}
		if rawSigla != "" {
			matched, meta := v.master.Match(rawSigla)
			if meta == nil {
				set.Update("sigla", models.BadgeErro, "Sigla não encontrada no cadastro mestre")
			} else {
				ratio := masterdata.Ratio(strings.ToUpper(rawSigla), matched)
				switch {
				case ratio < masterdata.FuzzyCutoff:
					set.Update("sigla", models.BadgeErro,
						"Diferença grande entre sigla informada e cadastro mestre")
				case ratio < masterdata.FuzzyWarningThreshold:
					set.Update("sigla", models.BadgeAviso, "Sigla ajustada para cadastro mestre")
				}
			}
		}
	}

	// Sequence check: numbers sorted ascending must run 1, 2, 3
	// without gaps.
	for _, orderKey := range orderKeys {
		entries := ordersByList[orderKey]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].number != entries[j].number {
				return entries[i].number < entries[j].number
			}
			return entries[i].row < entries[j].row
		})
		expected := 1
		for _, entry := range entries {
			if entry.number != expected {
				listName := records[entry.row].Get(models.ColNomeLista)
				sets[entry.row].Update("num_ordem", models.BadgeAviso,
					fmt.Sprintf("Número de ordem esperado %d para a lista '%s'", expected, listName))
			}
			expected = entry.number + 1
		}
	}

	// Every lista with titulares needs at least one suplente.
	for _, listKey := range listKeys {
		if titularLists[listKey] && !suplenteLists[listKey] {
			sets[firstRowByList[listKey]].Update("lista", models.BadgeAviso,
				"Lista sem suplentes cadastrados")
		}
	}

	badges := make([][]models.Badge, len(records))
	for i, set := range sets {
		badges[i] = set.Ordered(FieldOrder)
	}
	return badges
}

func parsesAsDate(value string) bool {
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
