package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/masterdata"
)

// seedFile is the YAML document accepted via -file.
type seedFile struct {
	Records []seedRecord `yaml:"records"`
}

type seedRecord struct {
	Sigla     string `yaml:"sigla"`
	Descricao string `yaml:"descricao"`
	Codigo    string `yaml:"codigo"`
}

// defaultRecords seed an empty master registry so fuzzy matching has
// something to resolve against out of the box.
var defaultRecords = []seedRecord{
	{Sigla: "MEC", Descricao: "Ministério da Educação", Codigo: "001"},
	{Sigla: "INEP", Descricao: "Instituto Nacional de Estudos e Pesquisas Educacionais", Codigo: "002"},
	{Sigla: "FNDE", Descricao: "Fundo Nacional de Desenvolvimento da Educação", Codigo: "003"},
	{Sigla: "CAPES", Descricao: "Coordenação de Aperfeiçoamento de Pessoal de Nível Superior", Codigo: "004"},
}

var (
	dataDir  = flag.String("data-dir", "data", "Root data directory")
	filePath = flag.String("file", "", "YAML seed file (defaults to built-in records)")
)

func main() {
	flag.Parse()

	logger := arbor.NewLogger()

	records := defaultRecords
	if *filePath != "" {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			logger.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read seed file")
			os.Exit(1)
		}
		var seed seedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			logger.Fatal().Err(err).Str("file", *filePath).Msg("Failed to parse seed file")
			os.Exit(1)
		}
		if len(seed.Records) == 0 {
			logger.Fatal().Str("file", *filePath).Msg("Seed file contains no records")
			os.Exit(1)
		}
		records = seed.Records
	}

	paths := common.NewPaths(*dataDir)
	if err := paths.EnsureDirs(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create data directories")
		os.Exit(1)
	}

	master, err := masterdata.NewService(paths.MasterDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open master data store")
		os.Exit(1)
	}
	defer master.Close()

	for _, record := range records {
		if record.Sigla == "" {
			logger.Warn().Str("descricao", record.Descricao).Msg("Skipping record without sigla")
			continue
		}
		err := master.Upsert(models.MasterRecord{
			Sigla:     record.Sigla,
			Descricao: record.Descricao,
			Codigo:    record.Codigo,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("sigla", record.Sigla).Msg("Failed to store master record")
			os.Exit(1)
		}
		logger.Info().Str("sigla", record.Sigla).Msg("Master record seeded")
	}

	fmt.Printf("Seeded %d master records into %s\n", len(records), paths.MasterDir)
}
