package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	jobsvc "github.com/ternarybob/diario/internal/services/jobs"
	"github.com/ternarybob/diario/internal/services/masterdata"
	"github.com/ternarybob/diario/internal/services/metrics"
	"github.com/ternarybob/diario/internal/services/registry"
)

type trainingFixture struct {
	paths   common.Paths
	jobs    *jobsvc.Service
	trainer *Service
}

func newTrainingFixture(t *testing.T) *trainingFixture {
	t.Helper()
	paths := common.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirs())
	logger := arbor.NewLogger()

	jobSvc, err := jobsvc.NewService(paths, jobsvc.NewQueue(paths.QueueFile, logger), metrics.NewService(), logger)
	require.NoError(t, err)
	master, err := masterdata.NewService(paths.MasterDir, logger)
	require.NoError(t, err)
	require.NoError(t, master.Upsert(models.MasterRecord{Sigla: "MEC", Descricao: "Ministério da Educação"}))
	registrySvc := registry.NewService(paths.RegistryFile, logger)

	return &trainingFixture{
		paths:   paths,
		jobs:    jobSvc,
		trainer: NewService(paths, jobSvc, registrySvc, master, logger),
	}
}

func (f *trainingFixture) approvedJobWithCSV(t *testing.T, rows string) string {
	t.Helper()
	job, err := f.jobs.Create("edital.txt", "ana")
	require.NoError(t, err)
	_, err = f.jobs.Approve(job.JobID, "chefe", "")
	require.NoError(t, err)

	dir := f.paths.ProcessedJobDir(job.JobID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := "SIGLA;NOME_CANDIDATO;INDEPENDENTE\n" + rows
	require.NoError(t, os.WriteFile(filepath.Join(dir, "output.csv"), []byte(content), 0644))
	return job.JobID
}

func TestCorpus_OnlyApprovedJobs(t *testing.T) {
	fixture := newTrainingFixture(t)
	fixture.approvedJobWithCSV(t, "MEC;Maria Silva;N\n")

	// A non-approved job's CSV must not enter the corpus.
	pending, err := fixture.jobs.Create("outro.txt", "ana")
	require.NoError(t, err)
	dir := fixture.paths.ProcessedJobDir(pending.JobID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "output.csv"),
		[]byte("SIGLA;NOME_CANDIDATO;INDEPENDENTE\nINEP;Joana;N\n"), 0644))

	rows, err := fixture.trainer.Corpus()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Maria Silva", rows[0].Get(models.ColNomeCandidato))
}

func TestCorpus_ApprovedJobWithoutCSV(t *testing.T) {
	fixture := newTrainingFixture(t)
	job, err := fixture.jobs.Create("edital.txt", "ana")
	require.NoError(t, err)
	_, err = fixture.jobs.Approve(job.JobID, "chefe", "")
	require.NoError(t, err)

	rows, err := fixture.trainer.Corpus()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTrain_RegistersCandidateWithMetrics(t *testing.T) {
	fixture := newTrainingFixture(t)
	fixture.approvedJobWithCSV(t, "MEC;Maria Silva;N\nMEC;Joana Costa;N\n")

	record, err := fixture.trainer.Train("baseline")
	require.NoError(t, err)

	assert.Equal(t, "baseline", record.ModelName)
	assert.Equal(t, "001", record.Version)
	assert.Equal(t, models.ModelStatusCandidate, record.Status)
	assert.EqualValues(t, 2, record.Metrics["rows"])
	assert.EqualValues(t, 1, record.Metrics["unique_siglas"])
}

func TestEvaluateAndPromote_SetsProductionAndScore(t *testing.T) {
	fixture := newTrainingFixture(t)
	fixture.approvedJobWithCSV(t, "MEC;Maria Silva;N\n")

	record, err := fixture.trainer.Train("baseline")
	require.NoError(t, err)

	require.NoError(t, fixture.trainer.EvaluateAndPromote(record.Version))

	history, err := fixture.trainer.registry.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ModelStatusProduction, history[0].Status)
	assert.NotNil(t, history[0].Metrics["dataset_score"])
}

func TestSynthetic_MultipliesCorpus(t *testing.T) {
	fixture := newTrainingFixture(t)
	fixture.approvedJobWithCSV(t, "MEC;Maria Silva;N\nMEC;Joana Costa;\n")

	synthetic, err := fixture.trainer.Synthetic(3)
	require.NoError(t, err)

	require.Len(t, synthetic, 6)
	for _, row := range synthetic {
		assert.Equal(t, "MEC", row.Get(models.ColSigla))
		assert.Equal(t, "N", row.Get(models.ColIndependente))
		assert.Contains(t, row.Get(models.ColNomeCandidato), "(synthetic)")
	}
}
