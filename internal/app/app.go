package app

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/handlers"
	"github.com/ternarybob/diario/internal/pipeline"
	"github.com/ternarybob/diario/internal/services/approval"
	"github.com/ternarybob/diario/internal/services/events"
	jobsvc "github.com/ternarybob/diario/internal/services/jobs"
	"github.com/ternarybob/diario/internal/services/masterdata"
	"github.com/ternarybob/diario/internal/services/metrics"
	"github.com/ternarybob/diario/internal/services/registry"
	"github.com/ternarybob/diario/internal/services/training"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger
	Paths  common.Paths

	// Core services
	MetricsService  *metrics.Service
	EventService    *events.Service
	MasterService   *masterdata.Service
	RegistryService *registry.Service
	Queue           *jobsvc.Queue
	JobService      *jobsvc.Service
	Promoter        *approval.Promoter
	Pipeline        *pipeline.Pipeline
	TrainingService *training.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	JobHandler        *handlers.JobHandler
	ArtifactHandler   *handlers.ArtifactHandler
	ApprovalHandler   *handlers.ApprovalHandler
	MasterDataHandler *handlers.MasterDataHandler
	RegistryHandler   *handlers.RegistryHandler
}

// New wires every service against the configured data directory and
// returns the assembled application.
func New(config *common.Config) (*App, error) {
	logger := common.GetLogger()
	paths := common.NewPaths(config.Storage.DataDir)
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	metricsSvc := metrics.Default()
	eventSvc := events.NewService(logger)

	masterSvc, err := masterdata.NewService(paths.MasterDir, logger)
	if err != nil {
		return nil, err
	}
	if err := masterSvc.Watch(); err != nil {
		logger.Warn().Err(err).Msg("Master data watch unavailable")
	}

	registrySvc := registry.NewService(paths.RegistryFile, logger)
	queue := jobsvc.NewQueue(paths.QueueFile, logger)

	jobSvc, err := jobsvc.NewService(paths, queue, metricsSvc, logger)
	if err != nil {
		return nil, err
	}

	promoter := approval.NewPromoter(paths, registrySvc, masterSvc, eventSvc, logger)
	jobSvc.SetPromoter(promoter)

	pipelineSvc := pipeline.New(paths, jobSvc, masterSvc, metricsSvc, logger, nil)
	trainingSvc := training.NewService(paths, jobSvc, registrySvc, masterSvc, logger)

	app := &App{
		Config: config,
		Logger: logger,
		Paths:  paths,

		MetricsService:  metricsSvc,
		EventService:    eventSvc,
		MasterService:   masterSvc,
		RegistryService: registrySvc,
		Queue:           queue,
		JobService:      jobSvc,
		Promoter:        promoter,
		Pipeline:        pipelineSvc,
		TrainingService: trainingSvc,

		APIHandler:        handlers.NewAPIHandler(metricsSvc),
		JobHandler:        handlers.NewJobHandler(jobSvc, paths),
		ArtifactHandler:   handlers.NewArtifactHandler(jobSvc, paths),
		ApprovalHandler:   handlers.NewApprovalHandler(jobSvc),
		MasterDataHandler: handlers.NewMasterDataHandler(masterSvc),
		RegistryHandler:   handlers.NewRegistryHandler(registrySvc),
	}

	metricsSvc.SetGauge("api.startup", 1)
	logger.Info().
		Str("data_dir", paths.DataDir).
		Str("environment", config.Environment).
		Msg("Application wired")
	return app, nil
}

// Close releases background resources.
func (a *App) Close() {
	a.MasterService.Close()
}
