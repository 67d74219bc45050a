// Package service ties ingestion, the mining engine, persistence, and
// report export into one orchestration layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/patternmine/spade/internal/ingest"
	"github.com/patternmine/spade/internal/repository"
	"github.com/patternmine/spade/internal/spade"
	"github.com/patternmine/spade/internal/storage"
	"github.com/patternmine/spade/pkg/config"
	apperrors "github.com/patternmine/spade/pkg/errors"
	"github.com/patternmine/spade/pkg/parallel"
	"github.com/patternmine/spade/pkg/utils"
	"github.com/patternmine/spade/pkg/writer"
)

var tracer = otel.Tracer("spade-miner/service")

// Service is the main application service: it owns the database
// connection, the object storage backend, and drives mining runs
// against them.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	db      *repository.Repositories
	storage storage.Storage

	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, os.Stdout)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to initialize database", err)
	}

	if err := s.initStorage(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to initialize storage", err)
	}

	if err := s.config.EnsureDataDir(); err != nil {
		return apperrors.Wrap(apperrors.CodeConfigError, "failed to ensure data directory", err)
	}

	s.running = true
	s.logger.Info("Service components initialized successfully")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	s.db = repository.NewRepositories(gormDB, s.config.Database.Type)
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the object storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// RunOptions configures one mining run.
type RunOptions struct {
	// RunUUID identifies the run; callers supply it so results can be
	// correlated with external bookkeeping.
	RunUUID string
	// InputSource is a human-readable description of the input (e.g. a
	// file path), recorded alongside the run.
	InputSource string
	// MinSupport is the support floor passed to every Next call.
	MinSupport int
	// MaxLevels bounds the number of BFS levels; zero means run to a
	// fixed point.
	MaxLevels int
	// TopN caps how many reported patterns are persisted and exported.
	TopN int
	// ExportKey, if non-empty, renders the report and uploads it to
	// storage under this key.
	ExportKey string
	// ExportFormat selects the rendering used by ExportKey: "text"
	// (default) or "json".
	ExportFormat string
}

// RunResult summarizes one completed mining run.
type RunResult struct {
	Run      repository.MiningRun
	Patterns []repository.Pattern
}

// Mine runs ingestion, the engine's BFS loop, persistence, and
// optional report export for one input.
func (s *Service) Mine(ctx context.Context, reader io.Reader, opts RunOptions) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "service.Mine")
	defer span.End()
	span.SetAttributes(
		attribute.String("mining.run_uuid", opts.RunUUID),
		attribute.Int("mining.min_support", opts.MinSupport),
	)
	return s.mine(ctx, reader, opts)
}

func (s *Service) mine(ctx context.Context, reader io.Reader, opts RunOptions) (*RunResult, error) {
	started := time.Now()
	run := &repository.MiningRun{
		RunUUID:     opts.RunUUID,
		InputSource: opts.InputSource,
		MinSupport:  opts.MinSupport,
		Status:      "running",
		StartedAt:   started,
	}

	timer := utils.NewTimer("mine:"+opts.RunUUID, utils.WithLogger(s.logger))

	engine := spade.NewEngine(spade.WithWorkers(s.config.Mining.MaxWorker))

	parser := ingest.NewParser(&ingest.Options{StrictMode: s.config.Mining.StrictInput})
	ingestPhase := timer.Start("ingest")
	occurrences, results := parser.Parse(ctx, reader)

	if err := engine.Construct(ctx, occurrences); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMiningError, "failed to construct engine", err)
	}
	ingestResult := <-results
	ingestPhase.Stop()
	if ingestResult.Err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to ingest input", ingestResult.Err)
	}
	s.logger.Info("Ingested %d occurrences (%d lines skipped)",
		ingestResult.Stats.OccurrencesEmitted, ingestResult.Stats.LinesSkipped)

	levels := 0
	maxLevels := opts.MaxLevels
	levelsPhase := timer.Start("expand")

	var progress *parallel.ProgressTracker
	if maxLevels > 0 {
		progress = parallel.NewProgressTracker(int64(maxLevels), func(completed, total int64) {
			s.logger.Info("Mining progress: level %d/%d", completed, total)
		}, 2*time.Second)
		progress.Start(ctx)
		defer progress.Stop()
	}

	for maxLevels <= 0 || levels < maxLevels {
		if engine.FrontierSize() == 0 {
			break
		}
		if err := s.nextLevel(ctx, engine, opts.MinSupport, levels); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeMiningError, fmt.Sprintf("failed to expand level %d", levels), err)
		}
		levels++
		if progress != nil {
			progress.Increment()
		}
	}
	levelsPhase.Stop()
	run.LevelsRun = levels

	report := engine.Report()
	topN := opts.TopN
	if topN <= 0 || topN > len(report) {
		topN = len(report)
	}
	run.PatternsFound = len(report)

	patterns := make([]repository.Pattern, topN)
	for i := 0; i < topN; i++ {
		entry := report[i]
		eventIDs := make([][]int, entry.Pattern.Len())
		for j, es := range entry.Pattern {
			eventIDs[j] = es.ToSlice()
		}
		patterns[i] = repository.Pattern{
			Rank:     i + 1,
			Pattern:  entry.Pattern.String(),
			Length:   entry.Pattern.Len(),
			Score:    entry.Score,
			Support:  entry.Support,
			EventIDs: eventIDs,
		}
	}

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = "completed"

	persistPhase := timer.Start("persist")
	if s.db != nil {
		if err := s.db.Run.SaveRun(ctx, run, patterns); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save mining run", err)
		}
	}

	if opts.ExportKey != "" && s.storage != nil {
		if err := s.exportReport(ctx, opts.ExportKey, opts.ExportFormat, patterns); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to export report", err)
		}
	}
	persistPhase.Stop()

	s.logger.Debug("%s", timer.Summary())

	return &RunResult{Run: *run, Patterns: patterns}, nil
}

// nextLevel drives one BFS level forward, recording its timing and
// frontier size as span attributes.
func (s *Service) nextLevel(ctx context.Context, engine *spade.Engine, minSup int, level int) error {
	ctx, span := tracer.Start(ctx, "service.nextLevel")
	defer span.End()

	before := engine.FrontierSize()
	if err := engine.Next(ctx, minSup); err != nil {
		return err
	}
	after := engine.FrontierSize()

	span.SetAttributes(
		attribute.Int("mining.level", level),
		attribute.Int("mining.frontier_before", before),
		attribute.Int("mining.frontier_after", after),
	)
	s.logger.Debug("Level %d: frontier %d -> %d", level, before, after)

	return nil
}

// exportReport renders patterns in the requested format and uploads the
// result to storage. format defaults to "text".
func (s *Service) exportReport(ctx context.Context, key, format string, patterns []repository.Pattern) error {
	if format == "json" {
		var buf bytes.Buffer
		if err := writer.NewPrettyJSONWriter[[]repository.Pattern]().Write(patterns, &buf); err != nil {
			return apperrors.Wrap(apperrors.CodeStorageError, "failed to encode report as json", err)
		}
		return s.storage.Upload(ctx, key, &buf)
	}

	var b strings.Builder
	for _, p := range patterns {
		fmt.Fprintf(&b, "%d\t%s\tsupport=%d\tscore=%d\n", p.Rank, p.Pattern, p.Support, p.Score)
	}
	return s.storage.Upload(ctx, key, strings.NewReader(b.String()))
}

// Run retrieves a persisted mining run and its patterns.
func (s *Service) Run(ctx context.Context, runUUID string) (*RunResult, error) {
	run, err := s.db.Run.GetRun(ctx, runUUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "failed to load mining run", err)
	}
	patterns, err := s.db.Run.ListPatterns(ctx, runUUID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to load mining run patterns", err)
	}
	return &RunResult{Run: *run, Patterns: patterns}, nil
}

// Close releases the service's resources.
func (s *Service) Close() error {
	s.running = false
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsRunning returns whether the service has been initialized.
func (s *Service) IsRunning() bool {
	return s.running
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "database health check failed", err)
		}
	}
	return nil
}
