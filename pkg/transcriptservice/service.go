package transcriptservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"transcripts/pkg/config"
	"transcripts/pkg/content"
	"transcripts/pkg/dates"
	"transcripts/pkg/db"
	"transcripts/pkg/httpclient"
	"transcripts/pkg/pipeline"
	"transcripts/pkg/table"
)

const connectTimeout = 15 * time.Second

// Service runs one scrape of the transcript archive. It owns the HTTP client,
// the output table and the mirror connections for the duration of Run.
type Service struct {
	cfg        config.Config
	outputPath string
	logger     zerolog.Logger
}

// New creates a service writing to table.FileName in the working directory.
func New(cfg config.Config, logger zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		outputPath: table.FileName,
		logger:     logger.With().Str("component", "service").Logger(),
	}
}

// SetOutputPath changes where the table is written.
func (s *Service) SetOutputPath(path string) {
	s.outputPath = path
}

// Run finds the listing range, walks it and appends every transcript to the
// table. Only a table that cannot be opened is an error; everything else is
// logged and reflected in the returned stats.
func (s *Service) Run(ctx context.Context) (pipeline.Stats, error) {
	tbl, err := table.Open(s.outputPath)
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("open output table: %w", err)
	}

	var closers []func() error
	closers = append(closers, tbl.Close)
	defer func() {
		// Close in reverse acquisition order; the table goes last.
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				s.logger.Warn().Err(err).Msg("close failed")
			}
		}
	}()

	mirrors, mirrorClosers := s.openMirrors(ctx)
	closers = append(closers, mirrorClosers...)

	sink, err := db.NewMultiSink(tbl, s.logger, mirrors...)
	if err != nil {
		return pipeline.Stats{}, err
	}

	client := httpclient.New(s.cfg.HTTPConfig(s.logger))
	extractor := content.NewTranscriptExtractor(dates.NewResolver(s.logger), s.cfg.Channel)

	p := pipeline.TranscriptPipelineBuilder(
		client,
		extractor,
		sink,
		s.cfg.ListingURL,
		s.cfg.PaginationOptions(s.logger),
		s.logger,
	)

	s.logger.Info().
		Str("output", tbl.Path()).
		Int("mirrors", len(mirrors)).
		Int("requests_per_minute", s.cfg.RequestsPerMinute).
		Msg("starting transcript scrape")

	return p.Run(ctx), nil
}

// openMirrors connects every configured mirror. A mirror that cannot be
// reached is logged and left out of the run.
func (s *Service) openMirrors(ctx context.Context) ([]db.Mirror, []func() error) {
	var (
		mirrors []db.Mirror
		closers []func() error
	)

	add := func(name string, open func(context.Context) (db.Sink, func() error, error)) {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		sink, closeFn, err := open(connectCtx)
		if err != nil {
			s.logger.Warn().Err(err).Str("mirror", name).Msg("mirror unavailable, continuing without it")
			return
		}
		mirrors = append(mirrors, db.Mirror{Name: name, Sink: sink})
		closers = append(closers, closeFn)
		s.logger.Info().Str("mirror", name).Msg("mirror connected")
	}

	sinks := s.cfg.Sinks
	if sinks.Mongo.URI != "" {
		add("mongo", s.openMongo)
	}
	if sinks.Postgres.DSN != "" {
		add("postgres", s.openPostgres)
	}
	if sinks.Supabase.ConnectionString != "" || sinks.Supabase.URL != "" {
		add("supabase", s.openSupabase)
	}
	if sinks.SQLite.Path != "" {
		add("sqlite", s.openSQLite)
	}

	return mirrors, closers
}

func (s *Service) openMongo(ctx context.Context) (db.Sink, func() error, error) {
	cfg := s.cfg.Sinks.Mongo
	client := db.NewClient(cfg.URI, cfg.Database, cfg.Collection)
	if err := client.Connect(ctx); err != nil {
		_ = client.Close(context.Background())
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, func() error { return client.Close(context.Background()) }, nil
}

func (s *Service) openPostgres(ctx context.Context) (db.Sink, func() error, error) {
	cfg := s.cfg.Sinks.Postgres
	client := db.NewPostgresClient(db.PostgresConfig{
		DSN:  cfg.DSN,
		Pool: cfg.Pool.DBPool(),
	})
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return sqlMirror(ctx, client, cfg.Table, client.Close)
}

func (s *Service) openSQLite(ctx context.Context) (db.Sink, func() error, error) {
	cfg := s.cfg.Sinks.SQLite
	client := db.NewSQLiteClient(cfg.Path)
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return sqlMirror(ctx, client, cfg.Table, client.Close)
}

func (s *Service) openSupabase(ctx context.Context) (db.Sink, func() error, error) {
	cfg := s.cfg.Sinks.Supabase
	client := db.NewSupabaseClient(db.SupabaseConfig{
		ConnectionString: cfg.ConnectionString,
		SupabaseURL:      cfg.URL,
		SupabaseKey:      cfg.Key,
		Password:         cfg.Password,
		Table:            cfg.Table,
		Pool:             cfg.Pool.DBPool(),
	})
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	if err := client.EnsureSchema(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	s.logger.Debug().Bool("direct_db", client.HasDirectDB()).Msg("supabase mirror mode")
	return client, client.Close, nil
}

func sqlMirror(ctx context.Context, provider db.DBProvider, tableName string, closeFn func() error) (db.Sink, func() error, error) {
	store, err := db.NewSQLStore(provider, tableName)
	if err == nil {
		err = store.EnsureSchema(ctx)
	}
	if err != nil {
		return nil, nil, errors.Join(err, closeFn())
	}
	return store, closeFn, nil
}
