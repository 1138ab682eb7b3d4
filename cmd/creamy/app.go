package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/japaniel/creamy/pkg/analysis"
	"github.com/japaniel/creamy/pkg/config"
	"github.com/japaniel/creamy/pkg/db"
	"github.com/japaniel/creamy/pkg/docstore"
	"github.com/japaniel/creamy/pkg/images"
	"github.com/japaniel/creamy/pkg/ingest"
	"github.com/japaniel/creamy/pkg/nlp"
	"github.com/japaniel/creamy/pkg/ocr"
	"github.com/japaniel/creamy/pkg/translate"
	"github.com/japaniel/creamy/pkg/upload"
)

// app holds configuration and lazily opened backends for one command run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	uploads upload.Store
}

func loadApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load() > %w", err)
	}
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return &app{cfg: cfg, logger: logger}, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (a *app) Close() {
	if a.uploads != nil {
		if err := a.uploads.Close(); err != nil {
			a.logger.Warn("closing upload store", "error", err)
		}
	}
}

func (a *app) uploadStore(ctx context.Context) (upload.Store, error) {
	if a.uploads != nil {
		return a.uploads, nil
	}
	sc := a.cfg.Store
	if sc.Driver == "mongo" {
		s, err := docstore.Connect(ctx, sc.DSN, sc.Mongo.Database, sc.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		a.uploads = s
		return s, nil
	}
	conn, err := db.Open(sc.Driver, sc.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.InitDB(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.uploads = db.NewStore(conn)
	return a.uploads, nil
}

func (a *app) imageStore(ctx context.Context) (images.Store, error) {
	ic := a.cfg.Images
	if ic.Driver == "minio" {
		return images.NewMinioStore(ctx, images.MinioConfig{
			Endpoint:  ic.Minio.Endpoint,
			AccessKey: ic.Minio.AccessKey,
			SecretKey: ic.Minio.SecretKey,
			Bucket:    ic.Minio.Bucket,
			UseSSL:    ic.Minio.UseSSL,
			Prefix:    ic.Minio.Prefix,
		})
	}
	return images.NewDirStore(ic.Dir)
}

func (a *app) analyzer() (nlp.Analyzer, error) {
	nc := a.cfg.NLP
	if nc.Engine == "service" {
		return nlp.NewServiceAnalyzer(nc.ServiceURL, nc.Model, nc.Timeout), nil
	}
	var opts []nlp.LexiconOption
	if nc.PunktModel != "" {
		seg, err := nlp.LoadPunkt(nc.PunktModel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nlp.WithSegmenter(seg))
	}
	return nlp.NewGermanAnalyzer(opts...)
}

func (a *app) translator() translate.Translator {
	tc := a.cfg.Translate
	if !tc.Enabled {
		return translate.Nop{}
	}
	var t translate.Translator = translate.NewMyMemory(tc.BaseURL, tc.Timeout, tc.Attempts)
	if tc.BreakerFailures > 0 {
		t = translate.NewBreaker(t, tc.BreakerFailures, tc.BreakerCooldown)
	}
	return t
}

func (a *app) ingester(ctx context.Context) (*ingest.Ingester, error) {
	uploads, err := a.uploadStore(ctx)
	if err != nil {
		return nil, err
	}
	imgs, err := a.imageStore(ctx)
	if err != nil {
		return nil, err
	}
	oc := a.cfg.OCR
	engine, err := ocr.New(oc.Engine, ocr.Options{TesseractPath: oc.TesseractPath, Preprocess: oc.Preprocess})
	if err != nil {
		return nil, err
	}
	ig := ingest.NewIngester(uploads, imgs, engine)
	ig.Language = oc.Language
	ig.OnFailure = ingest.OCRFailurePolicy(oc.OnFailure)
	ig.Logger = a.logger
	return ig, nil
}

func (a *app) analysisService(ctx context.Context) (*analysis.Service, nlp.Analyzer, error) {
	uploads, err := a.uploadStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	analyzer, err := a.analyzer()
	if err != nil {
		return nil, nil, err
	}
	return analysis.NewService(analyzer, uploads, a.translator(), a.logger), analyzer, nil
}
