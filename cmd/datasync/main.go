package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datasync/internal/archive"
	"datasync/internal/config"
	"datasync/internal/db"
	"datasync/internal/event"
	"datasync/internal/ga"
	"datasync/internal/output"
	"datasync/internal/runner"
	"datasync/internal/sheets"
	"datasync/internal/topics"

	"github.com/gorilla/mux"
)

// Usage: datasync [analytics|topics|sheet|all|daemon]
// One-shot by default; daemon runs every configured pipeline on the cron
// schedule and serves a healthz endpoint.
func main() {
	os.Exit(run())
}

func run() int {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "[datasync] ", log.LstdFlags)

	target := "all"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}
	daemon := target == "daemon"
	if daemon {
		target = "all"
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Printf("failed to load config: %v", err)
		return 1
	}

	// Optional snapshot archive (Mongo)
	var repo archive.Repository
	if cfg.MongoURI != "" {
		mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			logger.Printf("failed to connect to db: %v", err)
			return 1
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				logger.Printf("mongo disconnect error: %v", err)
			}
		}()

		repo, err = archive.NewMongoRepository(mongoClient.Database(cfg.MongoDBName), logger)
		if err != nil {
			logger.Printf("failed to init snapshot repository: %v", err)
			return 1
		}
		logger.Println("snapshot archive enabled")
	}

	// Optional dataset.updated publisher (RabbitMQ)
	var publisher event.Publisher
	if cfg.RabbitURI != "" {
		rabbit, err := event.NewRabbitPublisher(
			cfg.RabbitURI,
			cfg.RabbitExchange,
			cfg.RabbitRoutingKey,
			logger,
		)
		if err != nil {
			logger.Printf("failed to init rabbit publisher: %v", err)
			return 1
		}
		defer rabbit.Close()
		publisher = rabbit
		logger.Println("dataset.updated publisher enabled")
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	writer := output.NewWriter(cfg.DataDir, logger)

	pipelines, err := buildPipelines(cfg, target, httpClient, writer, repo, publisher, logger)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	r := runner.New(logger, pipelines...)

	if daemon {
		srv := healthz(cfg.HTTPAddr, logger)

		// first run immediately; the schedule covers subsequent runs
		if err := r.RunOnce(ctx); err != nil {
			logger.Printf("initial run finished with errors: %v", err)
		}
		err := r.StartSchedule(ctx, cfg.Schedule)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			logger.Printf("HTTP server shutdown error: %v", serr)
		}

		if err != nil {
			logger.Printf("scheduler error: %v", err)
			return 1
		}
		return 0
	}

	if err := r.RunOnce(ctx); err != nil {
		return 1
	}
	return 0
}

// buildPipelines assembles the pipelines the target names. An explicitly
// selected pipeline must be fully configured; with "all", unconfigured
// pipelines are skipped so a deployment can run any subset.
func buildPipelines(
	cfg config.Config,
	target string,
	httpClient *http.Client,
	writer *output.Writer,
	repo archive.Repository,
	publisher event.Publisher,
	logger *log.Logger,
) ([]runner.Pipeline, error) {
	all := target == "all"
	var pipelines []runner.Pipeline

	if target == "analytics" || all {
		if err := cfg.ValidateAnalytics(); err != nil {
			if !all {
				return nil, err
			}
			logger.Printf("skipping analytics pipeline: %v", err)
		} else {
			client := ga.NewClient(ga.DefaultBaseURL, cfg.GAPropertyID, cfg.GAAccessToken, httpClient)
			pipelines = append(pipelines, ga.NewService(client, writer, ga.Options{
				LookbackDays:     cfg.GALookbackDays,
				TopN:             cfg.GATopN,
				AuthorDimensions: cfg.GAAuthorDimensions,
				KeepNotSetAuthor: cfg.GAKeepNotSetAuthor,
				Archive:          repo,
				Publisher:        publisher,
			}, logger))
		}
	}

	if target == "topics" || all {
		if err := cfg.ValidateTopics(); err != nil {
			if !all {
				return nil, err
			}
			logger.Printf("skipping topics pipeline: %v", err)
		} else {
			client := topics.NewWordPressClient(cfg.WPBaseURL, httpClient)
			pipelines = append(pipelines, topics.NewService(client, writer, topics.Options{
				PerPage:      cfg.WPPerPage,
				MaxPages:     cfg.WPMaxPages,
				LookbackDays: cfg.WPLookbackDays,
				ListKey:      cfg.WPListKey,
				Archive:      repo,
				Publisher:    publisher,
			}, logger))
		}
	}

	if target == "sheet" || all {
		if err := cfg.ValidateSheet(); err != nil {
			if !all {
				return nil, err
			}
			logger.Printf("skipping sheet pipeline: %v", err)
		} else {
			client := sheets.NewClient(sheets.DefaultBaseURL, cfg.SheetID, cfg.SheetRange, cfg.SheetAPIKey, httpClient)
			pipelines = append(pipelines, sheets.NewService(client, writer, sheets.Options{
				Archive:   repo,
				Publisher: publisher,
			}, logger))
		}
	}

	if len(pipelines) == 0 {
		if all {
			return nil, errors.New("no pipeline is configured; set at least one of " +
				config.GAPropertyID + ", " + config.WPBaseURL + ", " + config.SheetID)
		}
		return nil, errors.New("unknown pipeline: " + target)
	}
	return pipelines, nil
}

func healthz(addr string, logger *log.Logger) *http.Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	return srv
}
