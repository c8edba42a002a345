package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/suadeo/internal/app"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	ingestFile   = flag.String("ingest", "", "Ingest a crawled thread dump (JSON array); requires -source")
	ingestSource = flag.String("source", "", "Platform id for -ingest (reddit, stackoverflow, rednote)")
	indexSource  = flag.String("index", "", "Run incremental indexing for a platform id, or 'all'")
	showStats    = flag.Bool("stats", false, "Print corpus and index counts")
	askQuestion  = flag.String("ask", "", "Answer a question over the indexed corpus")
	sessionID    = flag.String("session", "", "Conversation session id for -ask (default: new session)")
	serve        = flag.Bool("serve", false, "Run as a daemon with scheduled indexing")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Suadeo version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("suadeo.toml"); err == nil {
			configFiles = append(configFiles, "suadeo.toml")
		}
	}

	// Startup order: config, logger, banner, application.
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner()

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	switch {
	case *ingestFile != "":
		if *ingestSource == "" {
			logger.Fatal().Msg("-ingest requires -source")
			os.Exit(1)
		}
		result, err := application.Loader.LoadFile(*ingestSource, *ingestFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("Ingest failed")
			os.Exit(1)
		}
		fmt.Printf("Ingested %d threads from %s (%d skipped)\n", result.Ingested, *ingestFile, result.Skipped)

	case *indexSource != "":
		if *indexSource == "all" {
			results, err := application.Indexer.IndexAll(ctx)
			if err != nil {
				logger.Fatal().Err(err).Msg("Indexing failed")
				os.Exit(1)
			}
			for _, result := range results {
				fmt.Printf("%s: indexed %d, skipped %d\n", result.Source, result.Indexed, result.Skipped)
			}
		} else {
			result, err := application.Indexer.IndexSource(ctx, *indexSource)
			if err != nil {
				logger.Fatal().Err(err).Msg("Indexing failed")
				os.Exit(1)
			}
			fmt.Printf("%s: indexed %d, skipped %d\n", result.Source, result.Indexed, result.Skipped)
		}

	case *showStats:
		stats, err := application.Indexer.Stats()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to collect stats")
			os.Exit(1)
		}
		fmt.Printf("Documents: %d total, %d indexed\n", stats.TotalDocuments, stats.IndexedDocuments)
		for _, source := range models.PlatformIDs() {
			fmt.Printf("  %s: %d\n", source, stats.DocumentsBySource[source])
		}

	case *askQuestion != "":
		session := *sessionID
		if session == "" {
			session = common.NewSessionID()
		}
		response, err := application.Answer.Answer(ctx, session, *askQuestion)
		if err != nil {
			logger.Fatal().Err(err).Msg("Question failed")
			os.Exit(1)
		}
		fmt.Println(response.Text)
		fmt.Printf("\n(session %s, %d sources, query type %s)\n", session, len(response.Sources), response.QueryType)

	case *serve:
		if err := application.Scheduler.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start scheduler")
			os.Exit(1)
		}
		logger.Info().Msg("Suadeo running - Press Ctrl+C to stop")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("Interrupt signal received")
		application.Scheduler.Stop()

	default:
		flag.Usage()
	}
}
