// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command aeolens crawls a website and scores its pages for answer
// engine readiness.
//
// Usage:
//
//	aeolens crawl -url https://example.com [-max-pages 100] [-mode auto]
//	aeolens analyze -url https://example.com [-concurrency 4]
//	aeolens run -url https://example.com        (crawl then analyze)
//	aeolens scores -url https://example.com     (print score table)
//	aeolens export -url https://example.com [-format csv] [-out ./exports]
//	aeolens list                                (list projects)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/analyzer"
	"github.com/agentberlin/aeolens/internal/config"
	"github.com/agentberlin/aeolens/internal/llm"
	"github.com/agentberlin/aeolens/internal/logging"
	"github.com/agentberlin/aeolens/internal/scoring"
	"github.com/agentberlin/aeolens/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := logging.NewLoggerWithService("aeolens")
	config.LoadEnv(logger)

	command := os.Args[1]
	flags := flag.NewFlagSet(command, flag.ExitOnError)
	startURL := flags.String("url", "", "start URL of the website")
	maxPages := flags.Int("max-pages", aeolens.DefaultMaxPages, "maximum pages to crawl")
	mode := flags.String("mode", "auto", "crawl mode: auto or manual")
	concurrency := flags.Int("concurrency", 4, "analysis workers")
	scoringPath := flags.String("scoring-config", "", "optional scoring config JSON file")
	format := flags.String("format", "csv", "export format: csv or json")
	outputDir := flags.String("out", "./exports", "export output directory")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if command == "list" {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		st, err := store.NewStore()
		if err != nil {
			logger.WithError(err).Fatal("failed to open store")
		}
		if err := runListProjects(ctx, st); err != nil {
			logger.WithError(err).Fatal("list failed")
		}
		return
	}

	if *startURL == "" {
		fmt.Fprintln(os.Stderr, "missing -url")
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore()
	if err != nil {
		logger.WithError(err).Fatal("failed to open store")
	}

	normalized := aeolens.NormalizeURL(*startURL)
	if normalized == "" {
		logger.WithField("url", *startURL).Fatal("invalid start URL")
	}
	project, err := st.GetOrCreateProject(ctx, aeolens.URLHost(normalized), normalized, aeolens.URLHost(normalized))
	if err != nil {
		logger.WithError(err).Fatal("failed to resolve project")
	}

	switch command {
	case "crawl":
		if err := runCrawl(ctx, st, project.ID, normalized, *maxPages, *mode, logger); err != nil {
			logger.WithError(err).Fatal("crawl failed")
		}
	case "analyze":
		if err := runAnalyze(ctx, st, project.ID, *concurrency, *scoringPath, logger); err != nil {
			logger.WithError(err).Fatal("analysis failed")
		}
	case "run":
		if err := runCrawl(ctx, st, project.ID, normalized, *maxPages, *mode, logger); err != nil {
			logger.WithError(err).Fatal("crawl failed")
		}
		if err := runAnalyze(ctx, st, project.ID, *concurrency, *scoringPath, logger); err != nil {
			logger.WithError(err).Fatal("analysis failed")
		}
	case "scores":
		if err := runListScores(ctx, st, project.ID); err != nil {
			logger.WithError(err).Fatal("scores failed")
		}
	case "export":
		exporter := &Exporter{
			store:     st,
			projectID: project.ID,
			domain:    aeolens.URLHost(normalized),
			outputDir: *outputDir,
			format:    *format,
		}
		if err := exporter.Export(ctx); err != nil {
			logger.WithError(err).Fatal("export failed")
		}
	default:
		usage()
		os.Exit(2)
	}
}

func runCrawl(ctx context.Context, st *store.Store, projectID uint, startURL string, maxPages int, mode string, logger *logrus.Logger) error {
	cfg := aeolens.NewDefaultCrawlConfig()
	cfg.MaxPages = maxPages
	cfg.Mode = aeolens.CrawlMode(mode)

	crawler, err := aeolens.NewCrawler(st, cfg, &aeolens.LogEmitter{Logger: logger}, logger)
	if err != nil {
		return err
	}
	progress, err := crawler.CrawlWebsite(ctx, projectID, startURL, cfg)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"crawled": progress.Crawled,
		"errors":  progress.Errors,
	}).Info("crawl finished")
	return nil
}

func runAnalyze(ctx context.Context, st *store.Store, projectID uint, concurrency int, scoringPath string, logger *logrus.Logger) error {
	manager := scoring.NewManager()
	if scoringPath != "" {
		if err := manager.LoadFile(scoringPath); err != nil {
			// Invalid config keeps the defaults active but is surfaced.
			logger.WithError(err).Warn("scoring config rejected, using defaults")
		}
	}

	client, err := llm.NewClientFromEnv()
	if err != nil {
		return err
	}
	if !client.Configured() {
		logger.Info("no LLM configured; categorization and depth use heuristics")
	}

	pipeline := analyzer.NewPipeline(st, nil, manager, client, &aeolens.LogEmitter{Logger: logger}, logger)
	pipeline.SetConcurrency(concurrency)
	if err := pipeline.AnalyzeProject(ctx, projectID); err != nil {
		return err
	}

	stats, err := st.GetProjectCrawlStats(ctx, projectID)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"pages":  stats.TotalPages,
		"scored": stats.ScoredPages,
	}).Info("analysis finished")
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: aeolens <crawl|analyze|run|scores|export|list> [flags]

flags:
  -url string            start URL of the website (required except for list)
  -max-pages int         maximum pages to crawl (default 100)
  -mode string           crawl mode: auto or manual (default "auto")
  -concurrency int       analysis workers (default 4)
  -scoring-config path   scoring config JSON file
  -format string         export format: csv or json (default "csv")
  -out string            export output directory (default "./exports")`)
}
