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

// Package analyzer scores crawled pages: categorize, derive signals,
// evaluate the rule set per dimension, aggregate, persist.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agentberlin/aeolens"
	"github.com/agentberlin/aeolens/internal/llm"
	"github.com/agentberlin/aeolens/internal/logging"
	"github.com/agentberlin/aeolens/internal/rules"
	"github.com/agentberlin/aeolens/internal/scoring"
)

const (
	defaultBatchSize   = 50
	defaultConcurrency = 4
)

// errRepoWrite marks repository write failures. Unlike per-page analysis
// failures these abort the run: a page that cannot be persisted is never
// marked processed, so continuing would refetch it every batch.
var errRepoWrite = errors.New("repository write failed")

// Pipeline drives project-wide analysis over unprocessed pages.
type Pipeline struct {
	repo        aeolens.Repository
	registry    *rules.Registry
	categorizer *Categorizer
	scoring     *scoring.Manager
	llm         *llm.Client
	emitter     aeolens.Emitter
	logger      *logrus.Logger

	batchSize   int
	concurrency int
}

// NewPipeline wires an analysis pipeline. A nil registry gets the
// default rule set; nil emitter and logger are replaced by no-ops.
func NewPipeline(repo aeolens.Repository, registry *rules.Registry, manager *scoring.Manager, client *llm.Client, emitter aeolens.Emitter, logger *logrus.Logger) *Pipeline {
	if manager == nil {
		manager = scoring.NewManager()
	}
	if registry == nil {
		registry = rules.NewDefaultRegistry(manager.Current())
	}
	if client == nil {
		client = llm.NewClient()
	}
	if emitter == nil {
		emitter = &aeolens.NoOpEmitter{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{
		repo:        repo,
		registry:    registry,
		categorizer: NewCategorizer(client, logger),
		scoring:     manager,
		llm:         client,
		emitter:     emitter,
		logger:      logger,
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
	}
}

// SetConcurrency overrides the per-batch worker count.
func (p *Pipeline) SetConcurrency(n int) {
	if n > 0 {
		p.concurrency = n
	}
}

// AnalyzeProject scores every unprocessed page of the project. Per-page
// failures are logged and counted; only repository-level errors abort.
func (p *Pipeline) AnalyzeProject(ctx context.Context, projectID uint) error {
	project, err := p.repo.GetProjectContext(ctx, projectID)
	if err != nil {
		p.emitFailure(projectID, err)
		return fmt.Errorf("load project context: %w", err)
	}

	stats, err := p.repo.GetProjectCrawlStats(ctx, projectID)
	if err != nil {
		p.emitFailure(projectID, err)
		return fmt.Errorf("load crawl stats: %w", err)
	}
	total := stats.TotalPages - stats.ProcessedPages

	p.emitter.Emit(aeolens.EventAnalyzeStarted, aeolens.AnalyzeEvent{
		ProjectID: projectID,
		Total:     total,
	})
	p.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"pending":    total,
	}).Info("analysis started")

	// The scoring config snapshot is pinned for the whole run so every
	// page in it carries the same version.
	cfg := p.scoring.Current()
	version := cfg.Version

	var mu sync.Mutex
	var runErr error
	analyzed, failed := 0, 0

	for {
		if ctx.Err() != nil {
			p.emitFailure(projectID, ctx.Err())
			return ctx.Err()
		}

		batch, err := p.repo.FindUnprocessedByProject(ctx, projectID, p.batchSize)
		if err != nil {
			p.emitFailure(projectID, err)
			return fmt.Errorf("load unprocessed pages: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		pool := aeolens.NewWorkerPool(ctx, p.concurrency, p.concurrency*2)
		for i := range batch {
			page := batch[i]
			submitErr := pool.Submit(func() {
				score, pageErr := p.analyzePage(ctx, &page, project, cfg, version)

				mu.Lock()
				if pageErr != nil {
					failed++
					if errors.Is(pageErr, errRepoWrite) && runErr == nil {
						runErr = pageErr
					}
				} else {
					analyzed++
				}
				done, pending := analyzed, total
				mu.Unlock()

				p.emitter.Emit(aeolens.EventAnalyzeProgress, aeolens.AnalyzeEvent{
					ProjectID:  projectID,
					CurrentURL: page.URL,
					Analyzed:   done,
					Total:      pending,
				})
				if pageErr != nil {
					p.logger.WithError(pageErr).WithField("url", page.URL).Warn("page analysis failed")
					return
				}
				p.emitter.Emit(aeolens.EventPageAnalyzed, aeolens.AnalyzeEvent{
					ProjectID:   projectID,
					CurrentURL:  page.URL,
					GlobalScore: score.GlobalScore,
					Analyzed:    done,
					Total:       pending,
				})
			})
			if submitErr != nil {
				pool.Close()
				p.emitFailure(projectID, submitErr)
				return submitErr
			}
		}
		pool.Close()

		mu.Lock()
		abort := runErr
		mu.Unlock()
		if abort != nil {
			p.emitFailure(projectID, abort)
			return abort
		}
	}

	p.emitter.Emit(aeolens.EventAnalyzeCompleted, aeolens.AnalyzeEvent{
		ProjectID: projectID,
		Analyzed:  analyzed,
		Total:     total,
	})
	p.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"analyzed":   analyzed,
		"failed":     failed,
	}).Info("analysis completed")
	return nil
}

// analyzePage scores one page end to end and persists the result.
func (p *Pipeline) analyzePage(ctx context.Context, page *aeolens.CrawledPage, project *aeolens.ProjectContext, cfg *scoring.Config, version string) (*aeolens.ContentScore, error) {
	signals := BuildSignals(page, project)
	cat := p.categorizer.Categorize(ctx, page, signals)

	score := &aeolens.ContentScore{
		ProjectID:           page.ProjectID,
		CrawledPageID:       page.ID,
		URL:                 page.URL,
		PageType:            cat.Category,
		AnalyzedAt:          time.Now(),
		ScoringRulesVersion: version,
	}

	if AnalysisLevel(cat.Category) == LevelExcluded {
		score.Excluded = true
		if err := p.persist(ctx, page, score); err != nil {
			return nil, err
		}
		return score, nil
	}

	rc := &rules.RuleContext{
		Page:     page,
		Signals:  signals,
		Project:  project,
		Category: cat.Category,
		Config:   cfg,
		LLM:      p.llm,
		Logger:   p.logger,
	}

	score.Details = make(map[string]aeolens.DimensionDetail, 4)
	for _, dim := range []string{scoring.DimTechnical, scoring.DimStructure, scoring.DimAuthority, scoring.DimQuality} {
		outcomes := p.evaluateDimension(ctx, dim, cat.Category, rc)
		score.Details[dim] = aggregateDimension(outcomes)
		score.Issues = append(score.Issues, collectIssues(dim, outcomes)...)
	}
	sortIssues(score.Issues)

	score.Technical = score.Details[scoring.DimTechnical].Score
	score.Structure = score.Details[scoring.DimStructure].Score
	score.Authority = score.Details[scoring.DimAuthority].Score
	score.Quality = score.Details[scoring.DimQuality].Score
	score.GlobalScore = globalScore(score.Details, cfg.Weights)

	if err := p.persist(ctx, page, score); err != nil {
		return nil, err
	}
	return score, nil
}

// evaluateDimension runs the dimension's rules sequentially on the
// current task. A failing rule scores zero at its registered weight so
// the failure dents the dimension instead of silently vanishing from
// the weighted average.
func (p *Pipeline) evaluateDimension(ctx context.Context, dimension, category string, rc *rules.RuleContext) []ruleOutcome {
	var outcomes []ruleOutcome
	for _, rule := range p.registry.RulesForDimension(dimension, category) {
		res, err := rule.Evaluate(ctx, rc)
		if err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"rule": rule.ID(),
				"url":  rc.Page.URL,
			}).Warn("rule evaluation failed")
			outcomes = append(outcomes, ruleOutcome{rule: rule, result: &rules.RuleResult{
				Score:    0,
				Weight:   rule.Weight(),
				MaxScore: 100,
				Evidence: []aeolens.EvidenceItem{{
					Topic:   rule.Name(),
					Icon:    "error",
					Message: fmt.Sprintf("evaluation failed: %v", err),
				}},
			}})
			continue
		}
		if res == nil {
			continue
		}
		outcomes = append(outcomes, ruleOutcome{rule: rule, result: res})
	}
	return outcomes
}

func (p *Pipeline) persist(ctx context.Context, page *aeolens.CrawledPage, score *aeolens.ContentScore) error {
	if err := p.repo.UpsertContentScore(ctx, score); err != nil {
		return fmt.Errorf("%w: persist score for %s: %w", errRepoWrite, page.URL, err)
	}
	if err := p.repo.MarkProcessed(ctx, page.ID, true); err != nil {
		return fmt.Errorf("%w: mark %s processed: %w", errRepoWrite, page.URL, err)
	}
	return nil
}

func (p *Pipeline) emitFailure(projectID uint, err error) {
	p.emitter.Emit(aeolens.EventAnalyzeFailed, aeolens.AnalyzeEvent{
		ProjectID: projectID,
		Error:     err.Error(),
	})
}
