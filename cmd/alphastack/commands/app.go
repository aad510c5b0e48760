package commands

import (
	"context"
	"fmt"

	"github.com/alphastack/backend/internal/api"
	"github.com/alphastack/backend/internal/api/handlers"
	"github.com/alphastack/backend/internal/decision"
	"github.com/alphastack/backend/internal/enrichment"
	"github.com/alphastack/backend/internal/marketdata"
	"github.com/alphastack/backend/internal/positions"
	"github.com/alphastack/backend/internal/rules"
	"github.com/alphastack/backend/internal/scoring"
	"github.com/alphastack/backend/internal/store"
	"github.com/alphastack/backend/internal/thesis"
	"github.com/alphastack/backend/pkg/config"
	"github.com/alphastack/backend/pkg/logger"
)

// app wires the full component graph. Every command builds exactly the
// parts it needs through this.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	store     store.Store
	positions *positions.Store
	rules     *rules.Store
	engine    *decision.Engine
	enricher  *enrichment.Enricher
	scheduler *enrichment.Scheduler
	stream    *api.StreamHub
}

// newApp loads config, opens storage and wires the pipeline
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	st, err := store.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Initialize(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	weights := scoring.Weights{
		VolumeMomentum:   cfg.Scoring.WeightVolumeMomentum,
		FloatShort:       cfg.Scoring.WeightFloatShort,
		Technical:        cfg.Scoring.WeightTechnical,
		OptionsSentiment: cfg.Scoring.WeightOptionsSentiment,
	}

	bars := marketdata.NewBatchFetcher(
		marketdata.NewClient(cfg.Polygon, cfg.Enrichment, log),
		cfg.Enrichment.FetchConcurrency,
	)

	var news enrichment.HeadlineFetcher
	if cfg.News.Enabled {
		news = marketdata.NewNewsClient(cfg.News, cfg.Enrichment, log)
	}

	thresholds := scoring.Thresholds{
		Watch:      cfg.Scoring.ThresholdWatch,
		TradeReady: cfg.Scoring.ThresholdTradeReady,
	}

	enricher := enrichment.NewEnricher(
		st, bars, news,
		scoring.NewScorer(weights, log),
		thesis.NewComposer(weights),
		thresholds,
		cfg.Enrichment,
		log,
	)

	pos := positions.NewStore()
	engine := decision.NewEngine(st, decision.NewRepository(st), pos, cfg.Decision, log)

	stream := api.NewStreamHub(log)
	enricher.OnRunComplete(func(r enrichment.RunResult) {
		stream.Broadcast(map[string]interface{}{
			"type": "enrichment_run",
			"run":  r,
		})
	})

	return &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		positions: pos,
		rules:     rules.NewStore(log),
		engine:    engine,
		enricher:  enricher,
		scheduler: enrichment.NewScheduler(enricher, cfg.Enrichment.Interval, log),
		stream:    stream,
	}, nil
}

// router builds the HTTP surface over the wired components
func (a *app) router() *api.Server {
	h := api.Handlers{
		Discoveries: handlers.NewDiscoveryHandler(a.store, a.log),
		Decisions:   handlers.NewDecisionHandler(a.engine, a.log),
		Fills:       handlers.NewFillHandler(positions.NewReconciler(a.positions, a.log), a.engine, a.log),
		Rules:       handlers.NewRulesHandler(a.rules, a.log),
		Status:      handlers.NewStatusHandler(a.scheduler, a.store, a.positions, a.log),
		Stream:      a.stream,
	}

	return api.New(a.cfg, a.log, api.NewRouter(h, a.cfg.Decision.AdminToken, a.log))
}

func (a *app) close() {
	a.stream.Close()
	a.store.Close()
}
