package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/debatecoach/internal/bus"
	"github.com/user/debatecoach/internal/collab"
	"github.com/user/debatecoach/internal/config"
	"github.com/user/debatecoach/internal/distill"
	"github.com/user/debatecoach/internal/executor"
	"github.com/user/debatecoach/internal/gateway"
	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/research"
	"github.com/user/debatecoach/internal/state"
	"github.com/user/debatecoach/internal/supervisor"
	"github.com/user/debatecoach/internal/types"
	"github.com/user/debatecoach/pkg/llm"
	"github.com/user/debatecoach/pkg/llm/gemini"
	"github.com/user/debatecoach/pkg/llm/openai"
)

// app holds the wired engine shared by serve and chat.
type app struct {
	store   *state.MemoryStore
	hub     *bus.Hub
	mirror  *bus.RedisMirror
	sup     *supervisor.Supervisor
	gateway *gateway.Gateway
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	lc := &llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	switch cfg.LLM.Provider {
	case "", "openai":
		return openai.New(lc), nil
	case "gemini":
		if lc.BaseURL == "https://api.openai.com/v1" {
			lc.BaseURL = ""
		}
		return gemini.New(ctx, lc)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

func newGatherer(cfg *config.Config) *research.Gatherer {
	var searchers []research.Searcher
	if cfg.Brave.APIKey != "" {
		searchers = append(searchers, research.NewBrave(cfg.Brave.APIKey))
	}
	if cfg.Wikipedia.Enabled {
		searchers = append(searchers, research.NewWikipedia(cfg.Wikipedia.BaseURL))
	}
	if len(searchers) == 0 {
		return nil
	}
	opts := []research.Option{
		research.WithMaxResults(cfg.Research.MaxResults),
		research.WithCacheTTL(cfg.CacheTTL()),
	}
	if cfg.Research.EnrichSnippets {
		opts = append(opts, research.WithEnrichment(research.NewReader()))
	}
	return research.NewGatherer(searchers, opts...)
}

func newHub(ctx context.Context, cfg *config.Config) (*bus.Hub, *bus.RedisMirror) {
	if cfg.Bus.RedisURL == "" {
		return bus.NewHub(), nil
	}
	mirror := bus.NewRedisMirror(cfg.Bus.RedisURL, cfg.Bus.Channel)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := mirror.Ping(pingCtx); err != nil {
		slog.Warn("redis mirror unreachable, updates stay local until it recovers", "error", err)
	}
	return bus.NewHub(bus.WithMirror(mirror)), mirror
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create llm provider: %w", err)
	}

	prompts, err := prompt.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens)
	if err != nil {
		return nil, fmt.Errorf("create prompt engine: %w", err)
	}
	if cfg.PromptsFile != "" {
		if err := prompts.LoadOverrides(cfg.PromptsFile); err != nil {
			return nil, err
		}
	}

	cheapModel := cfg.LLM.CheapModel
	if cheapModel == "" {
		cheapModel = cfg.LLM.Model
	}
	gen := collab.NewGenerator(provider, cfg.LLM.Model)
	cheap := collab.NewGenerator(provider, cheapModel)

	var gw *gateway.Gateway
	store := state.NewMemoryStore(
		state.WithIdleTTL(cfg.IdleTTL()),
		state.WithOnEvict(func(id types.SessionID) { gw.Queue.CloseLane(id) }),
	)
	hub, mirror := newHub(ctx, cfg)

	deps := executor.Deps{
		Generator: gen,
		Prompts:   prompts,
		Fallacies: collab.NewFallacyDetector(cheap, prompts),
		Scorer:    collab.NewBackupScorer(gen, prompts),
	}
	if g := newGatherer(cfg); g != nil {
		deps.Gatherer = g
		deps.Classifier = collab.NewSourceClassifier(cheap, prompts)
	} else {
		slog.Warn("research disabled (no brave key and wikipedia off)")
	}

	sup := supervisor.New(supervisor.Deps{
		Store:     store,
		Extractor: collab.NewClaimExtractor(cheap, prompts),
		Triager:   collab.NewTriager(cheap, prompts),
		Decider:   collab.NewCommandDecider(cheap, prompts),
		Planner:   collab.NewPlanner(cheap, prompts),
		Executors: map[types.Mode]supervisor.Executor{
			types.ModeDebate: executor.New(executor.Debate, deps),
			types.ModePitch:  executor.New(executor.Pitch, deps),
		},
		Summarizer: distill.NewSummarizer(gen, prompts),
		Bus:        hub,
	})

	gw = gateway.New(store, sup, int64(cfg.MaxConcurrent))
	return &app{
		store:   store,
		hub:     hub,
		mirror:  mirror,
		sup:     sup,
		gateway: gw,
	}, nil
}

func (a *app) start(ctx context.Context) {
	a.gateway.Start(ctx)
}

func (a *app) close() {
	a.gateway.Stop()
	a.store.StopJanitor()
	a.hub.Close()
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			slog.Warn("close redis mirror", "error", err)
		}
	}
}
