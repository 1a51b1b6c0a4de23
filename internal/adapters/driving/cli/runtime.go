package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Januuus/chatbot/internal/adapters/driven/ai"
	"github.com/Januuus/chatbot/internal/adapters/driven/oracle"
	"github.com/Januuus/chatbot/internal/adapters/driven/prompts"
	"github.com/Januuus/chatbot/internal/adapters/driven/storage/memory"
	"github.com/Januuus/chatbot/internal/adapters/driven/storage/sqlstore"
	"github.com/Januuus/chatbot/internal/config"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/core/services"
	"github.com/Januuus/chatbot/internal/extractors"
	"github.com/Januuus/chatbot/internal/logger"
	"github.com/Januuus/chatbot/internal/metrics"
	"github.com/Januuus/chatbot/internal/postprocessors"
)

// runtime bundles the configuration and services a command works with.
type runtime struct {
	cfg       *config.Config
	documents driving.DocumentService
	chat      driving.ChatService
	training  driving.TrainingService
	metrics   *metrics.Metrics

	// llm is nil unless the command requires models.
	llm *ai.Services

	// schemaVersion reports the applied migration version.
	schemaVersion func(ctx context.Context) (int, error)

	closers []func() error
}

// Close releases every resource in reverse order of acquisition.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// openRuntime builds the runtime. Tests replace it.
var openRuntime = newRuntime

// loadConfig reads configuration, initialises logging and checks req.
func loadConfig(req config.Requirements) (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: cfgFile})
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}); err != nil {
		return nil, err
	}
	logger.SetVerbose(verbose)

	if err := cfg.Validate(req); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// newRuntime loads configuration and wires the services. Without the
// Database requirement the stores are kept in memory.
func newRuntime(ctx context.Context, req config.Requirements) (*runtime, error) {
	cfg, err := loadConfig(req)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, metrics: metrics.New()}

	var (
		docs  driven.DocumentStore
		convs driven.ConversationStore
	)
	if req.Database {
		logger.Section("Storage")
		store, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.ConnString(),
			DataDir:         cfg.Database.DataDir,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnectAttempts: cfg.Database.ConnectRetries,
			RetryDelay:      cfg.Database.RetryDelay.Std(),
		})
		if err != nil {
			return nil, err
		}
		rt.schemaVersion = store.Version
		rt.closers = append(rt.closers, store.Close)
		docs, convs = store.DocumentStore(), store.ConversationStore()
	} else {
		logger.Warn("Using in-memory storage, data is lost on exit")
		rt.schemaVersion = func(context.Context) (int, error) { return 0, nil }
		docs, convs = memory.NewDocumentStore(), memory.NewConversationStore()
	}

	var llms *ai.Services
	if req.LLM {
		logger.Section("Models")
		llms, err = ai.NewServices(cfg.AnswerSettings(), cfg.SelectorSettings())
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() error {
			llms.Close()
			return nil
		})
		logger.Debug("answer model %s, selector model %s", llms.Answer.ModelName(), llms.Selector.ModelName())
	}

	if err := rt.wire(docs, convs, llms); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// wire builds the core services on top of the given stores. llms may be
// nil, in which case chat queries fail with ErrLLMUnavailable.
func (r *runtime) wire(docs driven.DocumentStore, convs driven.ConversationStore, llms *ai.Services) error {
	cfg := r.cfg

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(postprocessors.DefaultPipelineNames, map[string]map[string]any{
		"chunker": {
			"chunk_size":    cfg.Documents.ChunkSize,
			"overlap_words": cfg.Documents.ChunkOverlapWords,
		},
	})
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	var recorder driven.Recorder = driven.NopRecorder{}
	if r.metrics != nil {
		recorder = r.metrics
	}

	documents := services.NewDocumentService(
		docs,
		extractors.DefaultRegistry(),
		pipeline,
		services.DocumentConfig{
			MaxFileSize:  cfg.Documents.MaxFileSize,
			AllowedTypes: cfg.Documents.AllowedTypes,
		},
		recorder,
	)
	r.documents = documents
	r.training = services.NewTrainingService(documents)

	store := prompts.NewStore(cfg.Prompts.Dir, map[string]string{
		driven.PromptChatSystem:     services.ChatSystemPrompt,
		driven.PromptSelectorSystem: oracle.SystemPrompt,
	})
	chatPrompt, err := store.Load(driven.PromptChatSystem)
	if err != nil {
		return err
	}

	var (
		answer   driven.LLMService
		selector driving.ChunkSelector
	)
	if llms != nil {
		selectorPrompt, err := store.Load(driven.PromptSelectorSystem)
		if err != nil {
			return err
		}
		r.llm = llms
		answer = llms.Answer
		selector = services.NewRelevanceSelector(docs, oracle.New(llms.Selector, oracle.WithSystemPrompt(selectorPrompt)), recorder)
	}

	r.chat = services.NewChatService(
		answer,
		selector,
		documents,
		convs,
		services.ChatConfig{
			MaxTokens:    cfg.Claude.MaxTokens,
			Temperature:  driven.Temperature(cfg.Claude.Temperature),
			SystemPrompt: chatPrompt,
		},
		recorder,
	)
	return nil
}
