package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/ai"
	"github.com/spigell/outlet-matcher/internal/ai/gemini"
	"github.com/spigell/outlet-matcher/internal/filtering"
	"github.com/spigell/outlet-matcher/internal/logger"
	"github.com/spigell/outlet-matcher/internal/matching"
	"github.com/spigell/outlet-matcher/internal/secrets"
	"github.com/spigell/outlet-matcher/internal/store"
	"github.com/spigell/outlet-matcher/internal/taxonomy"
)

// environment is what every command needs: config, logger and the store.
type environment struct {
	config *Config
	logger *zap.Logger
	store  *store.Store
}

// setup builds the environment or exits, like the rest of the CLI does on
// startup failures.
func setup(ctx context.Context) *environment {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	dsn, err := resolveDSN(config.Database)
	if err != nil {
		logger.Fatal("resolving database dsn", zap.Error(err),
			zap.String("hint", "set OUTLET_MATCHER_DB_DSN or the 'database.dsn' key in the configuration file"),
		)
	}

	s, err := store.Open(ctx, config.Database.Driver, dsn)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("driver", config.Database.Driver))
	}

	logger.Debug("store opened", zap.String("driver", s.Driver()))

	return &environment{config: config, logger: logger, store: s}
}

func (e *environment) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing the store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func resolveDSN(cfg *DatabaseConfig) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "database dsn",
		Value: cfg.DSN,
		File:  cfg.DSNFile,
	})
}

// newMatcher builds the matching engine over the store.
func (e *environment) newMatcher(ctx context.Context) (*matching.Matcher, error) {
	cfg := e.config.Matching

	tax, err := taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return nil, err
	}

	weights, err := canonicalWeights(cfg.Weights)
	if err != nil {
		return nil, err
	}

	opts := matching.Options{
		Logger:       e.logger,
		Taxonomy:     tax,
		Workers:      cfg.Workers,
		FetchTimeout: cfg.FetchTimeout,
		Weights:      weights,
		Filter: filtering.Config{
			MinOffTopicHits: cfg.MinOffTopicHits,
			ExcludedOutlets: cfg.ExcludedOutlets,
			Disabled:        cfg.DisabledFilters,
		},
	}

	switch cfg.Semantic {
	case ai.BackendNone:
		opts.DisableSemantic = true
	case "", ai.BackendTFIDF:
	case ai.BackendGemini:
		semantic, err := newGeminiSemantic(ctx, cfg.Gemini, e.logger)
		if err != nil {
			return nil, err
		}
		opts.Semantic = semantic
	default:
		return nil, fmt.Errorf("unsupported semantic backend: %s", cfg.Semantic)
	}

	return matching.New(ctx, e.store, opts)
}

func newGeminiSemantic(ctx context.Context, cfg *GeminiConfig, log *zap.Logger) (ai.Semantic, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or matching.gemini.api-key-file)", err)
	}

	embedLogger := logger.WithFields(log, logger.SemanticFields(ai.BackendGemini, cfg.Model)...).
		With(zap.Int("ai_retry_attempts", cfg.MaxRetries))

	embedder, err := gemini.NewEmbedder(ctx, apiKey, cfg.Model, cfg.MaxRetries, embedLogger)
	if err != nil {
		return nil, err
	}

	return ai.NewEmbeddingSimilarity(embedder, embedLogger), nil
}

// canonicalWeights maps configured weight keys onto field names. Viper
// lowercases map keys, so the match is case-insensitive.
func canonicalWeights(in map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for key, value := range in {
		field, ok := canonicalField(key)
		if !ok {
			return nil, fmt.Errorf("%w %q (known fields: %s)", matching.ErrUnknownField, key, strings.Join(matching.Fields, ", "))
		}
		out[field] = value
	}
	return out, nil
}

func canonicalField(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, field := range matching.Fields {
		if strings.EqualFold(field, name) {
			return field, true
		}
	}
	return "", false
}
