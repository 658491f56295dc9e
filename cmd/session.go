package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/ai/gemini"
	"github.com/spigell/roomeo/internal/cache"
	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/httpapi"
	"github.com/spigell/roomeo/internal/logger"
	"github.com/spigell/roomeo/internal/matching"
	"github.com/spigell/roomeo/internal/secrets"
	"github.com/spigell/roomeo/internal/store"
	"github.com/spigell/roomeo/internal/supabase"
)

var errOffline = errors.New("not available with --offline")

// session holds everything a command needs. Construction failures are fatal.
type session struct {
	config  *Config
	logger  *zap.Logger
	offline bool

	client *supabase.Client
	store  *store.SQLiteStore
	redis  *cache.Redis

	userID string
	scorer *cache.CachedScorer
}

func newSession(ctx context.Context) *session {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	s := &session{
		config:  config,
		logger:  logger,
		offline: viper.GetBool("offline"),
		userID:  strings.TrimSpace(config.Supabase.UserID),
	}

	if s.offline {
		if _, err := s.openStore(ctx); err != nil {
			logger.Fatal("opening local store", zap.Error(err), zap.String("path", config.Store.Path))
		}
	} else {
		if err := s.connect(ctx); err != nil {
			logger.Fatal("connecting to the backend", zap.Error(err),
				zap.String("hint", "set supabase.url and supabase.key (or ROOMEO_SUPABASE_URL and ROOMEO_SUPABASE_KEY), or use --offline"),
			)
		}
	}

	if w := config.Matching.Weights; w.ExceedsScale() {
		logger.Warn("matching weights exceed the score scale, top scores will be capped",
			zap.Int("raw_maximum", w.RawMaximum()),
			zap.Int("max_score", matching.MaxScore),
		)
	}

	s.scorer = cache.NewCachedScorer(matching.NewScorer(config.Matching.Weights), s.matchCache(ctx), logger)

	return s
}

func (s *session) connect(ctx context.Context) error {
	cfg := s.config.Supabase
	if strings.TrimSpace(cfg.URL) == "" {
		return errors.New("backend url is not configured")
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "supabase key",
		Value: cfg.Key,
		Env:   "SUPABASE_ANON_KEY",
		File:  cfg.KeyFile,
	})
	if err != nil {
		return err
	}

	s.client = supabase.New(s.logger, cfg.URL, key)

	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	auth, err := s.client.SignIn(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return fmt.Errorf("signing in as %s: %w", cfg.Email, err)
	}
	if s.userID == "" {
		s.userID = auth.User.ID
	}
	s.logger.Info("signed in", zap.String("email", auth.User.Email), zap.String(logger.FieldSeeker, auth.User.ID))

	return nil
}

func (s *session) openStore(ctx context.Context) (*store.SQLiteStore, error) {
	if s.store != nil {
		return s.store, nil
	}

	st, err := store.OpenSQLite(s.config.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	s.store = st
	return st, nil
}

func (s *session) matchCache(ctx context.Context) cache.Cache {
	cfg := s.config.Redis
	if !cfg.Enabled {
		return cache.Nop{}
	}

	r, err := cache.Dial(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	if err != nil {
		s.logger.Warn("match cache disabled", zap.Error(err), zap.String("addr", cfg.Addr))
		return cache.Nop{}
	}

	s.redis = r
	return r
}

// backend returns the read side used for scoring: the local store when
// offline, the remote backend otherwise.
func (s *session) backend() httpapi.Backend {
	if s.offline {
		return s.store.Snapshot()
	}
	return s.client
}

// remote returns the backend client for operations that write to it.
func (s *session) remote() (*supabase.Client, error) {
	if s.offline || s.client == nil {
		return nil, errOffline
	}
	return s.client, nil
}

func (s *session) seeker(ctx context.Context) (*housing.Profile, error) {
	if s.userID == "" {
		return nil, errors.New("seeker is unknown: pass --user, set supabase.user-id or sign in with supabase.email and supabase.password")
	}

	profile, err := s.backend().GetProfile(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("getting seeker profile: %w", err)
	}
	return profile, nil
}

func (s *session) mustSeeker(ctx context.Context) *housing.Profile {
	seeker, err := s.seeker(ctx)
	if err != nil {
		s.logger.Fatal("loading the seeker", zap.Error(err))
	}
	return seeker
}

func (s *session) generator(ctx context.Context) (*gemini.Generator, error) {
	cfg := s.config.AI
	if !cfg.Enabled {
		return nil, errors.New("ai is disabled")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gc := cfg.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: gc.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  gc.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithAI(s.logger, gemini.Provider, gc.Model).With(zap.Int("ai_retry_attempts", gc.MaxRetries))

	return gemini.NewGenerator(ctx, apiKey, gc.Model, gc.MaxRetries, genLogger)
}

// explainer falls back to the static texts when ai is not available.
func (s *session) explainer(ctx context.Context) ai.Explainer {
	generator, err := s.generator(ctx)
	if err != nil {
		s.logger.Info("using static match explanations", zap.String("reason", err.Error()))
		return ai.Static{}
	}

	maxLog := 0
	if s.config.AI.Gemini != nil {
		maxLog = s.config.AI.Gemini.MaxLogLength
	}
	return gemini.NewExplainer(generator, logger.WithAI(s.logger, gemini.Provider, generator.Model()), maxLog)
}

func (s *session) searcher(ctx context.Context) ai.Searcher {
	generator, err := s.generator(ctx)
	if err != nil {
		s.logger.Warn("web search is unavailable", zap.Error(err))
		return ai.Static{}
	}
	return gemini.NewSearcher(generator, logger.WithAI(s.logger, gemini.Provider, generator.Model()))
}

func (s *session) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing match cache", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("closing local store", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

func redacted(config *Config) Config {
	c := *config
	if c.Supabase.Key != "" {
		c.Supabase.Key = "***"
	}
	if c.Supabase.Password != "" {
		c.Supabase.Password = "***"
	}
	if c.Redis.Password != "" {
		c.Redis.Password = "***"
	}
	if c.AI.Gemini != nil && c.AI.Gemini.APIKey != "" {
		gc := *c.AI.Gemini
		gc.APIKey = "***"
		c.AI.Gemini = &gc
	}
	return c
}
