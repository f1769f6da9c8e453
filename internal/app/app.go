package app

import (
	"context"
	"fmt"

	apihttp "github.com/ClareAI/astra-voice-admin/internal/adapters/http"
	"github.com/ClareAI/astra-voice-admin/internal/cache"
	"github.com/ClareAI/astra-voice-admin/internal/config"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/repository"
	"github.com/ClareAI/astra-voice-admin/internal/services/assignment"
	"github.com/ClareAI/astra-voice-admin/internal/services/assistant"
	"github.com/ClareAI/astra-voice-admin/internal/services/user"
	"github.com/ClareAI/astra-voice-admin/internal/services/voice"
	"github.com/ClareAI/astra-voice-admin/internal/session"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/ClareAI/astra-voice-admin/pkg/pubsub"
	"github.com/ClareAI/astra-voice-admin/pkg/redis"
	"go.uber.org/zap"
)

// App holds the services shared by the console server and the CLI.
type App struct {
	Config      config.Config
	Client      *apihttp.Client
	Sessions    *session.Manager
	Cache       *cache.QueryCache
	Users       *user.UserService
	Assistants  *assistant.AssistantService
	Voices      *voice.VoiceService
	Assignments *assignment.AssignmentService
	Repos       repository.RepositoryManager
	Notices     *notify.Recorder
	// Audit is nil unless Options.Audit is set and a topic is configured.
	Audit *pubsub.PubSubService

	closers []func() error
}

// Options tunes what New wires up.
type Options struct {
	// Repositories opens the wizard draft store (Postgres when configured).
	Repositories bool
	// Notifier receives wizard and console notifications after they are recorded.
	Notifier notify.Notifier
	// Audit publishes console writes to the configured Pub/Sub topic.
	Audit bool
}

// New builds the session stack, the API client and the services over cfg.
// The session is started: storage changes are watched until ctx ends and any
// stored session is verified in the background.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	kv, closeKV, err := OpenSessionStore(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeKV)

	a.Client = apihttp.NewClient(cfg.API.APIServiceURL,
		apihttp.WithTokenSource(session.NewProvider(kv)),
		apihttp.WithRateLimit(cfg.API.RateLimitPerSec, cfg.API.RateLimitBurst),
	)
	if cfg.API.Timeout > 0 {
		a.Client.HTTPClient.Timeout = cfg.API.Timeout
	}

	a.Sessions = session.NewManager(ctx, kv, a.Client)
	if err := a.Sessions.Start(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Cache = cache.NewQueryCache(cfg.CacheStale)
	a.Users = user.NewUserService(a.Client, a.Cache)
	a.Assistants = assistant.NewAssistantService(a.Client, a.Cache)
	a.Voices = voice.NewVoiceService(a.Client, a.Cache)
	a.Assignments = assignment.NewAssignmentService(a.Client, a.Cache)

	next := opts.Notifier
	if next == nil {
		next = notify.LogNotifier{}
	}
	a.Notices = notify.NewRecorder(0, next)

	if opts.Repositories {
		repos, err := repository.NewRepositoryManager(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open repositories: %w", err)
		}
		a.Repos = repos
		a.closers = append(a.closers, repos.Close)
	}

	if opts.Audit && cfg.Audit != nil {
		audit, err := pubsub.NewPubSubService(ctx, cfg.Audit)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open audit topic: %w", err)
		}
		logger.Info(ctx, "audit topic ready",
			zap.String("project", cfg.Audit.ProjectID),
			zap.String("topic", cfg.Audit.TopicName),
		)
		a.Audit = audit
		a.closers = append(a.closers, audit.Close)
	}

	return a, nil
}

// OpenSessionStore opens the configured session backend and returns a
// function that releases it.
func OpenSessionStore(ctx context.Context, cfg config.SessionConfig) (session.KVStore, func() error, error) {
	switch cfg.Store {
	case config.SessionStoreRedis:
		svc, err := redis.NewRedisService(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "session store: redis",
			zap.String("host", cfg.Redis.Host),
			zap.String("namespace", cfg.Namespace),
		)
		return session.NewRedisStore(svc, cfg.Namespace), svc.Close, nil
	case config.SessionStoreFile, "":
		fs, err := session.NewFileStore(cfg.FilePath, cfg.PollInterval)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "session store: file", zap.String("path", fs.Path()))
		return fs, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// Close flushes the audit topic and releases the session store and the
// database connection.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
