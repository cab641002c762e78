package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/cache"
	"github.com/promptrepo-hq/promptrepo-go/internal/config"
	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
	"github.com/promptrepo-hq/promptrepo-go/internal/fallback"
	"github.com/promptrepo-hq/promptrepo-go/internal/logger"
	"github.com/promptrepo-hq/promptrepo-go/internal/session"
	"github.com/promptrepo-hq/promptrepo-go/pkg/api"
	"github.com/promptrepo-hq/promptrepo-go/pkg/evals"
	"github.com/promptrepo-hq/promptrepo-go/pkg/sinks"
)

// Runner represents one evaluation pass runtime. It owns the API client, the
// session and cache stores, the suite registry, and the result sinks, and
// performs a single backend sync plus eval pass when RunOnce is called.
type Runner struct {
	cfg      *config.Config
	client   *api.Client
	sessions session.Store
	cache    cache.Store
	policy   *fallback.Policy
	suites   *evals.Registry
	evalRun  *evals.Runner
	fanout   *sinks.Fanout
	log      logger.Logger
}

// NewRunner builds an evaluation runtime from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := api.New(api.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
	})

	sessions, err := session.NewStore(cfg.SessionStoreType, cfg.SessionStorePath)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	sess, found, err := sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	switch {
	case found:
		client.SetAuthToken(sess.Token)
		log.InfoObj("session restored", "session_meta", map[string]any{
			"provider":   sess.Provider,
			"user":       sess.User.Login,
			"expires_at": sess.ExpiresAt.UTC(),
		})
	default:
		log.WarnObj("no stored session; requests run unauthenticated", "session_store", cfg.SessionStorePath)
	}

	cacheOpts := cache.Options{
		EntryTTL:        cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanupInterval,
	}
	cacheStore, err := cache.NewStore(cfg.CacheType, cfg.CachePath, cacheOpts)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	log.InfoObj("cache initialized", "cache_config", map[string]any{
		"type":                     cfg.CacheType,
		"path":                     cfg.CachePath,
		"entry_ttl_seconds":        int(cfg.CacheTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CacheCleanupInterval.Seconds()),
	})

	suiteReg, err := evals.LoadRegistry(cfg.SuitesFile)
	if err != nil {
		return nil, fmt.Errorf("load suites registry: %w", err)
	}
	suiteList := suiteReg.Enabled()
	suiteIDs := make([]string, 0, len(suiteList))
	for _, s := range suiteList {
		suiteIDs = append(suiteIDs, s.ID)
	}
	log.InfoObj("suites registry loaded", "suites_meta", map[string]any{
		"count": len(suiteIDs),
		"ids":   suiteIDs,
	})

	var enabledSinks []sinks.SinkConfig
	if strings.TrimSpace(cfg.SinksFile) != "" {
		sinkReg, err := sinks.LoadRegistry(cfg.SinksFile)
		if err != nil {
			return nil, fmt.Errorf("load sinks registry: %w", err)
		}
		enabledSinks = sinkReg.Enabled()
	}
	sinkClients, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabledSinks, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}
	if len(sinkClients) == 0 {
		log.WarnObj("no sinks configured; results go to the backend only", "sinks_file", cfg.SinksFile)
	}
	sinkSummaries := make([]map[string]string, 0, len(enabledSinks))
	for _, sinkCfg := range enabledSinks {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(sinkSummaries),
		"sinks": sinkSummaries,
	})

	return &Runner{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		cache:    cacheStore,
		policy:   fallback.NewPolicy(cacheStore, nil, log),
		suites:   suiteReg,
		evalRun:  evals.NewRunner(client.Prompts(), log),
		fanout:   sinks.NewFanout(sinkClients),
		log:      log,
	}, nil
}

// Client exposes the underlying API client, for callers that need typed
// services beyond what RunOnce drives.
func (r *Runner) Client() *api.Client { return r.client }

// SuiteCount reports how many enabled suites the registry holds.
func (r *Runner) SuiteCount() int { return len(r.suites.Enabled()) }

// RunOnce performs a single backend sync and evaluation pass: refresh the
// workspace view through the fallback policy, run every enabled suite, then
// submit and fan out the results.
func (r *Runner) RunOnce(ctx context.Context) error {
	if r == nil || r.evalRun == nil {
		return fmt.Errorf("runner is not initialized")
	}

	start := time.Now()
	suiteList := r.suites.Enabled()
	r.log.InfoObj("eval pass started", "pass_meta", map[string]any{
		"suites_count": len(suiteList),
		"started_at":   start.UTC(),
	})

	r.syncWorkspace(ctx)

	if len(suiteList) == 0 {
		r.log.WarnObj("no suites enabled; nothing to run", "suites_file", r.cfg.SuitesFile)
		return nil
	}

	runs, err := r.evalRun.RunAll(ctx, suiteList)
	if err != nil {
		return fmt.Errorf("run suites: %w", err)
	}

	submitted := 0
	published := 0
	for _, run := range runs {
		if err := r.client.Evals().Submit(ctx, run); err != nil {
			r.log.ErrorObj("eval run submit failed", "submit_error", map[string]any{
				"suite_id": run.SuiteID,
				"error":    err.Error(),
			})
		} else {
			submitted++
		}

		n, err := r.fanout.Publish(ctx, sinks.NewEvent(run))
		if err != nil {
			r.log.ErrorObj("eval run publish failed", "publish_error", map[string]any{
				"suite_id": run.SuiteID,
				"error":    err.Error(),
			})
		}
		published += n
	}

	r.log.InfoObj("eval pass completed", "pass_meta", map[string]any{
		"suites_count": len(runs),
		"submitted":    submitted,
		"published":    published,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

// syncWorkspace refreshes the hosting config, repos, and providers views.
// Each fetch goes through the fallback policy, so a reachable backend keeps
// the cache warm and an unreachable one serves the last-good snapshot.
// Failures here are logged but never abort the pass.
func (r *Runner) syncWorkspace(ctx context.Context) {
	var hosting domain.HostingConfig
	if err := r.resolve(ctx, "/v0/config", &hosting); err != nil {
		r.log.WarnObj("hosting config fetch failed", "error", err)
	} else {
		r.log.InfoObj("hosting config loaded", "hosting_type", hosting.HostingType)
	}

	var repos []domain.Repo
	if err := r.resolve(ctx, "/v0/repos", &repos); err != nil {
		r.log.WarnObj("repos fetch failed", "error", err)
	} else {
		r.log.InfoObj("repos loaded", "repos_count", len(repos))
	}

	var providers []domain.ModelProvider
	if err := r.resolve(ctx, "/v0/providers", &providers); err != nil {
		r.log.WarnObj("providers fetch failed", "error", err)
	} else {
		r.log.InfoObj("providers loaded", "providers_count", len(providers))
	}
}

// resolve fetches one endpoint, applies the fallback policy to the envelope,
// and decodes the payload into out.
func (r *Runner) resolve(ctx context.Context, endpoint string, out any) error {
	env, err := r.client.Get(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	env = r.policy.Resolve("GET "+endpoint, env)
	if err := env.Err(); err != nil {
		return err
	}
	return env.DecodeData(out)
}

// Close releases the session and cache stores, logging any errors encountered.
func (r *Runner) Close() {
	if r == nil {
		return
	}
	if r.sessions != nil {
		if err := r.sessions.Close(); err != nil {
			r.log.ErrorObj("session store close failed", "error", err)
		}
	}
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			r.log.ErrorObj("cache close failed", "error", err)
		}
	}
}
