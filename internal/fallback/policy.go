package fallback

import (
	"encoding/json"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/cache"
	"github.com/promptrepo-hq/promptrepo-go/internal/logger"
	"github.com/promptrepo-hq/promptrepo-go/pkg/api"
)

// Package fallback centralizes the on-error policy: when a call resolves to
// an Error envelope, answer from the last-good cache, else from a configured
// fixture, else surface the error unchanged. Success envelopes are written
// through to the cache on the way out.

// Markers set on the Message field of substituted envelopes so callers can
// tell live data from fallback data.
const (
	SourceCache   = "fallback: served from local cache"
	SourceFixture = "fallback: served from configured fixture"
)

// Policy resolves Error envelopes against local data sources.
type Policy struct {
	cache    cache.Store
	fixtures map[string]json.RawMessage
	log      logger.Logger
}

// NewPolicy builds a policy over the given cache and fixture set. Both may be
// nil; a nil cache disables write-through and cache lookups.
func NewPolicy(store cache.Store, fixtures map[string]json.RawMessage, log logger.Logger) *Policy {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Policy{cache: store, fixtures: fixtures, log: log}
}

// Resolve applies the policy to one envelope keyed by endpoint. The input
// envelope is never mutated; substituted envelopes are freshly constructed.
func (p *Policy) Resolve(key string, env *api.Envelope) *api.Envelope {
	if p == nil || env == nil {
		return env
	}

	if !env.IsError() {
		p.writeThrough(key, env)
		return env
	}

	if p.cache != nil {
		payload, found, err := p.cache.Get(key)
		if err != nil {
			p.log.WarnObj("fallback cache read failed", "fallback_error", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		} else if found {
			p.log.InfoObj("serving cached data after api error", "fallback_hit", map[string]any{
				"key":        key,
				"error_type": env.Type,
			})
			return substituted(payload, SourceCache)
		}
	}

	if payload, ok := p.fixtures[key]; ok {
		p.log.InfoObj("serving fixture data after api error", "fallback_fixture", map[string]any{
			"key":        key,
			"error_type": env.Type,
		})
		return substituted(payload, SourceFixture)
	}

	return env
}

func (p *Policy) writeThrough(key string, env *api.Envelope) {
	if p.cache == nil || len(env.Data) == 0 {
		return
	}
	if err := p.cache.Put(key, env.Data); err != nil {
		p.log.WarnObj("fallback cache write failed", "fallback_error", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func substituted(payload json.RawMessage, source string) *api.Envelope {
	return &api.Envelope{
		Kind:    api.KindSuccess,
		Status:  "success",
		Data:    append(json.RawMessage(nil), payload...),
		Message: source,
		Meta:    api.Meta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	}
}
