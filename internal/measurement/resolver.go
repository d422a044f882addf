package measurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrAgentNotFound = errors.New("agent not found")

// Resolver maps human-entered names (device hostname, enterprise agent name)
// to measurement agent identifiers. Lookups may be cached in redis because
// agent IDs are stable; the cache is optional and the resolver works without
// one.
type Resolver struct {
	client *Client
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewResolver(client *Client, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve finds the agent identifier for the given name. Transport failures
// against the measurement API are logged and reported as ErrAgentNotFound so
// callers only branch on found/not-found.
func (r *Resolver) Resolve(ctx context.Context, kind AgentKind, name string) (AgentRef, error) {
	if ref, ok := r.cachedRef(ctx, kind, name); ok {
		return ref, nil
	}

	var (
		ref AgentRef
		err error
	)
	switch kind {
	case AgentKindEndpoint:
		ref, err = r.resolveEndpoint(ctx, name)
	case AgentKindEnterprise:
		ref, err = r.resolveEnterprise(ctx, name)
	default:
		return AgentRef{}, fmt.Errorf("unknown agent kind: %s", kind)
	}

	if err != nil {
		if !errors.Is(err, ErrAgentNotFound) {
			r.logger.Warn("agent lookup failed, reporting as not found",
				"kind", kind,
				"name", name,
				"error", err,
			)
			err = ErrAgentNotFound
		}
		return AgentRef{}, err
	}

	r.storeRef(ctx, kind, name, ref)
	return ref, nil
}

func (r *Resolver) resolveEndpoint(ctx context.Context, hostname string) (AgentRef, error) {
	body, err := r.client.Get(ctx, pathEndpointAgents+"?computerName="+url.QueryEscape(hostname))
	if err != nil {
		return AgentRef{}, err
	}

	var response struct {
		EndpointAgents []struct {
			AgentID string `json:"agentId"`
		} `json:"endpointAgents"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return AgentRef{}, fmt.Errorf("failed to decode endpoint agents: %w", err)
	}

	if len(response.EndpointAgents) == 0 {
		return AgentRef{}, ErrAgentNotFound
	}

	return AgentRef{
		Kind: AgentKindEndpoint,
		ID:   response.EndpointAgents[0].AgentID,
	}, nil
}

func (r *Resolver) resolveEnterprise(ctx context.Context, agentName string) (AgentRef, error) {
	body, err := r.client.Get(ctx, pathAgents+"?agentTypes=ENTERPRISE")
	if err != nil {
		return AgentRef{}, err
	}

	var response struct {
		Agents []struct {
			AgentID   int64  `json:"agentId"`
			AgentName string `json:"agentName"`
		} `json:"agents"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return AgentRef{}, fmt.Errorf("failed to decode agents: %w", err)
	}

	// Exact, case-sensitive match.
	for _, agent := range response.Agents {
		if agent.AgentName == agentName {
			return AgentRef{
				Kind:    AgentKindEnterprise,
				AgentID: agent.AgentID,
			}, nil
		}
	}

	return AgentRef{}, ErrAgentNotFound
}

func (r *Resolver) cachedRef(ctx context.Context, kind AgentKind, name string) (AgentRef, bool) {
	if r.cache == nil {
		return AgentRef{}, false
	}

	value, err := r.cache.Get(ctx, cacheKey(kind, name)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("agent cache read failed", "error", err)
		}
		return AgentRef{}, false
	}

	switch kind {
	case AgentKindEndpoint:
		return AgentRef{Kind: kind, ID: value}, true
	case AgentKindEnterprise:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return AgentRef{}, false
		}
		return AgentRef{Kind: kind, AgentID: id}, true
	}
	return AgentRef{}, false
}

func (r *Resolver) storeRef(ctx context.Context, kind AgentKind, name string, ref AgentRef) {
	if r.cache == nil {
		return
	}

	value := ref.ID
	if kind == AgentKindEnterprise {
		value = strconv.FormatInt(ref.AgentID, 10)
	}

	if err := r.cache.Set(ctx, cacheKey(kind, name), value, r.ttl).Err(); err != nil {
		r.logger.Warn("agent cache write failed", "error", err)
	}
}

func cacheKey(kind AgentKind, name string) string {
	return "netpulse:agent:" + string(kind) + ":" + name
}
