package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
)

// Typed resource services. Each wraps the client and decodes envelope
// payloads into domain models; API failures surface as *Error.

// OAuth providers the backend can authenticate against.
const (
	OAuthGitHub    = "github"
	OAuthGitLab    = "gitlab"
	OAuthBitbucket = "bitbucket"
)

// Hosting returns the service for instance-level configuration.
func (c *Client) Hosting() *HostingService { return &HostingService{c: c} }

// Auth returns the service for login and session management.
func (c *Client) Auth() *AuthService { return &AuthService{c: c} }

// Repos returns the service for connected repositories.
func (c *Client) Repos() *ReposService { return &ReposService{c: c} }

// Providers returns the service for configured model providers.
func (c *Client) Providers() *ProvidersService { return &ProvidersService{c: c} }

// Prompts returns the service for authored prompts.
func (c *Client) Prompts() *PromptsService { return &PromptsService{c: c} }

// Evals returns the service for evaluation runs.
func (c *Client) Evals() *EvalsService { return &EvalsService{c: c} }

// HostingService reads deployment-level settings.
type HostingService struct {
	c *Client
}

// Get fetches the hosting configuration of the backend instance.
func (s *HostingService) Get(ctx context.Context) (domain.HostingConfig, error) {
	var out domain.HostingConfig
	env, err := s.c.Get(ctx, "/v0/config", nil)
	if err != nil {
		return out, err
	}
	if err := env.Err(); err != nil {
		return out, err
	}
	if err := env.DecodeData(&out); err != nil {
		return out, err
	}
	return out, nil
}

// AuthService handles OAuth login handoff and the current session.
type AuthService struct {
	c *Client
}

// LoginStart is the backend's answer to a login request: the third-party
// authorize URL the user must visit to complete the OAuth flow.
type LoginStart struct {
	AuthorizeURL string `json:"authorize_url"`
	State        string `json:"state,omitempty"`
}

// Login starts an OAuth login against the named provider.
func (s *AuthService) Login(ctx context.Context, provider string) (LoginStart, error) {
	var out LoginStart
	provider = strings.ToLower(strings.TrimSpace(provider))
	switch provider {
	case OAuthGitHub, OAuthGitLab, OAuthBitbucket:
	default:
		return out, fmt.Errorf("unsupported oauth provider %q", provider)
	}

	env, err := s.c.Post(ctx, "/v0/auth/login/"+provider, nil, nil)
	if err != nil {
		return out, err
	}
	if err := env.Err(); err != nil {
		return out, err
	}
	if err := env.DecodeData(&out); err != nil {
		return out, err
	}
	return out, nil
}

// Session fetches the session behind the current bearer credential.
func (s *AuthService) Session(ctx context.Context) (domain.Session, error) {
	var out domain.Session
	env, err := s.c.Get(ctx, "/v0/auth/session", nil)
	if err != nil {
		return out, err
	}
	if err := env.Err(); err != nil {
		return out, err
	}
	if err := env.DecodeData(&out); err != nil {
		return out, err
	}
	return out, nil
}

// Logout invalidates the current session server-side.
func (s *AuthService) Logout(ctx context.Context) error {
	env, err := s.c.Delete(ctx, "/v0/auth/session", nil)
	if err != nil {
		return err
	}
	return env.Err()
}

// ReposService lists repositories connected to the workspace.
type ReposService struct {
	c *Client
}

// List fetches one page of connected repositories. Page numbering starts at 1;
// zero values fall back to server defaults.
func (s *ReposService) List(ctx context.Context, page, pageSize int) ([]domain.Repo, *Pagination, error) {
	env, err := s.c.Get(ctx, pagedEndpoint("/v0/repos", page, pageSize), nil)
	if err != nil {
		return nil, nil, err
	}
	if err := env.Err(); err != nil {
		return nil, nil, err
	}

	var out []domain.Repo
	if err := env.DecodeData(&out); err != nil {
		return nil, nil, err
	}
	return out, env.Pagination, nil
}

// ProvidersService lists configured model providers.
type ProvidersService struct {
	c *Client
}

// List fetches all configured model providers.
func (s *ProvidersService) List(ctx context.Context) ([]domain.ModelProvider, error) {
	env, err := s.c.Get(ctx, "/v0/providers", nil)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	var out []domain.ModelProvider
	if err := env.DecodeData(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// PromptsService reads and executes authored prompts.
type PromptsService struct {
	c *Client
}

// Get fetches a single prompt by id.
func (s *PromptsService) Get(ctx context.Context, id string) (domain.Prompt, error) {
	var out domain.Prompt
	if strings.TrimSpace(id) == "" {
		return out, fmt.Errorf("prompt id is empty")
	}

	env, err := s.c.Get(ctx, "/v0/prompts/"+url.PathEscape(id), nil)
	if err != nil {
		return out, err
	}
	if err := env.Err(); err != nil {
		return out, err
	}
	if err := env.DecodeData(&out); err != nil {
		return out, err
	}
	return out, nil
}

// List fetches one page of prompts.
func (s *PromptsService) List(ctx context.Context, page, pageSize int) ([]domain.Prompt, *Pagination, error) {
	env, err := s.c.Get(ctx, pagedEndpoint("/v0/prompts", page, pageSize), nil)
	if err != nil {
		return nil, nil, err
	}
	if err := env.Err(); err != nil {
		return nil, nil, err
	}

	var out []domain.Prompt
	if err := env.DecodeData(&out); err != nil {
		return nil, nil, err
	}
	return out, env.Pagination, nil
}

// RunInput binds prompt variables for a single execution.
type RunInput struct {
	ProviderID string            `json:"provider_id,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// Run executes the prompt against a model provider and returns its output.
func (s *PromptsService) Run(ctx context.Context, id string, input RunInput) (domain.PromptOutput, error) {
	var out domain.PromptOutput
	if strings.TrimSpace(id) == "" {
		return out, fmt.Errorf("prompt id is empty")
	}

	env, err := s.c.Post(ctx, "/v0/prompts/"+url.PathEscape(id)+"/run", input, nil)
	if err != nil {
		return out, err
	}
	if err := env.Err(); err != nil {
		return out, err
	}
	if err := env.DecodeData(&out); err != nil {
		return out, err
	}
	return out, nil
}

// EvalsService submits evaluation results back to the backend.
type EvalsService struct {
	c *Client
}

// Submit records a completed eval run.
func (s *EvalsService) Submit(ctx context.Context, run domain.EvalRun) error {
	env, err := s.c.Post(ctx, "/v0/evals/runs", run, nil)
	if err != nil {
		return err
	}
	return env.Err()
}

func pagedEndpoint(path string, page, pageSize int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if pageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", pageSize))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
