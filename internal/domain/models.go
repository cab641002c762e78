package domain

import "time"

// Domain contains core models shared across the client and runner.

// HostingConfig describes how the backend instance is deployed.
type HostingConfig struct {
	HostingType string `json:"hostingType"`
}

// User is the authenticated account behind the current session.
type User struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session holds the bearer credential issued after an OAuth login.
type Session struct {
	Token     string    `json:"token"`
	Provider  string    `json:"provider"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// Repo is a source repository connected to the workspace.
type Repo struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch,omitempty"`
	Connected     bool   `json:"connected"`
}

// ModelProvider is a configured LLM backend (OpenAI, Anthropic, local, ...).
type ModelProvider struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Model   string `json:"model,omitempty"`
	Enabled bool   `json:"enabled"`
}

// Prompt is an authored prompt template stored in a connected repo.
type Prompt struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	RepoID    string   `json:"repo_id,omitempty"`
	Template  string   `json:"template,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Version   string   `json:"version,omitempty"`
}

// PromptOutput is the result of running a prompt against a model provider.
type PromptOutput struct {
	PromptID   string `json:"prompt_id"`
	ProviderID string `json:"provider_id,omitempty"`
	Output     string `json:"output"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// CaseResult records the outcome of a single eval case.
type CaseResult struct {
	CaseID   string   `json:"case_id"`
	Passed   bool     `json:"passed"`
	Output   string   `json:"output,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// EvalRun aggregates the outcome of one suite execution.
type EvalRun struct {
	SuiteID     string       `json:"suite_id"`
	SuiteName   string       `json:"suite_name"`
	PromptID    string       `json:"prompt_id"`
	Total       int          `json:"total"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Score       float64      `json:"score"`
	Cases       []CaseResult `json:"cases,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
}
