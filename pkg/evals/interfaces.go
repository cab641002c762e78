package evals

import (
	"context"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
	"github.com/promptrepo-hq/promptrepo-go/pkg/api"
)

// PromptRunner executes a prompt with bound variables. Implemented by
// api.PromptsService; fakes are injected in tests.
type PromptRunner interface {
	Run(ctx context.Context, id string, input api.RunInput) (domain.PromptOutput, error)
}

// Logger defines the logging surface the runner relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
