package sinks

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSinksFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sinks file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeSinksFile(t, "sinks.yaml", `
sinks:
  - id: hook
    type: http
    http:
      url: https://example.com/hook
      headers:
        X-Token: "  secret  "
  - id: queue
    type: sqs
    enabled: false
    sqs:
      uri: https://sqs.us-east-1.amazonaws.com/1/evals
      region: us-east-1
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:1:evals
      region: us-east-1
  - id: gcp
    type: pubsub
    pubsub:
      project_id: proj
      topic: evals
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if got := len(reg.All()); got != 4 {
		t.Fatalf("All() = %d sinks", got)
	}
	if got := len(reg.Enabled()); got != 3 {
		t.Fatalf("Enabled() = %d sinks", got)
	}

	hook, ok := reg.ByID("hook")
	if !ok {
		t.Fatalf("ByID(hook) missing")
	}
	if hook.HTTP.Method != "POST" {
		t.Fatalf("http method default = %q", hook.HTTP.Method)
	}
	if hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http timeout default = %d", hook.HTTP.TimeoutSeconds)
	}
	if hook.HTTP.Headers["X-Token"] != "secret" {
		t.Fatalf("headers not sanitized: %v", hook.HTTP.Headers)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := map[string]string{
		"missing id":        "sinks:\n  - type: http\n    http: {url: https://x}\n",
		"missing type":      "sinks:\n  - id: s1\n",
		"http without url":  "sinks:\n  - id: s1\n    type: http\n    http: {}\n",
		"sqs without uri":   "sinks:\n  - id: s1\n    type: sqs\n    sqs: {region: us-east-1}\n",
		"sns without arn":   "sinks:\n  - id: s1\n    type: sns\n    sns: {region: us-east-1}\n",
		"pubsub no project": "sinks:\n  - id: s1\n    type: pubsub\n    pubsub: {topic: t}\n",
		"duplicate ids":     "sinks:\n  - id: s1\n    type: http\n    http: {url: https://x}\n  - id: s1\n    type: http\n    http: {url: https://y}\n",
		"empty file":        "sinks: []\n",
	}

	for name, content := range cases {
		path := writeSinksFile(t, "sinks.yaml", content)
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRegistryRejectsUnknownSinkType(t *testing.T) {
	reg := DefaultRegistry()
	_, err := reg.SinkFor(nil, SinkConfig{ID: "k", Type: "kafka"}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
