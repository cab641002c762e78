package evals

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package evals contains eval-suite definitions (YAML/JSON), assertion
// checking, and the runner that executes suites against the backend.

const defaultRequestDelayMs = 0

// Assertion is a single check applied to a prompt's output.
type Assertion struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Case binds prompt variables to a set of assertions.
type Case struct {
	ID         string            `json:"id" yaml:"id"`
	ProviderID string            `json:"provider_id" yaml:"provider_id"`
	Input      map[string]string `json:"input" yaml:"input"`
	Assertions []Assertion       `json:"assertions" yaml:"assertions"`
}

// Suite is a named set of cases run against one prompt.
type Suite struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	PromptID       string `json:"prompt_id" yaml:"prompt_id"`
	Enabled        *bool  `json:"enabled" yaml:"enabled"`
	RequestDelayMs int    `json:"request_delay_ms" yaml:"request_delay_ms"`
	Cases          []Case `json:"cases" yaml:"cases"`
}

// EnabledValue returns the enabled flag defaulting to true.
func (s Suite) EnabledValue() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// configFile represents the structure of the suites configuration file.
type configFile struct {
	Suites []Suite `json:"suites" yaml:"suites"`
}

// Registry materializes suite definitions loaded from config files.
type Registry struct {
	mu     sync.RWMutex
	suites []Suite
	idx    map[string]Suite
}

// LoadRegistry loads the suite registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("suites file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suites file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read suites file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Suites) == 0 {
		return nil, errors.New("suites file contains no suites entries")
	}

	reg := &Registry{
		suites: make([]Suite, len(fileReg.Suites)),
		idx:    make(map[string]Suite, len(fileReg.Suites)),
	}

	for i := range fileReg.Suites {
		suite := sanitizeSuite(fileReg.Suites[i])
		if err := validateSuite(suite); err != nil {
			return nil, fmt.Errorf("suites[%d]: %w", i, err)
		}
		if _, exists := reg.idx[suite.ID]; exists {
			return nil, fmt.Errorf("duplicate suite id %q", suite.ID)
		}
		reg.suites[i] = suite
		reg.idx[suite.ID] = suite
	}

	return reg, nil
}

// parseRegistry attempts to decode the suites file content.
func parseRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("suites file format not recognized (expected YAML or JSON)")
}

// sanitizeSuite trims and normalizes the suite fields.
func sanitizeSuite(s Suite) Suite {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.PromptID = strings.TrimSpace(s.PromptID)
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.RequestDelayMs < 0 {
		s.RequestDelayMs = defaultRequestDelayMs
	}

	for i := range s.Cases {
		c := s.Cases[i]
		c.ID = strings.TrimSpace(c.ID)
		c.ProviderID = strings.TrimSpace(c.ProviderID)
		for j := range c.Assertions {
			c.Assertions[j].Type = strings.ToLower(strings.TrimSpace(c.Assertions[j].Type))
		}
		s.Cases[i] = c
	}
	return s
}

// validateSuite checks that required fields are present and assertions are well formed.
func validateSuite(s Suite) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.PromptID == "" {
		return fmt.Errorf("prompt_id is required for suite %q", s.ID)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("suite %q has no cases", s.ID)
	}

	caseIDs := make(map[string]struct{}, len(s.Cases))
	for i, c := range s.Cases {
		if c.ID == "" {
			return fmt.Errorf("suite %q cases[%d]: id is required", s.ID, i)
		}
		if _, exists := caseIDs[c.ID]; exists {
			return fmt.Errorf("suite %q has duplicate case id %q", s.ID, c.ID)
		}
		caseIDs[c.ID] = struct{}{}

		if len(c.Assertions) == 0 {
			return fmt.Errorf("suite %q case %q has no assertions", s.ID, c.ID)
		}
		for j, a := range c.Assertions {
			switch a.Type {
			case AssertEquals, AssertContains, AssertHTMLText:
				if a.Value == "" {
					return fmt.Errorf("suite %q case %q assertions[%d]: value is required", s.ID, c.ID, j)
				}
			case AssertRegexp:
				if _, err := regexp.Compile(a.Value); err != nil {
					return fmt.Errorf("suite %q case %q assertions[%d]: invalid pattern: %w", s.ID, c.ID, j, err)
				}
			default:
				return fmt.Errorf("suite %q case %q assertions[%d]: unknown type %q", s.ID, c.ID, j, a.Type)
			}
		}
	}
	return nil
}

// ByID returns the suite entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Suite, bool) {
	if r == nil {
		return Suite{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Suite{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.idx[id]
	return s, ok
}

// All returns all configured suites.
func (r *Registry) All() []Suite {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Suite, len(r.suites))
	copy(out, r.suites)
	return out
}

// Enabled returns suites that are enabled.
func (r *Registry) Enabled() []Suite {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Suite, 0, len(all))
	for _, s := range all {
		if s.EnabledValue() {
			out = append(out, s)
		}
	}
	return out
}
