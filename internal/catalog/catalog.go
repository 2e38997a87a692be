// Package catalog backs the §6 pass-through operations list_models,
// list_policies and list_test_prompts with small data-driven catalogs,
// generalising the teacher's hardcoded internal/llm/models.go into
// file-backed TOML/YAML catalogs.
package catalog

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Model describes one selectable LLM backend.
type Model struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// ModelCatalog is a TOML-backed list of available models.
type ModelCatalog struct {
	models map[string]Model
	order  []string
}

type modelsFile struct {
	Models []Model `toml:"models"`
}

// LoadModelCatalog parses a TOML document of the shape:
//
//	[[models]]
//	id = "anthropic.claude-3-5-sonnet"
//	name = "Claude 3.5 Sonnet"
func LoadModelCatalog(path string) (*ModelCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed modelsFile
	if _, err := toml.Decode(string(data), &parsed); err != nil {
		return nil, err
	}
	return newModelCatalog(parsed.Models), nil
}

// NewModelCatalog builds a catalog directly from a slice, for tests and for
// programmatic defaults.
func NewModelCatalog(models []Model) *ModelCatalog {
	return newModelCatalog(models)
}

func newModelCatalog(models []Model) *ModelCatalog {
	c := &ModelCatalog{models: make(map[string]Model, len(models))}
	for _, m := range models {
		c.models[m.ID] = m
		c.order = append(c.order, m.ID)
	}
	return c
}

// IsValidModel reports whether modelID is a known model.
func (c *ModelCatalog) IsValidModel(modelID string) bool {
	_, ok := c.models[modelID]
	return ok
}

// List returns the catalog in the order it was loaded.
func (c *ModelCatalog) List() []Model {
	out := make([]Model, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.models[id])
	}
	return out
}

// TestPrompt is one guard-content test case bundled with a policy.
type TestPrompt struct {
	TestCaseID   string `yaml:"test_case_id"`
	GuardContent string `yaml:"guard_content"`
}

// Policy describes one AR policy available to the orchestrator.
type Policy struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	TestPrompts []TestPrompt `yaml:"test_prompts"`
}

// PolicyCatalog is a YAML-backed list of available AR policies.
type PolicyCatalog struct {
	policies map[string]Policy
	order    []string
}

type policiesFile struct {
	Policies []Policy `yaml:"policies"`
}

// LoadPolicyCatalog parses a YAML document of the shape:
//
//	policies:
//	  - id: finance-guardrail
//	    name: Finance Guardrail
//	    description: ...
//	    test_prompts:
//	      - test_case_id: tc-1
//	        guard_content: ...
func LoadPolicyCatalog(path string) (*PolicyCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed policiesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return newPolicyCatalog(parsed.Policies), nil
}

// NewPolicyCatalog builds a catalog directly from a slice.
func NewPolicyCatalog(policies []Policy) *PolicyCatalog {
	return newPolicyCatalog(policies)
}

func newPolicyCatalog(policies []Policy) *PolicyCatalog {
	c := &PolicyCatalog{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		c.policies[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c
}

// IsValidPolicy reports whether policyID is a known policy.
func (c *PolicyCatalog) IsValidPolicy(policyID string) bool {
	_, ok := c.policies[policyID]
	return ok
}

// List returns the catalog in the order it was loaded.
func (c *PolicyCatalog) List() []Policy {
	out := make([]Policy, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.policies[id])
	}
	return out
}

// TestPrompts returns the test prompts bundled with policyID, sorted by
// test case ID for deterministic output.
func (c *PolicyCatalog) TestPrompts(policyID string) []TestPrompt {
	p, ok := c.policies[policyID]
	if !ok {
		return nil
	}
	out := make([]TestPrompt, len(p.TestPrompts))
	copy(out, p.TestPrompts)
	sort.Slice(out, func(i, j int) bool { return out[i].TestCaseID < out[j].TestCaseID })
	return out
}

// Catalogs bundles both catalogs behind the single CatalogChecker shape
// internal/thread.Store.Create expects.
type Catalogs struct {
	Models   *ModelCatalog
	Policies *PolicyCatalog
}

func (c *Catalogs) IsValidModel(modelID string) bool {
	return c.Models.IsValidModel(modelID)
}

func (c *Catalogs) IsValidPolicy(policyID string) bool {
	return c.Policies.IsValidPolicy(policyID)
}
