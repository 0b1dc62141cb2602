package config

import (
	"fmt"
	"strings"
)

// DefaultBriefingPrompt is used when a briefing section omits its prompt.
const DefaultBriefingPrompt = "Summarize the gathered context into a concise briefing."

// Config is a briefing configuration document: what to fetch and what to do
// with it. Sources stay raw here; classification into typed descriptors
// happens at aggregation time, per source, so one malformed entry cannot
// reject the document.
type Config struct {
	ID          string `yaml:"id" mapstructure:"id"`
	Name        string `yaml:"name" mapstructure:"name"`
	Description string `yaml:"description,omitempty" mapstructure:"description"`

	Sources []map[string]any `yaml:"sources" mapstructure:"sources"`

	Tasks    []TaskConfig    `yaml:"tasks,omitempty" mapstructure:"tasks"`
	Briefing *BriefingConfig `yaml:"briefing,omitempty" mapstructure:"briefing"`
	Workflow []WorkflowStep  `yaml:"workflow,omitempty" mapstructure:"workflow"`
}

// TaskConfig is a named unit of work driven by the aggregated context.
type TaskConfig struct {
	ID     string `yaml:"id" mapstructure:"id"`
	Name   string `yaml:"name,omitempty" mapstructure:"name"`
	Prompt string `yaml:"prompt" mapstructure:"prompt"`
}

// BriefingConfig configures the synthesis step.
type BriefingConfig struct {
	Prompt   string `yaml:"prompt,omitempty" mapstructure:"prompt"`
	Schedule string `yaml:"schedule,omitempty" mapstructure:"schedule"`
}

// WorkflowStep is one step of an ordered workflow sequence.
type WorkflowStep struct {
	ID   string         `yaml:"id" mapstructure:"id"`
	Uses string         `yaml:"uses" mapstructure:"uses"`
	With map[string]any `yaml:"with,omitempty" mapstructure:"with"`
}

// SetDefaults fills defaulted fields in place.
func (c *Config) SetDefaults() {
	if c.Briefing != nil && c.Briefing.Prompt == "" {
		c.Briefing.Prompt = DefaultBriefingPrompt
	}
}

// CollectErrors returns every validation violation in the document. An empty
// slice means the document is valid.
func (c *Config) CollectErrors() []string {
	var errs []string

	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, "config: id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "config: name is required")
	}
	if len(c.Sources) == 0 {
		errs = append(errs, "config: at least one source is required")
	}

	hasTasks := len(c.Tasks) > 0
	hasBriefing := c.Briefing != nil && strings.TrimSpace(c.Briefing.Prompt) != ""
	hasWorkflow := len(c.Workflow) > 0
	if !hasTasks && !hasBriefing && !hasWorkflow {
		errs = append(errs, "config: at least one of tasks, briefing, or workflow is required")
	}

	return errs
}

// Validate reports all violations as a single error, or nil.
func (c *Config) Validate() error {
	errs := c.CollectErrors()
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
}

// BriefingPrompt returns the synthesis prompt, falling back to the default.
func (c *Config) BriefingPrompt() string {
	if c.Briefing != nil && c.Briefing.Prompt != "" {
		return c.Briefing.Prompt
	}
	return DefaultBriefingPrompt
}
