package agent

import (
	"encoding/json"
	"fmt"
)

// Config declaratively describes an agent: what model it runs on, how
// it is instructed, which tools it may call, and what shape its final
// answer must take. Agents are assembled from these configs rather
// than hand-written.
type Config struct {
	// Name identifies the agent in logs, metrics, and tool schemas.
	Name string `yaml:"name" json:"name"`

	// Model is the model identifier. Empty means the provider default;
	// a context override via types.WithLLMModel wins over both.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Description explains what the agent does. When the agent is
	// exposed as a tool, this becomes the tool description.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Instruction is the system prompt. It may contain {key}
	// placeholders that a pipeline expands from its state.
	Instruction string `yaml:"instruction" json:"instruction"`

	// OutputSchema, when set, is a JSON schema the final answer must
	// satisfy. The agent appends a JSON-only directive to the
	// instruction and validates the answer before returning it.
	OutputSchema json.RawMessage `yaml:"output_schema,omitempty" json:"output_schema,omitempty"`

	// OutputKey names the pipeline state key this agent's answer is
	// stored under. Only meaningful inside a pipeline.
	OutputKey string `yaml:"output_key,omitempty" json:"output_key,omitempty"`

	// Tools is the allowlist of registry tool names the agent may call.
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`

	Temperature float32 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// MaxIterations bounds the reason/act loop. Defaults to 10.
	MaxIterations int `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
}

// Validate checks the config for structural problems.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if c.Instruction == "" {
		return fmt.Errorf("agent %s: instruction is required", c.Name)
	}
	if len(c.OutputSchema) > 0 && !json.Valid(c.OutputSchema) {
		return fmt.Errorf("agent %s: output schema is not valid JSON", c.Name)
	}
	return nil
}
