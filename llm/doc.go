// Package llm defines the provider-agnostic chat completion contract.
// Concrete adapters live under providers/; agents and pipelines depend
// only on the Provider interface defined here.
package llm
