// Package tools provides the tool registry, the executor that runs tool
// calls issued by the model, and the ReAct loop that alternates between
// LLM completions and tool execution.
//
// Tool failures never propagate as Go errors to the model: they are
// captured as strings in types.ToolResult.Error and folded back into the
// conversation, which matches how the upstream data tools report their
// own failures (sentinel values and human-readable messages).
package tools
