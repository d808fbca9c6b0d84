/*
Package types provides the shared type contracts for the health advisor.

types is the lowest-level package in the module and depends on nothing
else here, so the llm, tools, agent, and pipeline packages can all import
it without cycles. It defines:

  - Message, Role, and ToolCall: the conversation wire types
  - ToolSchema and ToolResult: tool definitions and execution results
  - JSONSchema: a JSON Schema builder for tool parameters
  - Error and ErrorCode: structured errors with retryability
  - context helpers for trace ID, run ID, session ID, and model override
*/
package types
