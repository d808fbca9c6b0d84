// Package gemini implements llm.Provider against the Google Gemini API.
//
// The API differs from the OpenAI-style wire format in a few ways that this
// adapter papers over: authentication uses the x-goog-api-key header, the
// assistant role is called "model", system messages travel in a separate
// systemInstruction field, and tools are declared as functionDeclarations.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/llm"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/providers"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/types"
)

const defaultModel = "gemini-2.5-flash"

// Provider implements llm.Provider for Gemini.
type Provider struct {
	cfg    providers.GeminiConfig
	client *http.Client
	logger *zap.Logger
}

// New creates a Gemini provider.
func New(cfg providers.GeminiConfig, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) SupportsNativeFunctionCalling() bool { return true }

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1beta/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency}, fmt.Errorf("gemini health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// Gemini wire types.

type content struct {
	Role  string `json:"role,omitempty"` // user, model
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"` // JSON Schema
}

type generationConfig struct {
	Temperature     float32  `json:"temperature,omitempty"`
	TopP            float32  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type request struct {
	Contents          []content         `json:"contents"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type response struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
	ResponseID    string         `json:"responseId,omitempty"`
}

type errorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// convertContents maps unified messages onto Gemini contents. System
// messages are lifted out into the systemInstruction field.
func convertContents(msgs []types.Message) (*content, []content) {
	var systemInstruction *content
	var contents []content

	for _, m := range msgs {
		if m.Role == types.RoleSystem {
			systemInstruction = &content{
				Parts: []part{{Text: m.Content}},
			}
			continue
		}

		role := string(m.Role)
		if role == "assistant" {
			role = "model"
		}

		c := content{Role: role}

		if m.Role != types.RoleTool && m.Content != "" {
			c.Parts = append(c.Parts, part{Text: m.Content})
		}

		for _, tc := range m.ToolCalls {
			var args map[string]any
			if err := json.Unmarshal(tc.Arguments, &args); err == nil {
				c.Parts = append(c.Parts, part{
					FunctionCall: &functionCall{Name: tc.Name, Args: args},
				})
			}
		}

		if m.Role == types.RoleTool && m.ToolCallID != "" {
			var resp map[string]any
			if err := json.Unmarshal([]byte(m.Content), &resp); err != nil {
				// Not a JSON object; wrap it so Gemini accepts the part.
				resp = map[string]any{"result": m.Content}
			}
			c.Parts = append(c.Parts, part{
				FunctionResponse: &functionResponse{Name: m.Name, Response: resp},
			})
			// Gemini expects function responses under the user role.
			c.Role = "user"
		}

		if len(c.Parts) > 0 {
			contents = append(contents, c)
		}
	}

	return systemInstruction, contents
}

func convertTools(schemas []types.ToolSchema) []tool {
	if len(schemas) == 0 {
		return nil
	}

	declarations := make([]functionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		var params map[string]any
		if err := json.Unmarshal(s.Parameters, &params); err == nil {
			declarations = append(declarations, functionDeclaration{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			})
		}
	}

	if len(declarations) == 0 {
		return nil
	}
	return []tool{{FunctionDeclarations: declarations}}
}

func (p *Provider) buildRequest(req *llm.ChatRequest) (request, string) {
	systemInstruction, contents := convertContents(req.Messages)

	body := request{
		Contents:          contents,
		Tools:             convertTools(req.Tools),
		SystemInstruction: systemInstruction,
	}

	if req.Temperature > 0 || req.TopP > 0 || req.MaxTokens > 0 || len(req.Stop) > 0 {
		body.GenerationConfig = &generationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
			StopSequences:   req.Stop,
		}
	}

	return body, chooseModel(req, p.cfg.Model)
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	body, model := p.buildRequest(req)

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		return nil, mapError(resp.StatusCode, msg, p.Name())
	}

	var gr response
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(p.Name())
	}

	return toChatResponse(gr, p.Name(), model), nil
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	body, model := p.buildRequest(req)

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := readErrMsg(resp.Body)
		return nil, mapError(resp.StatusCode, msg, p.Name())
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					ch <- llm.StreamChunk{
						Err: types.NewError(types.ErrUpstreamError, err.Error()).
							WithHTTPStatus(http.StatusBadGateway).
							WithRetryable(true).
							WithProvider(p.Name()),
					}
				}
				return
			}

			line = strings.TrimSpace(line)
			// The stream is a JSON array; each line with a payload is one
			// complete object, surrounded by bracket/comma noise.
			line = strings.Trim(line, "[],")
			if line == "" {
				continue
			}

			var gr response
			if err := json.Unmarshal([]byte(line), &gr); err != nil {
				continue
			}

			for _, cand := range gr.Candidates {
				chunk := llm.StreamChunk{
					Provider:     p.Name(),
					Model:        model,
					Index:        cand.Index,
					FinishReason: cand.FinishReason,
					Delta:        types.Message{Role: types.RoleAssistant},
				}

				for _, pt := range cand.Content.Parts {
					if pt.Text != "" {
						chunk.Delta.Content += pt.Text
					}
					if pt.FunctionCall != nil {
						argsJSON, _ := json.Marshal(pt.FunctionCall.Args)
						chunk.Delta.ToolCalls = append(chunk.Delta.ToolCalls, types.ToolCall{
							Name:      pt.FunctionCall.Name,
							Arguments: argsJSON,
						})
					}
				}

				ch <- chunk
			}

			if gr.UsageMetadata != nil {
				ch <- llm.StreamChunk{
					Provider: p.Name(),
					Model:    model,
					Usage: &llm.ChatUsage{
						PromptTokens:     gr.UsageMetadata.PromptTokenCount,
						CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
						TotalTokens:      gr.UsageMetadata.TotalTokenCount,
					},
				}
			}
		}
	}()

	return ch, nil
}

func toChatResponse(gr response, provider, model string) *llm.ChatResponse {
	choices := make([]llm.ChatChoice, 0, len(gr.Candidates))

	for _, cand := range gr.Candidates {
		msg := types.Message{Role: types.RoleAssistant}

		for _, pt := range cand.Content.Parts {
			if pt.Text != "" {
				msg.Content += pt.Text
			}
			if pt.FunctionCall != nil {
				argsJSON, _ := json.Marshal(pt.FunctionCall.Args)
				msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
					ID:        fmt.Sprintf("call_%s_%d", pt.FunctionCall.Name, len(msg.ToolCalls)),
					Name:      pt.FunctionCall.Name,
					Arguments: argsJSON,
				})
			}
		}

		choices = append(choices, llm.ChatChoice{
			Index:        cand.Index,
			FinishReason: cand.FinishReason,
			Message:      msg,
		})
	}

	resp := &llm.ChatResponse{
		ID:       gr.ResponseID,
		Provider: provider,
		Model:    model,
		Choices:  choices,
	}

	if gr.UsageMetadata != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		}
	}

	return resp
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er errorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", er.Error.Message, er.Error.Status)
	}
	return string(data)
}

func mapError(status int, msg, provider string) *types.Error {
	e := types.NewError(types.ErrUpstreamError, msg).
		WithHTTPStatus(status).
		WithProvider(provider)

	switch status {
	case http.StatusUnauthorized:
		e.Code = types.ErrUnauthorized
	case http.StatusForbidden:
		e.Code = types.ErrForbidden
	case http.StatusTooManyRequests:
		e.Code = types.ErrRateLimited
		e.Retryable = true
	case http.StatusBadRequest:
		e.Code = types.ErrInvalidRequest
		if strings.Contains(msg, "quota") || strings.Contains(msg, "limit") {
			e.Code = types.ErrQuotaExceeded
		}
	case http.StatusGatewayTimeout:
		e.Code = types.ErrTimeout
		e.Retryable = true
	default:
		e.Retryable = status >= 500
	}
	return e
}

func chooseModel(req *llm.ChatRequest, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if fallback != "" {
		return fallback
	}
	return defaultModel
}
