// Package openai provides an Intelligence adapter using the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Intelligence implements the interface.
var _ driven.Intelligence = (*Intelligence)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerSecond keeps sustained pipeline throughput well
	// under the API's rate limits.
	DefaultRequestsPerSecond = 2.0
	DefaultBurstSize         = 5
)

// Sample sizes balance coverage against token limits.
const (
	classifySample = 3000
	extractSample  = 8000
)

// Config holds configuration for the OpenAI Intelligence adapter.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond is the sustained request rate (default: 2).
	RequestsPerSecond float64

	// BurstSize is the maximum burst size (default: 5).
	BurstSize int
}

// Intelligence implements driven.Intelligence against the OpenAI API.
type Intelligence struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates a new OpenAI Intelligence adapter.
func New(cfg Config) (*Intelligence, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	return &Intelligence{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// classifyPrompt asks for exactly one category token.
const classifyPrompt = `Classify the following document into exactly one of these categories:
- CONTRACT: Legal agreements, terms of service, NDAs, SOWs, MSAs
- POLICY: Company policies, procedures, guidelines, compliance documents
- RFC: Technical specifications, design documents, architecture proposals, engineering RFCs
- OTHER: Anything else

Document title: %s

Document content (first %d chars):
%s

Respond with ONLY the category name (CONTRACT, POLICY, RFC, or OTHER), nothing else.`

// ClassifyDocument asks the model for a single category token.
func (s *Intelligence) ClassifyDocument(ctx context.Context, title, text string) (domain.DocType, error) {
	if len(text) > classifySample {
		text = text[:classifySample]
	}
	prompt := fmt.Sprintf(classifyPrompt, title, classifySample, text)

	result, err := s.chatCompletion(ctx, prompt, 10, 0)
	if err != nil {
		return "", fmt.Errorf("classify document: %w", err)
	}

	switch docType := domain.DocType(strings.ToUpper(strings.TrimSpace(result))); docType {
	case domain.DocTypeContract, domain.DocTypePolicy, domain.DocTypeRFC, domain.DocTypeOther:
		return docType, nil
	default:
		return domain.DocTypeOther, nil
	}
}

// fieldSchemas describe the fields to extract per document type. The
// descriptions are given to the model verbatim.
var fieldSchemas = map[domain.DocType][][2]string{
	domain.DocTypeContract: {
		{"parties", "List of party names involved in the contract"},
		{"effective_date", "Date when the contract becomes effective (YYYY-MM-DD or null)"},
		{"term_months", "Contract term duration in months (integer or null)"},
		{"auto_renew", "Whether the contract auto-renews (boolean or null)"},
		{"governing_law", "Jurisdiction/governing law (string or null)"},
		{"payment_terms", "Summary of payment terms (string or null)"},
		{"termination_clauses", "Summary of termination conditions (string or null)"},
		{"key_obligations", "List of key obligations for each party"},
		{"sla_details", "SLA commitments if present (string or null)"},
	},
	domain.DocTypePolicy: {
		{"policy_name", "Name of the policy"},
		{"policy_type", "Type of policy (e.g., HR, IT, Security, Privacy)"},
		{"effective_date", "Date when policy becomes effective (YYYY-MM-DD or null)"},
		{"review_date", "Next review date (YYYY-MM-DD or null)"},
		{"owner", "Policy owner or department"},
		{"scope", "Who/what the policy applies to"},
		{"key_requirements", "List of key requirements or rules"},
		{"violations", "Consequences of policy violations (string or null)"},
		{"related_policies", "List of related policy names"},
	},
	domain.DocTypeRFC: {
		{"title", "RFC title"},
		{"authors", "List of author names"},
		{"status", "Document status (draft, proposed, accepted, implemented, deprecated)"},
		{"created_date", "Creation date (YYYY-MM-DD or null)"},
		{"affected_systems", "List of systems/services affected"},
		{"problem_statement", "Summary of the problem being solved"},
		{"proposed_solution", "Summary of the proposed solution"},
		{"alternatives_considered", "List of alternatives that were considered"},
		{"decision", "Final decision or recommendation"},
		{"implementation_notes", "Key implementation considerations"},
	},
}

const extractPrompt = `Extract structured information from the following %s document.

Document content:
%s

Extract the following fields:
%s

Respond with a valid JSON object containing only the fields listed above. Use null for fields that cannot be determined from the document. For list fields, use empty arrays [] if no items are found.

JSON:`

// ExtractFields asks the model for a JSON object matching the type's field
// schema. Keys outside the schema are dropped.
func (s *Intelligence) ExtractFields(ctx context.Context, docType domain.DocType, text string) (map[string]any, error) {
	schema, ok := fieldSchemas[docType]
	if !ok {
		return map[string]any{}, nil
	}

	if len(text) > extractSample {
		text = text[:extractSample]
	}

	var schemaDesc strings.Builder
	for _, entry := range schema {
		fmt.Fprintf(&schemaDesc, "- %s: %s\n", entry[0], entry[1])
	}

	prompt := fmt.Sprintf(extractPrompt, strings.ToLower(string(docType)), text, schemaDesc.String())

	result, err := s.chatCompletion(ctx, prompt, 1500, 0)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(result)), &extracted); err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}

	allowed := make(map[string]struct{}, len(schema))
	for _, entry := range schema {
		allowed[entry[0]] = struct{}{}
	}
	filtered := make(map[string]any, len(extracted))
	for k, v := range extracted {
		if _, ok := allowed[k]; ok {
			filtered[k] = v
		}
	}
	return filtered, nil
}

const summariseChunkPrompt = `Summarise the following passage in 2 sentences or less. Do not repeat names, contact details, credentials or identification numbers; describe them generically instead.

Passage:
%s

Summary:`

// SummariseChunk produces a short summary that omits identifying details.
func (s *Intelligence) SummariseChunk(ctx context.Context, text string) (string, error) {
	result, err := s.chatCompletion(ctx, fmt.Sprintf(summariseChunkPrompt, text), 120, 0.3)
	if err != nil {
		return "", fmt.Errorf("summarise chunk: %w", err)
	}
	return strings.TrimSpace(result), nil
}

const summariseDiffPrompt = `Summarize the changes between two versions of a document.

Key changes detected:
%s

Write a concise 2-3 sentence summary of what changed in this document, suitable for a change report. Focus on the business impact of the changes.`

// SummariseDiff describes the field changes in prose.
func (s *Intelligence) SummariseDiff(ctx context.Context, changes []domain.FieldChange) (string, error) {
	changesDesc := make([]string, 0, len(changes))
	for _, c := range changes {
		switch c.Change {
		case domain.ChangeAdded:
			changesDesc = append(changesDesc, fmt.Sprintf("- Added %s: %v", c.Field, c.NewValue))
		case domain.ChangeRemoved:
			changesDesc = append(changesDesc, fmt.Sprintf("- Removed %s (was: %v)", c.Field, c.OldValue))
		default:
			changesDesc = append(changesDesc, fmt.Sprintf("- Changed %s: %v -> %v", c.Field, c.OldValue, c.NewValue))
		}
	}
	changesText := "No structured field changes detected."
	if len(changesDesc) > 0 {
		changesText = strings.Join(changesDesc, "\n")
	}

	result, err := s.chatCompletion(ctx, fmt.Sprintf(summariseDiffPrompt, changesText), 200, 0.3)
	if err != nil {
		return "", fmt.Errorf("summarise diff: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// chatCompletion performs one rate-limited chat completion call.
func (s *Intelligence) chatCompletion(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatCompletionMsg{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// stripCodeFence removes a markdown code fence the model sometimes wraps
// JSON responses in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Ping validates the service is reachable by checking the /models endpoint.
// This validates the API key without running inference.
func (s *Intelligence) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
