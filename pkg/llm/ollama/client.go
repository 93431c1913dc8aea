package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thinkthread/thinkthread/pkg/llm"
)

// Client is a minimal client for a local Ollama runtime.
type Client struct {
	BaseURL string
	Model   string
	httpDo  *http.Client
}

func New(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		httpDo: &http.Client{
			// Local models can be slow to load on first use.
			Timeout: 120 * time.Second,
		},
	}
}

func (c *Client) Name() string { return llm.ProviderOllama }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	CreatedAt       string      `json:"created_at"`
	Message         llm.Message `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name    string `json:"name"`
		Model   string `json:"model"`
		Size    int64  `json:"size"`
		Details struct {
			ParameterSize     string `json:"parameter_size"`
			QuantizationLevel string `json:"quantization_level"`
		} `json:"details"`
	} `json:"models"`
}

// Chat sends the prompt to /api/chat with streaming disabled and maps the
// runtime's eval counters onto the reply accounting fields.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.Reply, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = "llama3.2"
	}
	body := chatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   false,
	}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		body.Options = &chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return llm.Reply{}, err
	}

	endpoint := c.BaseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return llm.Reply{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Reply{}, statusError(resp)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.Reply{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	return llm.Reply{
		Content:          out.Message.Content,
		Provider:         llm.ProviderOllama,
		Model:            out.Model,
		PromptTokens:     out.PromptEvalCount,
		CompletionTokens: out.EvalCount,
	}, nil
}

// Models lists locally pulled models via /api/tags.
func (c *Client) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	var out tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama: decode tags: %w", err)
	}
	models := make([]llm.ModelInfo, 0, len(out.Models))
	for _, m := range out.Models {
		name := m.Name
		if m.Details.ParameterSize != "" {
			name = fmt.Sprintf("%s (%s)", m.Name, m.Details.ParameterSize)
		}
		models = append(models, llm.ModelInfo{
			ID:       m.Name,
			Provider: llm.ProviderOllama,
			Name:     name,
		})
	}
	return models, nil
}

// Ping checks that the runtime answers /api/version.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func statusError(resp *http.Response) error {
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &llm.StatusError{
		Provider:   llm.ProviderOllama,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(buf)),
	}
}
