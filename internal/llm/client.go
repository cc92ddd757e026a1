package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"finance-rag/internal/config"
)

// ResponseKind tags the shapes a hosted inference endpoint is known to
// return: a list of generations, a single generation object, or an error
// object. Anything else is Unrecognized.
type ResponseKind int

const (
	KindSuccess ResponseKind = iota
	KindAPIError
	KindUnrecognized
)

// Response is the decoded model output. Exactly one of Text, ErrMessage or
// Raw is meaningful depending on Kind.
type Response struct {
	Kind       ResponseKind
	Text       string
	ErrMessage string
	Raw        string
}

// Client calls a hosted text-generation endpoint synchronously.
type Client struct {
	baseURL     string
	model       string
	token       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func NewClient(cfg *config.LLMConfig, token string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		token:       strings.TrimPrefix(token, "Bearer "),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	Temperature  float64 `json:"temperature"`
	MaxNewTokens int     `json:"max_new_tokens"`
}

type generation struct {
	GeneratedText *string `json:"generated_text"`
	Error         *string `json:"error"`
}

// Generate posts the prompt and decodes the response into a tagged Response.
// Transport failures and undecodable bodies are returned as errors for the
// caller to degrade.
func (c *Client) Generate(ctx context.Context, prompt string) (Response, error) {
	payload := generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			Temperature:  c.temperature,
			MaxNewTokens: c.maxTokens,
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Response{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("model", c.model).Msg("calling inference endpoint")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return decodeResponse(body)
}

// decodeResponse handles the three observed shapes explicitly and tags
// everything else as unrecognized instead of failing.
func decodeResponse(body []byte) (Response, error) {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []generation
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Response{}, fmt.Errorf("failed to decode model response: %v", err)
		}
		if len(list) > 0 && list[0].GeneratedText != nil {
			return Response{Kind: KindSuccess, Text: strings.TrimSpace(*list[0].GeneratedText)}, nil
		}
		return Response{Kind: KindUnrecognized, Raw: string(trimmed)}, nil
	}

	var single generation
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return Response{}, fmt.Errorf("failed to decode model response: %v", err)
	}
	switch {
	case single.GeneratedText != nil:
		return Response{Kind: KindSuccess, Text: strings.TrimSpace(*single.GeneratedText)}, nil
	case single.Error != nil:
		return Response{Kind: KindAPIError, ErrMessage: *single.Error}, nil
	default:
		return Response{Kind: KindUnrecognized, Raw: string(trimmed)}, nil
	}
}
