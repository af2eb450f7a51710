package models

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"GoAskAI/app/utils/restclient"
)

const (
	chatEndpoint        = "/v1/chat/completions"
	completionsEndpoint = "/v1/completions"
	embeddingEndpoint   = "/v1/embeddings"

	maxRetries = 3
)

// LLMClient talks to an OpenAI-compatible server (LM Studio, Ollama's compat
// layer, vLLM, ...). Generation tries the chat endpoint first and falls back
// to plain completions; both responses go through one normalization step that
// tolerates the shape differences between providers.
type LLMClient struct {
	restClient      *restclient.RestClient
	cache           sync.Map
	model           string
	embeddingsModel string
}

func NewLLMClient(baseURL, apiKey, model, embeddingsModel string) *LLMClient {
	if baseURL == "" {
		baseURL = "http://localhost:1234"
	}
	var headers map[string]string
	if apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}
	return &LLMClient{
		restClient:      restclient.NewRestClient(baseURL, headers),
		model:           model,
		embeddingsModel: embeddingsModel,
	}
}

// Generate returns the model's text for the prompt, or "" when neither call
// style produced anything usable. It never returns an error; callers treat an
// empty string as "no answer".
func (mc *LLMClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) string {
	chatBody, err := mc.sendWithRetries(ctx, chatEndpoint, chatRequestPayload{
		Model:       mc.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		log.Printf("⚠️ Chat call failed, falling back to completions: %v", err)
	} else if text := extractText(chatBody); text != "" {
		return text
	} else {
		log.Printf("⚠️ Chat response had no usable text (keys=%v), falling back to completions", topLevelKeys(chatBody))
	}

	completionBody, err := mc.sendWithRetries(ctx, completionsEndpoint, completionRequestPayload{
		Model:       mc.model,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		log.Printf("🚨 Completions call failed as well: %v", err)
		return ""
	}
	if text := extractText(completionBody); text != "" {
		return text
	}

	log.Printf("🚨 Both call styles returned no usable text: chat_keys=%v completion_keys=%v model=%s",
		topLevelKeys(chatBody), topLevelKeys(completionBody), mc.model)
	return ""
}

func (mc *LLMClient) sendWithRetries(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	var lastErr error
	var body []byte
	var status int

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if i > 0 {
			time.Sleep(time.Duration(math.Pow(2, float64(i))) * 100 * time.Millisecond)
		}

		body, status, lastErr = mc.restClient.Post(ctx, endpoint, payload, nil)
		if lastErr != nil {
			log.Printf("⚠️ Attempt %d at %s failed: %v", i+1, endpoint, lastErr)
			continue
		}
		if status < 200 || status >= http.StatusMultipleChoices {
			lastErr = fmt.Errorf("%s returned status %d", endpoint, status)
			log.Printf("⚠️ Attempt %d: %v", i+1, lastErr)
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("request to %s failed after %d retries: %w", endpoint, maxRetries, lastErr)
}

// extractText normalizes the provider response to plain text. Extraction
// strategies in priority order: OpenAI chat choices[0].message.content, OpenAI
// completion choices[0].text, ollama chat message.content, ollama generate
// response.
func extractText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Printf("⚠️ Error parsing LLM response: %v", err)
		return ""
	}

	if len(resp.Choices) > 0 {
		if content := strings.TrimSpace(resp.Choices[0].Message.Content); content != "" {
			return content
		}
		if text := strings.TrimSpace(resp.Choices[0].Text); text != "" {
			return text
		}
	}
	if content := strings.TrimSpace(resp.Message.Content); content != "" {
		return content
	}
	return strings.TrimSpace(resp.Response)
}

// topLevelKeys lists the keys of a JSON object response, enough to debug an
// unexpected shape without dumping the payload.
func topLevelKeys(raw []byte) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
