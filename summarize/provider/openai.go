package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/theimaginaryfoundation/toot-digest/summarize"
)

// DefaultModel is used when Settings.Model is empty.
const DefaultModel = "gpt-4o-mini"

// OpenAI is a summarize.Completer backed by the OpenAI Responses API.
// The SDK's own retries are disabled; a failed call fails the run.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI builds a completer. Extra options (base URL, HTTP client) are applied after the API key.
func NewOpenAI(apiKey string, opts ...option.RequestOption) *OpenAI {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(all...)
	return &OpenAI{client: &client}
}

// Complete sends prompt with settings.SystemRole as instructions and maxTokens as the output cap.
// A non-positive maxTokens is rejected before any request is made.
func (o *OpenAI) Complete(ctx context.Context, prompt string, maxTokens int, settings summarize.Settings) (string, error) {
	if o == nil || o.client == nil {
		return "", errors.New("OpenAI.Complete: client is nil")
	}
	if maxTokens <= 0 {
		return "", &summarize.CompletionError{
			Kind:      summarize.CompletionInvalidBudget,
			MaxTokens: maxTokens,
			Err:       errors.New("max_tokens must be > 0; prompt exceeds max_token_length"),
		}
	}

	model := settings.Model
	if model == "" {
		model = DefaultModel
	}

	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(int64(maxTokens)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if strings.TrimSpace(settings.SystemRole) != "" {
		params.Instructions = openai.String(settings.SystemRole)
	}
	if settings.Temperature != nil {
		params.Temperature = openai.Float(*settings.Temperature)
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return "", &summarize.CompletionError{Kind: classify(err), MaxTokens: maxTokens, Err: err}
	}

	out := strings.TrimSpace(resp.OutputText())
	if out == "" {
		return "", &summarize.CompletionError{
			Kind:      summarize.CompletionEmptyOutput,
			MaxTokens: maxTokens,
			Err:       errors.New("model returned no output text"),
		}
	}
	return out, nil
}

func classify(err error) summarize.CompletionErrorKind {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return summarize.CompletionRateLimited
		case apiErr.StatusCode >= 500:
			return summarize.CompletionServer
		}
		return summarize.CompletionRejected
	}
	switch {
	case isRateLimitError(err):
		return summarize.CompletionRateLimited
	case isServerError(err):
		return summarize.CompletionServer
	}
	return summarize.CompletionRejected
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

// GenerateSchema reflects T into a JSON schema map, using json tags for property names.
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	return schemaObj
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
