// Gemini recommendation generator
package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/shared"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultGeminiTemperature = 0.7
)

//go:embed recommend.tmpl
var recommendPrompt string

var promptTemplate = template.Must(template.New("recommend").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(recommendPrompt))

// ContentGenerator is the subset of the genai Models service used by [GeminiRecommender].
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiRecommender implements [Recommender] with a Gemini model constrained to a JSON response schema.
type GeminiRecommender struct {
	models      ContentGenerator
	model       string
	temperature float32
	logger      *log.Logger
}

// NewGeminiRecommender creates a recommender backed by the Gemini API.
func NewGeminiRecommender(ctx context.Context, cfg shared.GeminiConfig, logger *log.Logger) (*GeminiRecommender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key", shared.ErrMissingCredentials)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", shared.ErrInvalidConfig, err)
	}

	return NewGeminiRecommenderWith(client.Models, cfg, logger), nil
}

// NewGeminiRecommenderWith wires an existing content generator, filling defaults from cfg.
func NewGeminiRecommenderWith(gen ContentGenerator, cfg shared.GeminiConfig, logger *log.Logger) *GeminiRecommender {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultGeminiTemperature
	}

	return &GeminiRecommender{
		models:      gen,
		model:       model,
		temperature: temperature,
		logger:      shared.WithLogger(logger, "service", "gemini", "model", model),
	}
}

// Name returns the service name.
func (g *GeminiRecommender) Name() string {
	return "Gemini"
}

// Recommend asks the model for count recommendations derived from titles.
func (g *GeminiRecommender) Recommend(ctx context.Context, titles []string, count int) (*models.RecommendationSet, error) {
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: titles are required", shared.ErrInvalidInput)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: recommendation count must be positive", shared.ErrInvalidArgument)
	}

	prompt, err := buildPrompt(titles, count)
	if err != nil {
		return nil, err
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   recommendationSchema(),
	}

	g.logger.Debug("generating recommendations", "titles", len(titles), "count", count, "prompt_length", len(prompt))

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, translateGenAIError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var set models.RecommendationSet
	if err := json.Unmarshal([]byte(text), &set); err != nil {
		g.logger.Warn("model returned non-JSON output", "length", len(text))
		return nil, fmt.Errorf("%w: model did not return valid JSON: %v", shared.ErrInvalidResponse, err)
	}

	g.logger.Debug("recommendations generated", "count", len(set.Recommendations))
	return &set, nil
}

func buildPrompt(titles []string, count int) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Titles []string
		Count  int
	}{titles, count}

	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", shared.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", shared.ErrInvalidResponse)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", shared.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty text in response", shared.ErrInvalidResponse)
	}
	return sb.String(), nil
}

// translateGenAIError maps API errors carrying an HTTP code to [shared.UpstreamError].
func translateGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return upstreamFromAPIError(apiErr)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code != 0 {
		return upstreamFromAPIError(*apiErrPtr)
	}

	return fmt.Errorf("gemini request failed: %w", err)
}

func upstreamFromAPIError(apiErr genai.APIError) error {
	details, _ := json.Marshal(apiErr.Details)
	return &shared.UpstreamError{
		Status:  apiErr.Code,
		Message: apiErr.Message,
		Details: details,
	}
}

func recommendationSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	strList := &genai.Schema{Type: genai.TypeArray, Items: str}
	lo, hi := 0.0, 1.0
	unit := &genai.Schema{Type: genai.TypeNumber, Minimum: &lo, Maximum: &hi}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"profile": {
				Type:        genai.TypeObject,
				Description: "taste summary derived from the input titles",
				Properties: map[string]*genai.Schema{
					"genres": strList,
					"moods":  strList,
					"notes":  str,
				},
				Required: []string{"genres", "moods", "notes"},
			},
			"recommendations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"artist":   str,
						"title":    str,
						"reason":   str,
						"moodTags": strList,
						"query": {
							Type:        genai.TypeString,
							Description: "YouTube search string, artist and title",
						},
						"confidence": unit,
						"novelty":    unit,
						"bucket": {
							Type: genai.TypeString,
							Enum: []string{models.BucketCoreFit, models.BucketDiscovery, models.BucketBridge},
						},
					},
					Required: []string{"artist", "title", "reason", "moodTags", "query"},
				},
			},
		},
		Required: []string{"profile", "recommendations"},
	}
}
