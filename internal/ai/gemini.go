package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/logger"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrNoAPIKey is returned when no model API key is configured
var ErrNoAPIKey = errors.New("no AI API key configured")

// Generator produces a JSON document matching schema for prompt and decodes
// it into out.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *Schema, out interface{}) error
}

// Schema is the structured output schema sent with a prompt
type Schema = genai.Schema

// Gemini calls generateContent through the genai SDK
type Gemini struct {
	client  *genai.Client
	initErr error
	model   string
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewGemini builds a client from configuration. Calls are spaced by a token
// bucket of RatePerMinute.
func NewGemini(cfg config.AIConfig, log *logger.Logger) *Gemini {
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 15
	}

	g := &Gemini{
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 3),
		log:     log.WithComponent("gemini"),
	}
	if cfg.APIKey == "" {
		g.initErr = ErrNoAPIKey
		return g
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.Endpoint},
	})
	if err != nil {
		g.initErr = fmt.Errorf("failed to create gemini client: %w", err)
		g.log.Warnw("Gemini client unavailable", "error", err.Error())
		return g
	}
	g.client = client
	return g
}

// Generate sends one prompt. It is not retried.
func (g *Gemini) Generate(ctx context.Context, prompt string, schema *Schema, out interface{}) error {
	if g.initErr != nil {
		return g.initErr
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	err := g.generate(ctx, prompt, schema, out)
	g.log.LogExternalCall("gemini", "generateContent", float64(time.Since(start).Milliseconds()), err)
	return err
}

func (g *Gemini) generate(ctx context.Context, prompt string, schema *Schema, out interface{}) error {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return fmt.Errorf("gemini returned no candidates")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("model output does not match schema: %w", err)
	}
	return nil
}
