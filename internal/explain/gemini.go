// Package explain narrates a prediction batch through the Gemini text
// generation API. Everything here is best effort: a missing key, transport
// error or unexpected response shape yields no explanation, never a request
// failure.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clinstack/patient-risk-api/internal/predict"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	generatePath   = "/v1beta/models/gemini-1.5-flash:generateContent"
	requestTimeout = 30 * time.Second
	maxBullets     = 10
)

// Client calls the text-generation endpoint. An empty API key disables it.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New returns a client for the given API key. An empty key produces a
// disabled client whose Explain always returns nothing.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Explain asks for a narrative of the batch's first record. Returns the
// generated text, or "" when disabled or on any failure.
func (c *Client) Explain(ctx context.Context, sum *predict.Summary) string {
	if !c.Enabled() {
		logrus.Warn("explanation API key not configured, skipping explanation")
		return ""
	}
	if sum == nil || len(sum.RiskProbability) == 0 {
		return ""
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(sum)}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.4,
			TopK:            32,
			TopP:            0.9,
			MaxOutputTokens: 512,
		},
	})
	if err != nil {
		logrus.WithError(err).Warn("explanation request encode failed")
		return ""
	}

	url := c.baseURL + generatePath + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Warn("explanation request build failed")
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("explanation API request failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.WithField("status", resp.StatusCode).Warn("explanation API returned non-success status")
		return ""
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logrus.WithError(err).Warn("explanation API response decode failed")
		return ""
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return out.Candidates[0].Content.Parts[0].Text
}

// buildPrompt formats the first record's risk score, level and up to ten
// highlighted features as bullet lines.
func buildPrompt(sum *predict.Summary) string {
	var bullets []string
	if len(sum.TopFeatures) > 0 && sum.TopFeatures[0] != nil {
		top := sum.TopFeatures[0]
		for _, name := range top.Keys() {
			if len(bullets) >= maxBullets {
				break
			}
			value, _ := top.Get(name)
			bullets = append(bullets, fmt.Sprintf("- %s: %v", name, value))
		}
	}

	return fmt.Sprintf(
		"Provide a concise clinical explanation for a diabetes patient's risk assessment. "+
			"Focus on the key factors contributing to the risk score. Use bullet points and keep it under 180 words. "+
			"Format similar to: '* Factor name: Brief explanation of how it affects risk.'\n\n"+
			"RISK SCORE: %.3f (%s Risk)\n"+
			"KEY FEATURES:\n%s",
		sum.RiskProbability[0], sum.RiskLevel[0], strings.Join(bullets, "\n"))
}
