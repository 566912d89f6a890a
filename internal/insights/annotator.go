// Package insights adds short narrative explanations to rows with a
// meaningful seasonal signal. Annotation never changes numeric columns.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/merchsignal/backend/internal/domain"
)

// Noop leaves every row untouched; used when no insight backend is
// configured.
type Noop struct{}

func (Noop) Annotate(ctx context.Context, recs []*domain.Recommendation) error {
	return nil
}

// ChatAnnotator calls an OpenAI-compatible chat completion endpoint for
// rows worth explaining. Per-row failures degrade to a rule-based summary.
type ChatAnnotator struct {
	baseURL    string
	apiKey     string
	model      string
	threshold  float64
	httpClient *http.Client
}

func NewChatAnnotator(baseURL, apiKey, model string, strengthThreshold float64) *ChatAnnotator {
	return &ChatAnnotator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		threshold:  strengthThreshold,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// worthAnnotating gates which rows get an insight: a strong seasonal
// pattern, a flagged seasonal risk, or a non-flat trend.
func (a *ChatAnnotator) worthAnnotating(rec *domain.Recommendation) bool {
	return rec.SeasonalityStrength > a.threshold ||
		rec.SeasonalRiskFlag ||
		rec.SeasonalTrend != domain.TrendStable
}

func (a *ChatAnnotator) Annotate(ctx context.Context, recs []*domain.Recommendation) error {
	var annotated int
	for _, rec := range recs {
		if !a.worthAnnotating(rec) {
			continue
		}

		text, err := a.generate(ctx, rec)
		if err != nil {
			log.Debug().Err(err).Str("sku_id", rec.SKUID).Msg("insight generation failed, using rule-based text")
			rec.SeasonalInsight = RuleBasedInsight(rec)
			rec.SeasonalConfidence = 0.5
		} else {
			rec.SeasonalInsight = text
			rec.SeasonalConfidence = 0.8
		}
		annotated++
	}
	log.Info().Int("annotated", annotated).Int("total", len(recs)).Msg("insight annotation complete")
	return nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *ChatAnnotator) generate(ctx context.Context, rec *domain.Recommendation) (string, error) {
	prompt := fmt.Sprintf(
		"You are an inventory analyst. In two sentences, explain the seasonal situation for SKU %s (%s): "+
			"current month index %.2f, next month index %.2f, trend %s, peak month %s, trough month %s, "+
			"days of stock left %.0f, seasonal risk flag %t. Be concrete and actionable.",
		rec.SKUID, rec.ProductName,
		rec.SeasonalIndexCurrent, rec.SeasonalIndexNext, rec.SeasonalTrend,
		rec.PeakMonth, rec.TroughMonth,
		rec.DaysOfStockLeftSerialized(), rec.SeasonalRiskFlag,
	)

	body, err := json.Marshal(chatRequest{
		Model:    a.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insight backend status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("insight backend returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// RuleBasedInsight builds a deterministic one-liner from the seasonal
// columns.
func RuleBasedInsight(rec *domain.Recommendation) string {
	var b strings.Builder
	switch rec.SeasonalTrend {
	case domain.TrendRising:
		fmt.Fprintf(&b, "Demand is entering a rising season (next month index %.2f).", rec.SeasonalIndexNext)
	case domain.TrendFalling:
		fmt.Fprintf(&b, "Demand is entering a falling season (next month index %.2f).", rec.SeasonalIndexNext)
	default:
		fmt.Fprintf(&b, "Demand is seasonally stable (next month index %.2f).", rec.SeasonalIndexNext)
	}
	if rec.PeakMonth != "" {
		fmt.Fprintf(&b, " Peak month is %s, trough is %s.", rec.PeakMonth, rec.TroughMonth)
	}
	if rec.SeasonalRiskFlag {
		b.WriteString(" Stock cover is high going into a low-demand month; consider discounting before velocity drops.")
	}
	return b.String()
}
