// Package analyzer runs the cognitive triage stage: an LLM reads the page
// and returns a structured verdict with its reasoning chain. The verdict
// enriches the catalog record; outside strict mode it never vetoes a site
// the technical verifier admitted.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
)

// Page content sent to the model is capped to keep prompts small
const contentLimit = 2000

// Service drives the analysis prompt through a completion provider
type Service struct {
	provider    interfaces.LLMProvider
	model       string
	maxTokens   int
	temperature float64
	converter   *md.Converter
	logger      arbor.ILogger
}

// NewService creates the analyzer. A nil or unavailable provider yields a
// degraded service: Analyze returns a sentinel-negative verdict.
func NewService(provider interfaces.LLMProvider, model string, maxTokens int, temperature float64, logger arbor.ILogger) *Service {
	return &Service{
		provider:    provider,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		converter:   md.NewConverter("", true, nil),
		logger:      logger,
	}
}

// Available reports whether the cognitive stage can run
func (s *Service) Available() bool {
	return s.provider != nil && s.provider.Available()
}

// Analyze evaluates a page. Model or transport failures produce a default
// negative verdict with Err set; a malformed response produces a verdict
// with ParseError set and sentinel fields filled.
func (s *Service) Analyze(ctx context.Context, url, htmlContent string) models.Analysis {
	if !s.Available() {
		return negativeVerdict("no completion provider available")
	}

	title, text := pageText(s.converter, htmlContent)
	if runes := []rune(text); len(runes) > contentLimit {
		text = string(runes[:contentLimit])
	}

	response, err := s.provider.Complete(ctx, interfaces.CompletionRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(url, title, text)},
		},
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn().Str("url", url).Err(err).Msg("Cognitive analysis failed")
		return negativeVerdict(err.Error())
	}

	analysis, parseErr := ParseResponse(response)
	if parseErr != "" {
		s.logger.Warn().Str("url", url).Str("parse_error", parseErr).Msg("Cognitive analysis response unparseable")
	}
	return analysis
}

// ParseResponse interprets a model response. First a direct JSON parse is
// attempted; when the model wrapped the object in prose, the outermost
// brace-delimited span is tried next. Missing fields get sentinel values.
func ParseResponse(response string) (models.Analysis, string) {
	trimmed := strings.TrimSpace(response)

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(trimmed), &analysis); err == nil {
		return normalize(analysis), ""
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &analysis); err == nil {
			return normalize(analysis), ""
		}
	}

	parseErr := fmt.Sprintf("no valid JSON object in %d-char response", len(response))
	verdict := negativeVerdict("")
	verdict.ParseError = parseErr
	return verdict, parseErr
}

// normalize fills sentinels and clamps fields so downstream code never
// sees an empty name, an out-of-taxonomy category, or an absurd score.
func normalize(analysis models.Analysis) models.Analysis {
	if strings.TrimSpace(analysis.ServiceName) == "" {
		analysis.ServiceName = "Unknown"
	}
	if !validCategory(analysis.PrimaryCategory) {
		analysis.PrimaryCategory = "Other"
	}
	for _, field := range []*string{
		&analysis.Reasoning.InitialAnalysis,
		&analysis.Reasoning.Hypothesis,
		&analysis.Reasoning.SelfCritique,
		&analysis.Reasoning.Conclusion,
	} {
		if strings.TrimSpace(*field) == "" {
			*field = "Unknown"
		}
	}
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 100 {
		analysis.Confidence = 100
	}
	return analysis
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if category == c {
			return true
		}
	}
	return false
}

func negativeVerdict(errMsg string) models.Analysis {
	return models.Analysis{
		ServiceName:     "Unknown",
		PrimaryCategory: "Other",
		IsStreamingSite: false,
		Reasoning: models.ReasoningBlock{
			InitialAnalysis: "Unknown",
			Hypothesis:      "Unknown",
			SelfCritique:    "Unknown",
			Conclusion:      "Unknown",
		},
		Confidence: 0,
		Err:        errMsg,
	}
}

// pageText extracts the title and a markdown rendition of the body. The
// markdown form keeps headings and link text, which carry most of the
// signal, while shedding markup noise.
func pageText(converter *md.Converter, htmlContent string) (title, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", htmlContent
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript").Remove()
	cleaned, err := doc.Html()
	if err != nil {
		cleaned = htmlContent
	}

	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return title, strings.TrimSpace(doc.Text())
	}
	return title, strings.TrimSpace(markdown)
}
