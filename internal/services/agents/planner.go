// Package agents holds the cognitive loop around the crawl: the planner
// that sets each cycle's strategy and the reporter that closes the loop
// with an after-action report.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
)

const plannerSystemPrompt = `You are an expert autonomous strategic planning AI for a sports streaming discovery mission. You reason in a structured framework and respond only with valid JSON.`

const genesisPromptTemplate = `You are planning the first discovery mission. There is no prior data.

Use this STRATEGIC REASONING FRAMEWORK:
1. Status review: assess the starting conditions.
2. Strategic goal: define mission success.
3. Tactical execution plan: design the query strategy.
4. Conclusion: commit to the plan.

Mission objective: %s

Respond with ONLY a valid JSON object:
{
  "mission_type": "genesis",
  "strategic_reasoning_process": {
    "status_review": "<assessment of starting conditions>",
    "strategic_goal": "<definition of mission success>",
    "tactical_execution_plan": "<specific query strategy>",
    "conclusion": "<committed course of action>"
  },
  "seed_queries": ["query1", "query2", "query3", "query4", "query5"],
  "confidence": <integer 0-100>
}`

const adaptivePromptTemplate = `You are evolving strategy from the previous mission's results.

Previous mission report:
%s

Use this STRATEGIC REASONING FRAMEWORK:
1. Status review: analyze the previous results.
2. Strategic goal: evolve the objectives from what was learned.
3. Tactical execution plan: design improved tactics.
4. Conclusion: commit to the evolved plan.

Respond with ONLY a valid JSON object:
{
  "mission_type": "adaptive",
  "strategic_reasoning_process": {
    "status_review": "<analysis of previous results>",
    "strategic_goal": "<evolved objectives>",
    "tactical_execution_plan": "<improved tactics>",
    "conclusion": "<committed course of action>"
  },
  "seed_queries": ["query1", "query2", "query3", "query4", "query5"],
  "confidence": <integer 0-100>,
  "adaptations_made": "<specific changes from the previous mission>",
  "expected_improvements": ["improvement1", "improvement2"]
}`

const defaultObjective = "Discover active live sports streaming websites and keep the catalog of verified sites current."

// Planner emits the MissionPlan that steers one cycle. With no usable
// model it falls back to deterministic plans that are themselves valid.
type Planner struct {
	provider    interfaces.LLMProvider
	model       string
	maxTokens   int
	temperature float64
	objective   string
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewPlanner creates the planner agent
func NewPlanner(provider interfaces.LLMProvider, model string, maxTokens int, temperature float64, logger arbor.ILogger) *Planner {
	return &Planner{
		provider:    provider,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		objective:   defaultObjective,
		validate:    validator.New(),
		logger:      logger,
	}
}

// GeneratePlan produces the next cycle's plan. A nil previous report
// selects genesis mode. Any model failure, parse failure, or validation
// failure lands on the deterministic fallback; the crawler never sees an
// invalid plan.
func (p *Planner) GeneratePlan(ctx context.Context, previous *models.AfterActionReport) models.MissionPlan {
	if p.provider == nil || !p.provider.Available() {
		p.logger.Warn().Msg("Planner model unavailable, using deterministic fallback plan")
		return p.fallbackPlan(previous)
	}

	prompt := p.buildPrompt(previous)
	response, err := p.provider.Complete(ctx, interfaces.CompletionRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: plannerSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("Strategic planning failed, using fallback plan")
		return p.fallbackPlan(previous)
	}

	plan, ok := p.parsePlan(response)
	if !ok {
		p.logger.Warn().Msg("Planner response rejected, using fallback plan")
		return p.fallbackPlan(previous)
	}

	p.logger.Info().
		Str("mission_type", string(plan.MissionType)).
		Int("seed_queries", len(plan.SeedQueries)).
		Int("confidence", plan.Confidence).
		Msg("Mission plan generated")
	return plan
}

func (p *Planner) buildPrompt(previous *models.AfterActionReport) string {
	if previous == nil {
		return fmt.Sprintf(genesisPromptTemplate, p.objective)
	}
	serialized, err := json.MarshalIndent(previous, "", "  ")
	if err != nil {
		serialized = []byte("{}")
	}
	return fmt.Sprintf(adaptivePromptTemplate, string(serialized))
}

// parsePlan validates a model response into a MissionPlan. Missing
// reasoning fields are synthesized with sentinels; a plan with no usable
// seed queries is rejected outright.
func (p *Planner) parsePlan(response string) (models.MissionPlan, bool) {
	trimmed := strings.TrimSpace(response)

	var plan models.MissionPlan
	if err := json.Unmarshal([]byte(trimmed), &plan); err != nil {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start < 0 || end <= start {
			return models.MissionPlan{}, false
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &plan); err != nil {
			return models.MissionPlan{}, false
		}
	}

	queries := plan.SeedQueries[:0]
	for _, query := range plan.SeedQueries {
		if strings.TrimSpace(query) != "" {
			queries = append(queries, strings.TrimSpace(query))
		}
	}
	plan.SeedQueries = queries

	if plan.MissionType != models.MissionGenesis && plan.MissionType != models.MissionAdaptive {
		plan.MissionType = models.MissionAdaptive
	}
	if plan.Timestamp.IsZero() {
		plan.Timestamp = time.Now()
	}
	if plan.Confidence < 0 {
		plan.Confidence = 0
	}
	if plan.Confidence > 100 {
		plan.Confidence = 100
	}
	fillReasoningSentinels(&plan.Reasoning)

	if err := p.validate.Struct(plan); err != nil {
		return models.MissionPlan{}, false
	}
	return plan, true
}

func fillReasoningSentinels(trace *models.ReasoningTrace) {
	if trace.StatusReview == "" {
		trace.StatusReview = "Unknown"
	}
	if trace.StrategicGoal == "" {
		trace.StrategicGoal = "Unknown"
	}
	if trace.TacticalExecutionPlan == "" {
		trace.TacticalExecutionPlan = "Unknown"
	}
	if trace.Conclusion == "" {
		trace.Conclusion = "Unknown"
	}
}
