package analyzer

import (
	"fmt"
	"strings"
)

// Categories is the closed taxonomy the analyzer must choose from
var Categories = []string{
	"Sports Streaming",
	"General Streaming",
	"Sports News",
	"General News",
	"E-commerce",
	"Social Media",
	"Other",
}

const systemPrompt = `You are an expert web analyst specializing in identifying live sports streaming websites. You reason carefully, challenge your own first impressions, and respond only with valid JSON.`

const analysisPromptTemplate = `Analyze the following website and determine whether it is a live sports streaming site.

URL: %s
Page title: %s
Page content (truncated):
%s

Think through this step by step:
1. Form an initial analysis from the content and structure.
2. State a hypothesis about what this site is.
3. Critique your own hypothesis: what evidence cuts against it?
4. Reach a conclusion.

Classify the site into exactly one category from this list:
%s

Respond with ONLY a JSON object in this exact format:
{
  "service_name": "<name of the site or service>",
  "primary_category": "<one category from the list>",
  "is_sports_streaming_site": true or false,
  "full_reasoning_process": {
    "initial_analysis": "<your initial read of the page>",
    "hypothesis": "<what you believe this site is>",
    "self_critique": "<evidence against your hypothesis>",
    "conclusion": "<your final determination>"
  },
  "final_confidence_score": <integer 0-100>
}`

// buildPrompt assembles the analysis prompt for one page
func buildPrompt(url, title, content string) string {
	return fmt.Sprintf(analysisPromptTemplate, url, title, content, strings.Join(Categories, ", "))
}
