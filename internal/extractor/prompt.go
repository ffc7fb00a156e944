package extractor

import (
	"fmt"
	"strings"

	"incident-report-go/internal/types"
)

// BuildPrompt renders the extraction instructions around one transcript.
func BuildPrompt(transcript string) string {
	prompt := `You are an automated document processing operator at an airport. You extract structured information from customer complaints.

Analyse the complaint text below and extract these fields.

PNR: the Passenger Name Record, usually 6 alphanumeric characters (e.g. "ABC123"). If none is present use "%[1]s".

issue: a concise description of the problem being reported.

issueType: choose exactly one of the following and nothing else:
%[2]s

location: where the incident happened. Choose exactly one of the following and nothing else, and never include the airport name:
%[3]s

urgency: decide from the nature of the complaint, do not ask the customer.
%[4]s

suggestion: a resolution proposed from the issue, issueType, location and urgency.

sentiment: judge the customer's state from what they report, not from tone, punctuation or writing style. Choose one of:
%[5]s

If any field cannot be found in the text, use "%[1]s" as its value.

Return ONLY a valid JSON object, with no markdown and no explanation, shaped exactly like:
{
  "PNR": "",
  "issue": "",
  "issueType": "",
  "location": "",
  "urgency": "",
  "suggestion": "",
  "sentiment": ""
}

Complaint text:
%[6]s
`
	return fmt.Sprintf(prompt,
		types.NotSpecified,
		bullets(types.IssueTypes),
		bullets(types.Locations),
		described(types.UrgencyLevels, urgencyGuide),
		described(types.Sentiments, sentimentGuide),
		transcript,
	)
}

var urgencyGuide = map[string]string{
	"Critical": "threats to passenger safety, security breaches, medical emergencies, severe disruptions.",
	"High":     "flight delays, lost baggage with critical items (passport, medication), serious dissatisfaction.",
	"Medium":   "minor service delays, problems with airport facilities, damaged luggage.",
	"Low":      "general complaints, minor inconveniences, feedback on services.",
}

var sentimentGuide = map[string]string{
	"Angry":            "extreme dissatisfaction with clear demands; severe issue; mentions legal action, compensation or escalation.",
	"Frustrated":       "dissatisfaction without severe consequences; repeated delays or unresolved issues; no escalation threats.",
	"Anxious/Stressed": "an urgent personal concern such as lost documents, medication or a tight connection; asks for immediate help.",
	"Neutral":          "purely factual report with no evident emotion.",
	"Satisfied":        "positive feedback or an issue that was already resolved.",
}

// described lists values in order, each followed by its guidance when there is one.
func described(values []string, guide map[string]string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + v)
		if g := guide[v]; g != "" {
			b.WriteString(": " + g)
		}
	}
	return b.String()
}

func bullets(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %q", v)
	}
	return b.String()
}
