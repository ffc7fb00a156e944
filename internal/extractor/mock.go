package extractor

import "context"

// Mock returns a deterministic report. Enabled with USE_MOCK_LLM=true.
type Mock struct{}

const mockReport = `{
  "PNR": "AB12CD",
  "issue": "Checked suitcase containing medication did not arrive at baggage claim",
  "issueType": "Baggage handling",
  "location": "Baggage Claim",
  "urgency": "High",
  "suggestion": "Open a lost baggage report, trace the bag with priority and arrange interim medication support",
  "sentiment": "Anxious/Stressed"
}`

func (Mock) Complete(ctx context.Context, prompt string) (string, error) {
	return mockReport, nil
}
