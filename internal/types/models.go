package types

import "strings"

// NotSpecified is written into any report field the model could not fill.
const NotSpecified = "Not specified"

// IncidentReport is the structured form of one recorded complaint.
type IncidentReport struct {
	PNR        string `json:"PNR"`
	Issue      string `json:"issue"`
	IssueType  string `json:"issueType"`
	Location   string `json:"location"`
	Urgency    string `json:"urgency"`
	Suggestion string `json:"suggestion"`
	Sentiment  string `json:"sentiment"`
}

// --------------------------------------------
// Closed sets described to the model. The extraction prompt
// renders all four; values coming back are trusted as-is.
// --------------------------------------------

var IssueTypes = []string{
	"Baggage handling",
	"Check-in and boarding",
	"Security",
	"Terminal facilities",
	"Flight delays and cancellations",
	"Customer service",
	"Refunds",
	"General information",
}

var Locations = []string{
	"Check-in and Boarding Area",
	"Security Checkpoint",
	"Baggage Claim",
	"Terminal Facilities",
	"Gate Area",
}

var UrgencyLevels = []string{"Critical", "High", "Medium", "Low"}

var Sentiments = []string{"Angry", "Frustrated", "Anxious/Stressed", "Neutral", "Satisfied"}

// Normalize fills blank fields with NotSpecified so every key is always present.
func (r IncidentReport) Normalize() IncidentReport {
	fill := func(s string) string {
		s = strings.TrimSpace(s)
		if s == "" {
			return NotSpecified
		}
		return s
	}
	return IncidentReport{
		PNR:        fill(r.PNR),
		Issue:      fill(r.Issue),
		IssueType:  fill(r.IssueType),
		Location:   fill(r.Location),
		Urgency:    fill(r.Urgency),
		Suggestion: fill(r.Suggestion),
		Sentiment:  fill(r.Sentiment),
	}
}
