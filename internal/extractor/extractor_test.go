package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-report-go/internal/logger"
	"incident-report-go/internal/types"
)

const validJSON = `{"PNR":"XY9876","issue":"Flight delayed 5 hours","issueType":"Flight delays and cancellations","location":"Gate Area","urgency":"High","suggestion":"Offer meal vouchers and rebooking","sentiment":"Frustrated"}`

// scriptedCompleter replays one response per call, repeating the last one.
type scriptedCompleter struct {
	replies []string
	err     error
	prompts []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.prompts) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

func newTestExtractor(c Completer, attempts int) *Extractor {
	return New(c, Options{MaxAttempts: attempts, RetryDelay: time.Millisecond, Log: logger.Nop()})
}

func TestExtractFirstTry(t *testing.T) {
	c := &scriptedCompleter{replies: []string{validJSON}}

	r, err := newTestExtractor(c, 3).Extract(context.Background(), "my flight was delayed")
	require.NoError(t, err)
	assert.Equal(t, "XY9876", r.PNR)
	assert.Equal(t, "Offer meal vouchers and rebooking", r.Suggestion)
	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "my flight was delayed")
}

func TestExtractSucceedsOnThirdAttempt(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"Sure! Here is the report.", "PNR: none", validJSON}}

	r, err := newTestExtractor(c, 3).Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Gate Area", r.Location)
	assert.Len(t, c.prompts, 3)
}

func TestExtractGivesUpAfterMaxAttempts(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"not json"}}

	_, err := newTestExtractor(c, 3).Extract(context.Background(), "text")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Attempts)
	assert.Equal(t, "not json", pe.Raw)
	assert.Len(t, c.prompts, 3)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
}

func TestExtractRequestErrorIsNotRetried(t *testing.T) {
	boom := errors.New("401 unauthorized")
	c := &scriptedCompleter{err: boom}

	_, err := newTestExtractor(c, 3).Extract(context.Background(), "text")
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.prompts, 1)
}

func TestExtractCanceledBetweenRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &scriptedCompleter{replies: []string{"nope"}}
	e := New(c, Options{MaxAttempts: 5, RetryDelay: time.Hour, Log: logger.Nop()})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := e.Extract(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, c.prompts, 1)
}

func TestNewClampsAttempts(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"nope"}}

	_, err := New(c, Options{}).Extract(context.Background(), "text")
	require.Error(t, err)
	assert.Len(t, c.prompts, 1)
}

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    types.IncidentReport
		wantErr bool
	}{
		{
			name: "fenced",
			raw:  "```json\n" + validJSON + "\n```",
			want: types.IncidentReport{PNR: "XY9876", Issue: "Flight delayed 5 hours", IssueType: "Flight delays and cancellations", Location: "Gate Area", Urgency: "High", Suggestion: "Offer meal vouchers and rebooking", Sentiment: "Frustrated"},
		},
		{
			name: "prose around object and braces inside strings",
			raw:  `Here you go: {"PNR":"Not specified","issue":"Sign says {gate} closed","issueType":"Security","location":"Security Checkpoint","urgency":"Low","suggestion":"Fix signage","sentiment":"Neutral"} hope it helps`,
			want: types.IncidentReport{PNR: "Not specified", Issue: "Sign says {gate} closed", IssueType: "Security", Location: "Security Checkpoint", Urgency: "Low", Suggestion: "Fix signage", Sentiment: "Neutral"},
		},
		{
			name: "missing fields become sentinel",
			raw:  `{"issue":"Rude staff at check-in","sentiment":"Angry","urgency":"  "}`,
			want: types.IncidentReport{PNR: "Not specified", Issue: "Rude staff at check-in", IssueType: "Not specified", Location: "Not specified", Urgency: "Not specified", Suggestion: "Not specified", Sentiment: "Angry"},
		},
		{
			name: "out of set values are kept",
			raw:  `{"PNR":"A1","issue":"x","issueType":"Parking","location":"Car park","urgency":"Extreme","suggestion":"y","sentiment":"Bored"}`,
			want: types.IncidentReport{PNR: "A1", Issue: "x", IssueType: "Parking", Location: "Car park", Urgency: "Extreme", Suggestion: "y", Sentiment: "Bored"},
		},
		{name: "no object", raw: "I could not find anything", wantErr: true},
		{name: "unbalanced", raw: `{"PNR": "A1"`, wantErr: true},
		{
			name: "scalar values of other types become text",
			raw:  `{"PNR":123456,"issue":"Seat broken","issueType":"Terminal facilities","location":"Gate Area","urgency":false,"suggestion":2.5,"sentiment":null}`,
			want: types.IncidentReport{PNR: "123456", Issue: "Seat broken", IssueType: "Terminal facilities", Location: "Gate Area", Urgency: "false", Suggestion: "2.5", Sentiment: "Not specified"},
		},
		{
			name: "nested values are kept as compact JSON",
			raw:  `{"PNR":"A1","issue":["late","rude"],"issueType":{"main":"Customer service"}}`,
			want: types.IncidentReport{PNR: "A1", Issue: `["late","rude"]`, IssueType: `{"main":"Customer service"}`, Location: "Not specified", Urgency: "Not specified", Suggestion: "Not specified", Sentiment: "Not specified"},
		},
		{
			name: "backticks inside values survive fence stripping",
			raw:  "```json\n{\"PNR\":\"A1\",\"issue\":\"screen showed ```ERR``` at gate\"}\n```",
			want: types.IncidentReport{PNR: "A1", Issue: "screen showed ```ERR``` at gate", IssueType: "Not specified", Location: "Not specified", Urgency: "Not specified", Suggestion: "Not specified", Sentiment: "Not specified"},
		},
		{name: "malformed value", raw: `{"PNR": , "issue": "x"}`, wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReport(tt.raw)
			if tt.wantErr {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAcceptsNumericFieldsFirstTry(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{`{"PNR":123456,"issue":"Bag missing","urgency":"High"}`}}

	r, err := newTestExtractor(llm, 3).Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, llm.prompts, 1)
	assert.Equal(t, "123456", r.PNR)
	assert.Equal(t, "High", r.Urgency)
}

func TestBuildPromptListsClosedSets(t *testing.T) {
	p := BuildPrompt("lost my bag")

	for _, set := range [][]string{types.IssueTypes, types.Locations, types.UrgencyLevels, types.Sentiments} {
		for _, v := range set {
			assert.Contains(t, p, v)
		}
	}
	assert.Contains(t, p, `"suggestion"`)
	assert.NotContains(t, p, `"solution"`)
	assert.Contains(t, p, types.NotSpecified)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "lost my bag"))
	assert.NotContains(t, p, "%!")
}

func TestBuildPromptDescribesEveryLevel(t *testing.T) {
	p := BuildPrompt("x")

	for _, u := range types.UrgencyLevels {
		require.NotEmpty(t, urgencyGuide[u], u)
		assert.Contains(t, p, "- "+u+": "+urgencyGuide[u])
	}
	for _, s := range types.Sentiments {
		require.NotEmpty(t, sentimentGuide[s], s)
		assert.Contains(t, p, "- "+s+": "+sentimentGuide[s])
	}
}

func TestMockCompleterParses(t *testing.T) {
	r, err := newTestExtractor(Mock{}, 1).Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", r.PNR)
}

func TestOpenAICompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		reply, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gemma2-9b-it",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": validJSON},
			}},
		})
		_, _ = w.Write(reply)
	}))
	defer srv.Close()

	c := NewOpenAICompleter("k", srv.URL, "gemma2-9b-it", 0.2, 400)
	out, err := c.Complete(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, validJSON, out)

	assert.Equal(t, "gemma2-9b-it", body["model"])
	assert.InDelta(t, 0.2, body["temperature"], 1e-9)
	assert.EqualValues(t, 400, body["max_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "prompt text", msgs[0].(map[string]any)["content"])
}

func TestGeminiCompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		reply, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": validJSON}},
				},
			}},
		})
		_, _ = w.Write(reply)
	}))
	defer srv.Close()

	c, err := NewGeminiCompleter(context.Background(), "k", srv.URL, "gemini-2.5-flash", 0.2, 400)
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, validJSON, out)

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.EqualValues(t, 400, gen["maxOutputTokens"])
}
