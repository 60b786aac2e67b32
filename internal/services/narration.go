// internal/services/narration.go
//
// Narration turns aggregated statistics into short plain-language
// summaries via the Gemini API. The narrator is strictly advisory:
// every call degrades to a fixed fallback sentence when the API is
// unreachable, misconfigured, or returns garbage, and the numeric
// dashboards never depend on it.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"freestate-servicedelivery/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// FallbackNarration is returned for report-style narrations when
	// the AI backend cannot produce one.
	FallbackNarration = "AI summary is currently unavailable. Please review the statistics directly."

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	narrationTimeout     = 20 * time.Second
)

var ErrNarrationUnavailable = errors.New("narration backend unavailable")

// Narrator is the Gemini-backed narration client. A nil Narrator is
// valid and always reports unavailable, so wiring stays unconditional.
type Narrator struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewNarrator builds a narrator. Returns nil when no API key is
// configured; callers treat that as narration disabled.
func NewNarrator(apiKey, baseURL, model string) *Narrator {
	if apiKey == "" {
		logrus.Warn("GEMINI_API_KEY not set, AI narration disabled")
		return nil
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(narrationTimeout).
		SetHeader("Content-Type", "application/json")
	return &Narrator{client: client, apiKey: apiKey, model: model}
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *geminiImagePart `json:"inlineData,omitempty"`
}

type geminiImagePart struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (n *Narrator) generate(ctx context.Context, system, prompt string) (string, error) {
	return n.generateParts(ctx, system, []geminiPart{{Text: prompt}}, "")
}

func (n *Narrator) generateParts(ctx context.Context, system string, parts []geminiPart, responseMIME string) (string, error) {
	if n == nil {
		return "", ErrNarrationUnavailable
	}

	request := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}
	if system != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if responseMIME != "" {
		request.GenerationConfig = &geminiGenerationConfig{ResponseMIMEType: responseMIME}
	}

	var response geminiResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParam("key", n.apiKey).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", n.model))
	if err != nil {
		logrus.WithError(err).Warn("Gemini request failed")
		return "", ErrNarrationUnavailable
	}
	if resp.IsError() {
		message := resp.Status()
		if response.Error != nil {
			message = response.Error.Message
		}
		logrus.WithField("status", resp.StatusCode()).WithField("message", message).Warn("Gemini returned an error")
		return "", ErrNarrationUnavailable
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", ErrNarrationUnavailable
	}

	text := strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrNarrationUnavailable
	}
	return text, nil
}

// Classification is the model's reading of a draft report: the
// category it belongs to and how urgent it looks.
type Classification struct {
	Category models.IssueCategory `json:"category"`
	Priority models.IssuePriority `json:"priority"`
}

// SuggestCategory asks the model to classify a draft report into one
// of the known issue categories and judge its urgency. The photo, when
// present, is sent along as an image part ("data:<mime>;base64,<data>"
// as the clients submit it). The suggestion is advisory; invalid or
// unavailable answers return ok=false and the resident picks manually.
func (n *Narrator) SuggestCategory(ctx context.Context, description, photo string) (Classification, bool) {
	parts := []geminiPart{{Text: ClassificationPrompt(description)}}
	if image, ok := ParsePhotoDataURL(photo); ok {
		parts = append(parts, geminiPart{InlineData: image})
	}

	answer, err := n.generateParts(ctx, "", parts, "application/json")
	if err != nil {
		return Classification{}, false
	}

	var suggestion Classification
	if err := json.Unmarshal([]byte(trimJSONFences(answer)), &suggestion); err != nil {
		logrus.WithField("answer", answer).Debug("Gemini classification was not valid JSON")
		return Classification{}, false
	}
	if !suggestion.Category.IsValid() || !suggestion.Priority.IsValid() {
		logrus.WithField("answer", answer).Debug("Gemini returned an unknown category or priority")
		return Classification{}, false
	}
	return suggestion, true
}

// ClassificationPrompt builds the category-and-urgency prompt.
func ClassificationPrompt(description string) string {
	var b strings.Builder
	b.WriteString("Analyze the following municipal service-delivery report. Based on the description and/or image, determine the most likely category and urgency level (priority).\n\n")
	fmt.Fprintf(&b, "Description: %q\n\n", description)
	b.WriteString("The category must be one of the following exact values: ")
	writeEnumList(&b, categoryNames())
	b.WriteString("The priority must be one of the following exact values: ")
	writeEnumList(&b, []string{string(models.PriorityHigh), string(models.PriorityMedium), string(models.PriorityLow)})
	b.WriteString(`- Use 'High' priority for critical issues like major water leaks, power outages, or public safety hazards.
- Use 'Medium' priority for significant but not critical issues like large potholes or broken traffic signals.
- Use 'Low' priority for minor issues like waste removal delays.

Return a single, valid JSON object with "category" and "priority" keys. Do not add any other text or markdown formatting.
`)
	return b.String()
}

func categoryNames() []string {
	categories := models.AllCategories()
	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = string(category)
	}
	return names
}

func writeEnumList(b *strings.Builder, values []string) {
	fmt.Fprintf(b, "[%s].\n", strings.Join(values, ", "))
}

// ParsePhotoDataURL splits a "data:<mime>;base64,<data>" URL into an
// inline image part. Anything else is ignored.
func ParsePhotoDataURL(photo string) (*geminiImagePart, bool) {
	if !strings.HasPrefix(photo, "data:") {
		return nil, false
	}
	semicolon := strings.Index(photo, ";")
	comma := strings.Index(photo, ",")
	if semicolon < 0 || comma < semicolon {
		return nil, false
	}
	mimeType := photo[len("data:"):semicolon]
	data := photo[comma+1:]
	if mimeType == "" || data == "" {
		return nil, false
	}
	return &geminiImagePart{MimeType: mimeType, Data: data}, true
}

// trimJSONFences strips a markdown code fence the model sometimes
// wraps around its JSON despite instructions.
func trimJSONFences(answer string) string {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	return strings.TrimSpace(answer)
}

const reportSystemPrompt = `You write short plain-language summaries of municipal service-delivery statistics for the given audience.
Be factual and neutral. Use only the numbers provided. Do not invent figures. Answer in at most four sentences.`

// TransparencyReport narrates municipality-wide statistics for the
// public transparency page.
func (n *Narrator) TransparencyReport(ctx context.Context, municipality string, summary Summary, sentiment Sentiment, categories []BreakdownRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audience: residents of %s.\n", municipality)
	writeSummary(&b, summary)
	writeSentiment(&b, sentiment)
	writeCategories(&b, categories)
	return n.narrate(ctx, b.String())
}

// CouncillorBriefing narrates one ward's statistics for its councillor.
func (n *Narrator) CouncillorBriefing(ctx context.Context, councillor string, ward int, summary Summary, sentiment Sentiment, criticalCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audience: ward councillor %s, ward %d.\n", councillor, ward)
	writeSummary(&b, summary)
	writeSentiment(&b, sentiment)
	fmt.Fprintf(&b, "Critical issues (high priority, open over three days): %d.\n", criticalCount)
	return n.narrate(ctx, b.String())
}

// ExecutiveSummary narrates cross-municipality statistics for the
// executive dashboard.
func (n *Narrator) ExecutiveSummary(ctx context.Context, summary Summary, departments []DepartmentRow, leaderboard []CouncillorRow) string {
	var b strings.Builder
	b.WriteString("Audience: provincial executive overseeing all municipalities.\n")
	writeSummary(&b, summary)
	b.WriteString("Department resolution rates:\n")
	for _, row := range departments {
		fmt.Fprintf(&b, "- %s: %.1f%% of %d issues\n", row.Department, row.ResolutionRate, row.TotalIssues)
	}
	if len(leaderboard) > 0 {
		top := leaderboard[0]
		fmt.Fprintf(&b, "Top councillor: %s (ward %d, %.1f%%).\n", top.Councillor, top.Ward, top.ResolutionRate)
	}
	return n.narrate(ctx, b.String())
}

// WardHealthSummary narrates a ward comparison for officials.
func (n *Narrator) WardHealthSummary(ctx context.Context, municipality string, wards []WardRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audience: municipal official in %s comparing ward performance.\n", municipality)
	for _, row := range wards {
		fmt.Fprintf(&b, "- Ward %d (%s): %d issues, %.1f%% resolved\n", row.Ward, row.Councillor, row.TotalIssues, row.ResolutionRate)
	}
	return n.narrate(ctx, b.String())
}

func (n *Narrator) narrate(ctx context.Context, prompt string) string {
	text, err := n.generate(ctx, reportSystemPrompt, prompt)
	if err != nil {
		return FallbackNarration
	}
	return text
}

func writeSummary(b *strings.Builder, summary Summary) {
	fmt.Fprintf(b, "Issues: %d total, %d pending, %d in progress, %d resolved, resolution rate %.1f%%.\n",
		summary.Total, summary.Pending, summary.InProgress, summary.Resolved, summary.ResolutionRate)
	fmt.Fprintf(b, "High priority pending: %d.\n", summary.HighPriorityPending)
}

func writeSentiment(b *strings.Builder, sentiment Sentiment) {
	fmt.Fprintf(b, "Resident ratings: %d satisfied, %d unsatisfied, %.1f%% positive.\n",
		sentiment.Satisfied, sentiment.Unsatisfied, sentiment.PositivePercentage)
}

func writeCategories(b *strings.Builder, categories []BreakdownRow) {
	if len(categories) == 0 {
		return
	}
	b.WriteString("Issues by category:\n")
	for _, row := range categories {
		fmt.Fprintf(b, "- %s: %d\n", row.Name, row.Count)
	}
}
