package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"freestate-servicedelivery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiStub(t *testing.T, answer string, capture *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.NotEmpty(t, r.URL.Query().Get("key"))
		if capture != nil {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, capture))
		}
		w.Header().Set("Content-Type", "application/json")
		payload, err := json.Marshal(map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}},
			},
		})
		require.NoError(t, err)
		w.Write(payload)
	}))
}

func TestSuggestCategory(t *testing.T) {
	server := geminiStub(t, `{"category":"Water Leak","priority":"High"}`, nil)
	defer server.Close()

	narrator := NewNarrator("test-key", server.URL, "gemini-2.5-flash")
	require.NotNil(t, narrator)

	suggestion, ok := narrator.SuggestCategory(context.Background(), "Water running down the street", "")
	require.True(t, ok)
	assert.Equal(t, models.CategoryWaterLeak, suggestion.Category)
	assert.Equal(t, models.PriorityHigh, suggestion.Priority)
}

func TestSuggestCategoryStripsCodeFence(t *testing.T) {
	server := geminiStub(t, "```json\n{\"category\":\"Pothole\",\"priority\":\"Medium\"}\n```", nil)
	defer server.Close()

	narrator := NewNarrator("test-key", server.URL, "gemini-2.5-flash")
	suggestion, ok := narrator.SuggestCategory(context.Background(), "Huge hole in the road", "")
	require.True(t, ok)
	assert.Equal(t, models.CategoryPothole, suggestion.Category)
	assert.Equal(t, models.PriorityMedium, suggestion.Priority)
}

func TestSuggestCategoryUnknownAnswer(t *testing.T) {
	server := geminiStub(t, `{"category":"Alien Invasion","priority":"High"}`, nil)
	defer server.Close()

	narrator := NewNarrator("test-key", server.URL, "gemini-2.5-flash")
	_, ok := narrator.SuggestCategory(context.Background(), "Something odd", "")
	assert.False(t, ok)
}

func TestSuggestCategoryInvalidJSON(t *testing.T) {
	server := geminiStub(t, "probably a pothole", nil)
	defer server.Close()

	narrator := NewNarrator("test-key", server.URL, "gemini-2.5-flash")
	_, ok := narrator.SuggestCategory(context.Background(), "A hole", "")
	assert.False(t, ok)
}

func TestSuggestCategorySendsPhotoPart(t *testing.T) {
	var captured geminiRequest
	server := geminiStub(t, `{"category":"Illegal Dumping","priority":"Medium"}`, &captured)
	defer server.Close()

	narrator := NewNarrator("test-key", server.URL, "gemini-2.5-flash")
	_, ok := narrator.SuggestCategory(context.Background(), "Rubble dumped on the verge", "data:image/jpeg;base64,aGVsbG8=")
	require.True(t, ok)

	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 2)
	image := captured.Contents[0].Parts[1].InlineData
	require.NotNil(t, image)
	assert.Equal(t, "image/jpeg", image.MimeType)
	assert.Equal(t, "aGVsbG8=", image.Data)
	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMIMEType)
}

func TestParsePhotoDataURL(t *testing.T) {
	image, ok := ParsePhotoDataURL("data:image/png;base64,abc123")
	require.True(t, ok)
	assert.Equal(t, "image/png", image.MimeType)
	assert.Equal(t, "abc123", image.Data)

	for _, photo := range []string{"", "not a data url", "data:;base64,abc", "data:image/png;base64,"} {
		_, ok := ParsePhotoDataURL(photo)
		assert.False(t, ok, photo)
	}
}

func TestNarrationFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
	}))
	defer server.Close()

	narrator := NewNarrator("test-key", server.URL, "gemini-2.5-flash")
	narration := narrator.TransparencyReport(context.Background(), "Mangaung Metropolitan Municipality", Summary{}, Sentiment{}, nil)
	assert.Equal(t, FallbackNarration, narration)
}

func TestNilNarratorDegrades(t *testing.T) {
	narrator := NewNarrator("", "", "gemini-2.5-flash")
	require.Nil(t, narrator)

	narration := narrator.TransparencyReport(context.Background(), "Mangaung Metropolitan Municipality", Summary{}, Sentiment{}, nil)
	assert.Equal(t, FallbackNarration, narration)

	_, ok := narrator.SuggestCategory(context.Background(), "d", "")
	assert.False(t, ok)
}

func TestClassificationPromptListsValues(t *testing.T) {
	prompt := ClassificationPrompt("Water in the road")
	for _, category := range models.AllCategories() {
		assert.Contains(t, prompt, string(category))
	}
	assert.Contains(t, prompt, string(models.PriorityHigh))
	assert.Contains(t, prompt, `Description: "Water in the road"`)
	assert.Contains(t, prompt, "JSON object")
}
