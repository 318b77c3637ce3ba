package ollama_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-harvester/internal/adapter/ollama"
	"recipe-harvester/internal/domain"
)

// chatServer replies to /api/chat with the given content string wrapped
// in the model server's response envelope.
func chatServer(t *testing.T, content string, onRequest func(body map[string]interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		if onRequest != nil {
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			onRequest(body)
		}
		fmt.Fprintf(w, `{"message": {"content": %q}, "done": true}`, content)
	}))
}

func sampleHit() domain.SearchHit {
	return domain.SearchHit{
		URL:          "https://example.com/soup",
		Title:        "Vegetable Soup",
		SourceDomain: "example.com",
	}
}

func TestExtract_ParsesDraft(t *testing.T) {
	draftJSON := `{
		"name": " Vegetable Soup ",
		"description": "A hearty classic.",
		"ingredients": ["1  onion", "2 carrots", ""],
		"instructions": ["Chop.", "Simmer."],
		"prep_minutes": 15,
		"servings": 4,
		"cuisine": "Italian",
		"tags": ["soup", "vegetarian"],
		"confidence": 0.9
	}`

	var sawFormat bool
	srv := chatServer(t, draftJSON, func(body map[string]interface{}) {
		_, sawFormat = body["format"].(map[string]interface{})
		assert.Equal(t, false, body["stream"])
	})
	defer srv.Close()

	e := ollama.NewExtractor(srv.URL, "test-model", srv.Client())
	draft, err := e.Extract(context.Background(), sampleHit(), "page text")

	require.NoError(t, err)
	assert.True(t, sawFormat, "request should constrain output with a JSON schema")
	assert.Equal(t, "Vegetable Soup", draft.Name)
	require.NotNil(t, draft.Description)
	assert.Equal(t, "A hearty classic.", *draft.Description)
	assert.Equal(t, []string{"1 onion", "2 carrots"}, draft.Ingredients)
	assert.Equal(t, []string{"Chop.", "Simmer."}, draft.Instructions)
	require.NotNil(t, draft.PrepMinutes)
	assert.Equal(t, 15, *draft.PrepMinutes)
	assert.Nil(t, draft.CookMinutes)
	require.NotNil(t, draft.Cuisine)
	assert.Equal(t, "Italian", *draft.Cuisine)
	assert.InDelta(t, 0.9, draft.Confidence, 1e-9)
}

func TestExtract_ClampsConfidenceAndCapsImages(t *testing.T) {
	draftJSON := `{
		"name": "Soup",
		"ingredients": ["water"],
		"instructions": ["Boil."],
		"images": ["a","b","c","d","e","f","g","h"],
		"confidence": 1.7
	}`
	srv := chatServer(t, draftJSON, nil)
	defer srv.Close()

	e := ollama.NewExtractor(srv.URL, "test-model", srv.Client())
	draft, err := e.Extract(context.Background(), sampleHit(), "page text")

	require.NoError(t, err)
	assert.Equal(t, 1.0, draft.Confidence)
	assert.Len(t, draft.Images, domain.MaxDraftImages)
}

func TestExtract_InvalidJSONIsExtractionError(t *testing.T) {
	srv := chatServer(t, "sorry, I cannot find a recipe here", nil)
	defer srv.Close()

	e := ollama.NewExtractor(srv.URL, "test-model", srv.Client())
	_, err := e.Extract(context.Background(), sampleHit(), "page text")

	require.Error(t, err)
	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "model output is not valid draft JSON", extErr.Reason)
}

func TestExtract_EmptyPayloadIsExtractionError(t *testing.T) {
	srv := chatServer(t, `{"name": "", "ingredients": [], "instructions": [], "confidence": 0.1}`, nil)
	defer srv.Close()

	e := ollama.NewExtractor(srv.URL, "test-model", srv.Client())
	_, err := e.Extract(context.Background(), sampleHit(), "page text")

	require.Error(t, err)
	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "model output matches no recipe", extErr.Reason)
}

func TestExtract_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := ollama.NewExtractor(srv.URL, "test-model", srv.Client())
	_, err := e.Extract(context.Background(), sampleHit(), "page text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestEvaluate_RoundsAndClampsRating(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"rounds to one decimal", `{"rating": 4.23, "reasoning": "solid"}`, 4.2},
		{"clamps above five", `{"rating": 9.9, "reasoning": "model over-enthused"}`, 5.0},
		{"clamps below zero", `{"rating": -1, "reasoning": "nonsense"}`, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content, nil)
			defer srv.Close()

			ev := ollama.NewEvaluator(srv.URL, "test-model", srv.Client())
			got, err := ev.Evaluate(context.Background(), &domain.RecipeDraft{
				Name:         "Soup",
				Ingredients:  []string{"water"},
				Instructions: []string{"Boil."},
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Rating)
			assert.NotEmpty(t, got.Reasoning)
		})
	}
}

func TestEvaluate_InvalidJSONErrors(t *testing.T) {
	srv := chatServer(t, "four out of five", nil)
	defer srv.Close()

	ev := ollama.NewEvaluator(srv.URL, "test-model", srv.Client())
	_, err := ev.Evaluate(context.Background(), &domain.RecipeDraft{Name: "Soup"})
	require.Error(t, err)
}
