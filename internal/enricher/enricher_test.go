package enricher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/star-syncer/cfg"
	githubapi "github.com/thep200/star-syncer/internal/github_api"
	"github.com/thep200/star-syncer/internal/labeler"
	"github.com/thep200/star-syncer/pkg/log"
)

type fakeRepo struct {
	FullName        string   `json:"full_name"`
	StargazersCount int64    `json:"stargazers_count"`
	Language        string   `json:"language"`
	Description     string   `json:"description"`
	Topics          []string `json:"topics"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// newGithubFake dựng một REST API giả phục vụ /repos/{owner}/{name}
// và /repos/{owner}/{name}/languages
func newGithubFake(repos map[string]fakeRepo, languages map[string]map[string]int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/repos/")

		if strings.HasSuffix(name, "/languages") {
			name = strings.TrimSuffix(name, "/languages")
			langs, ok := languages[name]
			if !ok {
				http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(langs)
			return
		}

		repo, ok := repos[name]
		if !ok {
			http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(repo)
	}))
}

func newTestEnricher(t *testing.T, apiUrl string, vocabTerms ...string) *Enricher {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.ApiUrl = apiUrl

	logger, _ := log.NewCslLogger()
	github, err := githubapi.NewCaller(logger, config, "test-token")
	require.NoError(t, err)

	lb, err := labeler.NewLabeler(labeler.NewVocabularyFromTerms(vocabTerms))
	require.NoError(t, err)

	e, err := NewEnricher(logger, config, github, lb)
	require.NoError(t, err)
	return e
}

func TestEnrichPopularRepo(t *testing.T) {
	updatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	server := newGithubFake(
		map[string]fakeRepo{
			"acme/widget": {
				FullName:        "acme/widget",
				StargazersCount: 2500,
				Language:        "Go",
				Description:     "A fast widget engine",
				Topics:          []string{"cli", "widgets"},
				UpdatedAt:       updatedAt.Format(time.RFC3339),
			},
		},
		map[string]map[string]int64{
			"acme/widget": {"Go": 90000, "Shell": 500},
		},
	)
	defer server.Close()

	e := newTestEnricher(t, server.URL)
	item, err := e.Enrich(context.Background(), "acme:widget")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "acme:widget", item.ItemId)
	assert.Equal(t, updatedAt.Format(time.RFC3339), item.Timestamp)
	assert.ElementsMatch(t, []string{"cli", "widgets", "go"}, item.Labels)
	assert.Equal(t, "A fast widget engine", item.Comment)
	assert.Empty(t, item.Categories)
}

func TestEnrichBelowThresholdReturnsNoItem(t *testing.T) {
	server := newGithubFake(
		map[string]fakeRepo{
			"acme/tiny": {FullName: "acme/tiny", StargazersCount: 3},
		},
		nil,
	)
	defer server.Close()

	e := newTestEnricher(t, server.URL)
	item, err := e.Enrich(context.Background(), "acme:tiny")

	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestEnrichRemovedRepo(t *testing.T) {
	server := newGithubFake(nil, nil)
	defer server.Close()

	e := newTestEnricher(t, server.URL)
	item, err := e.Enrich(context.Background(), "acme:gone")

	assert.Nil(t, item)
	assert.ErrorIs(t, err, ErrItemRemoved)
}

func TestEnrichRenamedRepo(t *testing.T) {
	// GitHub redirect trả về repository dưới tên mới
	server := newGithubFake(
		map[string]fakeRepo{
			"acme/old-name": {FullName: "acme/new-name", StargazersCount: 2500},
		},
		nil,
	)
	defer server.Close()

	e := newTestEnricher(t, server.URL)
	item, err := e.Enrich(context.Background(), "acme:old-name")

	assert.Nil(t, item)
	assert.ErrorIs(t, err, ErrItemRemoved)
}

func TestEnrichTruncatesLongDescription(t *testing.T) {
	server := newGithubFake(
		map[string]fakeRepo{
			"acme/widget": {
				FullName:        "acme/widget",
				StargazersCount: 2500,
				Description:     strings.Repeat("x", 5000),
				UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
			},
		},
		nil,
	)
	defer server.Close()

	e := newTestEnricher(t, server.URL)
	item, err := e.Enrich(context.Background(), "acme:widget")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Len(t, item.Comment, e.Config.Syncer.MaxCommentLength)
}

func TestEnrichPrimaryLanguageFallback(t *testing.T) {
	// Không có thống kê ngôn ngữ thì dùng trường language của repository
	server := newGithubFake(
		map[string]fakeRepo{
			"acme/widget": {
				FullName:        "acme/widget",
				StargazersCount: 2500,
				Language:        "Rust",
				UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
			},
		},
		nil,
	)
	defer server.Close()

	e := newTestEnricher(t, server.URL)
	item, err := e.Enrich(context.Background(), "acme:widget")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Contains(t, item.Labels, "rust")
}

func TestEnrichAppliesLabelerAndCategories(t *testing.T) {
	server := newGithubFake(
		map[string]fakeRepo{
			"acme/shelf": {
				FullName:        "acme/shelf",
				StargazersCount: 2500,
				Description:     "A curated programming book collection",
				Topics:          []string{"reading"},
				UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
			},
		},
		map[string]map[string]int64{
			"acme/shelf": {},
		},
	)
	defer server.Close()

	e := newTestEnricher(t, server.URL, "book")
	item, err := e.Enrich(context.Background(), "acme:shelf")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Contains(t, item.Labels, "book")
	assert.Equal(t, []string{"book"}, item.Categories)
}
