package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/star-syncer/cfg"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/pkg/log"
)

// fakeCheckpointStore thay cho bảng users trên MySQL
type fakeCheckpointStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	deactivated []string
}

func newFakeCheckpointStore(users ...model.User) *fakeCheckpointStore {
	s := &fakeCheckpointStore{users: map[string]*model.User{}}
	for i := range users {
		u := users[i]
		s.users[u.Login] = &u
	}
	return s
}

func (s *fakeCheckpointStore) FindStale(staleAfter time.Duration) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-staleAfter)
	stale := []model.User{}
	for _, u := range s.users {
		if u.PulledAt == nil || u.PulledAt.Before(cutoff) {
			stale = append(stale, *u)
		}
	}
	return stale, nil
}

func (s *fakeCheckpointStore) AdvanceCheckpoint(login string, pulledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[login]; ok {
		u.PulledAt = &pulledAt
	}
	return nil
}

func (s *fakeCheckpointStore) Deactivate(login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, login)
	s.deactivated = append(s.deactivated, login)
	return nil
}

func (s *fakeCheckpointStore) checkpoint(login string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[login]; ok {
		return u.PulledAt
	}
	return nil
}

// fakeGorse ghi nhớ item, feedback và user đã ghi vào store
type fakeGorse struct {
	mu         sync.Mutex
	items      map[string]gorseapi.Item
	feedbacks  []gorseapi.Feedback
	gorseUsers map[string]gorseapi.User
}

func newFakeGorse() *fakeGorse {
	return &fakeGorse{
		items:      map[string]gorseapi.Item{},
		gorseUsers: map[string]gorseapi.User{},
	}
}

func (g *fakeGorse) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/items":
			items := []gorseapi.Item{}
			for _, item := range g.items {
				items = append(items, item)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"Items": items, "Cursor": ""})

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/item/"):
			itemId := strings.TrimPrefix(r.URL.Path, "/api/item/")
			item, ok := g.items[itemId]
			if !ok {
				http.Error(w, `{"message": "item not found"}`, http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(item)

		case r.Method == http.MethodPost && r.URL.Path == "/api/items":
			var batch []gorseapi.Item
			json.NewDecoder(r.Body).Decode(&batch)
			for _, item := range batch {
				g.items[item.ItemId] = item
			}
			fmt.Fprintf(w, `{"RowAffected": %d}`, len(batch))

		case r.Method == http.MethodPost && r.URL.Path == "/api/feedback":
			var batch []gorseapi.Feedback
			json.NewDecoder(r.Body).Decode(&batch)
			g.feedbacks = append(g.feedbacks, batch...)
			fmt.Fprintf(w, `{"RowAffected": %d}`, len(batch))

		case r.Method == http.MethodPost && r.URL.Path == "/api/user":
			var user gorseapi.User
			json.NewDecoder(r.Body).Decode(&user)
			g.gorseUsers[user.UserId] = user
			w.Write([]byte(`{"RowAffected": 1}`))

		default:
			http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
		}
	}))
}

func (g *fakeGorse) itemCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

func (g *fakeGorse) feedbackCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.feedbacks)
}

// githubFixture mô tả thế giới GitHub giả: một user với danh sách star
// và metadata của các repository liên quan
type githubFixture struct {
	login     string
	stars     []starEntry
	repos     map[string]repoEntry
	badTokens map[string]bool
}

type starEntry struct {
	nameWithOwner string
	starredAt     time.Time
}

type repoEntry struct {
	stargazers  int64
	language    string
	description string
	topics      []string
}

func (f *githubFixture) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "bearer ")
		token = strings.TrimPrefix(token, "token ")
		if f.badTokens[token] {
			http.Error(w, `{"message": "Bad credentials"}`, http.StatusUnauthorized)
			return
		}

		if r.URL.Path == "/graphql" {
			f.serveGraphql(w, r)
			return
		}
		f.serveRest(w, r)
	}))
}

func (f *githubFixture) serveGraphql(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}
	json.NewDecoder(r.Body).Decode(&payload)

	switch {
	case strings.Contains(payload.Query, "viewer { login }"):
		fmt.Fprintf(w, `{"data": {"viewer": {"login": %q}}}`, f.login)

	case strings.Contains(payload.Query, "starredRepositories"):
		nodes := []map[string]string{}
		edges := []map[string]string{}
		for _, star := range f.stars {
			nodes = append(nodes, map[string]string{"nameWithOwner": star.nameWithOwner})
			edges = append(edges, map[string]string{"starredAt": star.starredAt.Format(time.RFC3339)})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"viewer": map[string]interface{}{
					"starredRepositories": map[string]interface{}{
						"nodes":    nodes,
						"edges":    edges,
						"pageInfo": map[string]interface{}{"endCursor": "", "hasNextPage": false},
					},
				},
			},
		})

	case strings.Contains(payload.Query, "repositories(first:"):
		// User không sở hữu repository nào trong các kịch bản test
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"viewer": map[string]interface{}{
					"repositories": map[string]interface{}{
						"nodes":    []interface{}{},
						"pageInfo": map[string]interface{}{"endCursor": "", "hasNextPage": false},
					},
				},
			},
		})

	default:
		http.Error(w, `{"message": "unexpected query"}`, http.StatusBadRequest)
	}
}

func (f *githubFixture) serveRest(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/repos/")

	if strings.HasSuffix(name, "/languages") {
		name = strings.TrimSuffix(name, "/languages")
		repo, ok := f.repos[name]
		if !ok {
			http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
			return
		}
		langs := map[string]int64{}
		if repo.language != "" {
			langs[repo.language] = 1000
		}
		json.NewEncoder(w).Encode(langs)
		return
	}

	repo, ok := f.repos[name]
	if !ok {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":               1,
		"full_name":        name,
		"stargazers_count": repo.stargazers,
		"language":         repo.language,
		"description":      repo.description,
		"topics":           repo.topics,
		"updated_at":       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	})
}

func newTestSyncer(t *testing.T, githubUrl string, gorseUrl string, users *fakeCheckpointStore) *Syncer {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.GraphqlUrl = githubUrl + "/graphql"
	config.GithubApi.ApiUrl = githubUrl
	config.GithubApi.RequestsPerSecond = 1000
	config.Gorse.Address = gorseUrl

	logger, _ := log.NewCslLogger()
	gorse, err := gorseapi.NewCaller(logger, config)
	require.NoError(t, err)

	s, err := NewSyncer(logger, config, gorse, users)
	require.NoError(t, err)
	return s
}

func TestSyncUserFirstRun(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	github := &githubFixture{
		login: "Alice",
		stars: []starEntry{
			{"Octo/Proj", base.Add(2 * time.Hour)},
			{"Acme/Tiny", base.Add(1 * time.Hour)},
		},
		repos: map[string]repoEntry{
			"octo/proj": {stargazers: 500, language: "Go", description: "A project sync tool", topics: []string{"sync"}},
			"acme/tiny": {stargazers: 5},
		},
	}
	githubServer := github.server(t)
	defer githubServer.Close()

	gorse := newFakeGorse()
	gorseServer := gorse.server()
	defer gorseServer.Close()

	users := newFakeCheckpointStore(model.User{Login: "alice", AccessToken: "good-token"})
	s := newTestSyncer(t, githubServer.URL, gorseServer.URL, users)

	before := time.Now()
	err := s.SyncUser(context.Background(), model.User{Login: "alice", AccessToken: "good-token"})
	require.NoError(t, err)

	// Chỉ repository đạt ngưỡng star mới có bản ghi catalog
	assert.Equal(t, 1, gorse.itemCount())
	item := gorse.items["octo:proj"]
	assert.Equal(t, "octo:proj", item.ItemId)
	assert.ElementsMatch(t, []string{"sync", "go"}, item.Labels)

	// Feedback được ghi cho mọi edge, kể cả repository dưới ngưỡng
	assert.Equal(t, 2, gorse.feedbackCount())
	for _, feedback := range gorse.feedbacks {
		assert.Equal(t, "star", feedback.FeedbackType)
		assert.Equal(t, "alice", feedback.UserId)
	}

	// Checkpoint chỉ tiến sau khi cả hai lần ghi thành công
	checkpoint := users.checkpoint("alice")
	require.NotNil(t, checkpoint)
	assert.False(t, checkpoint.Before(before))

	stats := s.GetStats()
	assert.Equal(t, int32(1), stats.UsersSynced)
	assert.Equal(t, int32(1), stats.ItemsInserted)
	assert.Equal(t, int32(2), stats.FeedbackInserted)
}

func TestSyncUserIsIdempotent(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	github := &githubFixture{
		login: "Alice",
		stars: []starEntry{{"Octo/Proj", base}},
		repos: map[string]repoEntry{
			"octo/proj": {stargazers: 500, language: "Go"},
		},
	}
	githubServer := github.server(t)
	defer githubServer.Close()

	gorse := newFakeGorse()
	gorseServer := gorse.server()
	defer gorseServer.Close()

	users := newFakeCheckpointStore(model.User{Login: "alice", AccessToken: "good-token"})
	s := newTestSyncer(t, githubServer.URL, gorseServer.URL, users)

	user := model.User{Login: "alice", AccessToken: "good-token"}
	require.NoError(t, s.SyncUser(context.Background(), user))
	require.NoError(t, s.SyncUser(context.Background(), user))

	// Lần hai thấy item đã tồn tại và bỏ qua
	assert.Equal(t, 1, gorse.itemCount())
	stats := s.GetStats()
	assert.Equal(t, int32(2), stats.UsersSynced)
	assert.Equal(t, int32(1), stats.ItemsInserted)
}

func TestSyncUserBadCredentialsDeactivates(t *testing.T) {
	github := &githubFixture{
		login:     "Alice",
		badTokens: map[string]bool{"revoked-token": true},
	}
	githubServer := github.server(t)
	defer githubServer.Close()

	gorse := newFakeGorse()
	gorseServer := gorse.server()
	defer gorseServer.Close()

	users := newFakeCheckpointStore(model.User{Login: "alice", AccessToken: "revoked-token"})
	s := newTestSyncer(t, githubServer.URL, gorseServer.URL, users)

	err := s.SyncUser(context.Background(), model.User{Login: "alice", AccessToken: "revoked-token"})
	require.Error(t, err)

	assert.Equal(t, []string{"alice"}, users.deactivated)
	assert.Equal(t, int32(1), s.GetStats().UsersFailed)
}

func TestSyncUserSkipsRemovedRepo(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	github := &githubFixture{
		login: "Alice",
		stars: []starEntry{
			{"Octo/Proj", base.Add(2 * time.Hour)},
			{"Gone/Repo", base.Add(1 * time.Hour)},
		},
		repos: map[string]repoEntry{
			"octo/proj": {stargazers: 500, language: "Go"},
			// gone/repo không tồn tại nữa
		},
	}
	githubServer := github.server(t)
	defer githubServer.Close()

	gorse := newFakeGorse()
	gorseServer := gorse.server()
	defer gorseServer.Close()

	users := newFakeCheckpointStore(model.User{Login: "alice", AccessToken: "good-token"})
	s := newTestSyncer(t, githubServer.URL, gorseServer.URL, users)

	require.NoError(t, s.SyncUser(context.Background(), model.User{Login: "alice", AccessToken: "good-token"}))

	// Item đã xóa bị bỏ qua nhưng không làm hỏng lần chạy,
	// feedback của nó vẫn được giữ
	assert.Equal(t, 1, gorse.itemCount())
	assert.Equal(t, 2, gorse.feedbackCount())
	require.NotNil(t, users.checkpoint("alice"))
}

func TestSyncUserRespectsItemBudget(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	github := &githubFixture{
		login: "Alice",
		repos: map[string]repoEntry{},
	}
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("Acme/Repo%d", i)
		github.stars = append(github.stars, starEntry{name, base.Add(time.Duration(10-i) * time.Hour)})
		github.repos[strings.ToLower(name)] = repoEntry{stargazers: 500, language: "Go"}
	}
	githubServer := github.server(t)
	defer githubServer.Close()

	gorse := newFakeGorse()
	gorseServer := gorse.server()
	defer gorseServer.Close()

	users := newFakeCheckpointStore(model.User{Login: "alice", AccessToken: "good-token"})
	s := newTestSyncer(t, githubServer.URL, gorseServer.URL, users)
	s.Config.Syncer.MaxItemsPerRun = 3

	require.NoError(t, s.SyncUser(context.Background(), model.User{Login: "alice", AccessToken: "good-token"}))

	// Chỉ 3 item cũ nhất được xử lý trong lần chạy này
	assert.Equal(t, 3, gorse.itemCount())
	assert.Contains(t, gorse.items, "acme:repo9")
	assert.Contains(t, gorse.items, "acme:repo8")
	assert.Contains(t, gorse.items, "acme:repo7")

	// Mọi feedback vẫn được ghi đầy đủ
	assert.Equal(t, 10, gorse.feedbackCount())
}

func TestSyncAllProcessesStaleUsers(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	github := &githubFixture{
		login: "Alice",
		stars: []starEntry{{"Octo/Proj", base}},
		repos: map[string]repoEntry{
			"octo/proj": {stargazers: 500, language: "Go"},
		},
	}
	githubServer := github.server(t)
	defer githubServer.Close()

	gorse := newFakeGorse()
	gorseServer := gorse.server()
	defer gorseServer.Close()

	fresh := time.Now()
	users := newFakeCheckpointStore(
		model.User{Login: "alice", AccessToken: "good-token"},
		model.User{Login: "bob", AccessToken: "good-token", PulledAt: &fresh},
	)
	s := newTestSyncer(t, githubServer.URL, gorseServer.URL, users)

	require.NoError(t, s.SyncAll(context.Background()))

	// bob mới đồng bộ gần đây nên không được lập lịch
	assert.Equal(t, int32(1), s.GetStats().UsersSynced)
	require.NotNil(t, users.checkpoint("alice"))
	assert.Equal(t, fresh, *users.checkpoint("bob"))
}
