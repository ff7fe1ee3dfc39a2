// Gói githubapi cung cấp một caller cho GitHub API.
// Caller dùng GraphQL API để lấy login và danh sách repository đã star,
// dùng REST API để lấy metadata của từng repository.
// Nó xử lý xác thực bằng mã thông báo truy cập của từng user.

package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/internal/limiter"
	"github.com/thep200/star-syncer/pkg/log"
)

type Caller struct {
	Logger      log.Logger
	Config      *cfg.Config
	AccessToken string
	client      *http.Client
}

func NewCaller(logger log.Logger, config *cfg.Config, accessToken string) (*Caller, error) {
	return &Caller{
		Logger:      logger,
		Config:      config,
		AccessToken: accessToken,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ApiError là lỗi từ GitHub API, mang theo status code và gợi ý thời gian
// chờ khi bị rate limit
type ApiError struct {
	StatusCode int
	Message    string
	ResetAfter time.Duration
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("github api: %d %s", e.StatusCode, e.Message)
}

func (e *ApiError) Kind() limiter.Kind {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return limiter.KindAuthInvalid
	case e.StatusCode == http.StatusTooManyRequests:
		return limiter.KindRateLimited
	case e.StatusCode == http.StatusForbidden && e.ResetAfter > 0:
		return limiter.KindRateLimited
	case e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusUnavailableForLegalReasons:
		return limiter.KindNotFound
	case e.StatusCode >= 500:
		return limiter.KindTransient
	default:
		return limiter.KindFatal
	}
}

func (e *ApiError) RetryAfter() time.Duration {
	return e.ResetAfter
}

// rateLimitReset đọc header rate limit và trả về thời gian cần chờ.
// Nếu không xác định được thời gian reset chính xác thì dùng cấu hình mặc định.
func (c *Caller) rateLimitReset(ctx context.Context, resp *http.Response) time.Duration {
	if resp.Header.Get("X-RateLimit-Remaining") != "0" && resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}

	fallback := time.Duration(c.Config.GithubApi.RateLimitResetMin) * time.Minute
	resetTimeStr := resp.Header.Get("X-RateLimit-Reset")
	resetTimeInt, err := strconv.ParseInt(resetTimeStr, 10, 64)
	if err != nil {
		c.Logger.Warn(ctx, "Rate limit hit! Cannot parse reset header, waiting %v", fallback)
		return fallback
	}

	waitTime := time.Until(time.Unix(resetTimeInt, 0))
	if waitTime <= 0 {
		waitTime = fallback
	}
	c.Logger.Warn(ctx, "Rate limit hit! GitHub API resets in %v", waitTime.Round(time.Second))
	return waitTime
}

func (c *Caller) apiError(ctx context.Context, resp *http.Response, body []byte) *ApiError {
	return &ApiError{
		StatusCode: resp.StatusCode,
		Message:    string(bytes.TrimSpace(body)),
		ResetAfter: c.rateLimitReset(ctx, resp),
	}
}

// graphql gửi một truy vấn GraphQL và giải mã phản hồi vào out
func (c *Caller) graphql(ctx context.Context, query string, out interface{}) error {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.GithubApi.GraphqlUrl, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.AccessToken))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return c.apiError(ctx, resp, body)
	}

	// Lỗi mức GraphQL vẫn trả về status 200
	var errCheck struct {
		Errors []graphqlError `json:"errors"`
	}
	if err := json.Unmarshal(body, &errCheck); err == nil && len(errCheck.Errors) > 0 {
		return &ApiError{StatusCode: http.StatusUnprocessableEntity, Message: errCheck.Errors[0].Message}
	}

	return json.Unmarshal(body, out)
}

// GetViewerLogin trả về login của user sở hữu access token
func (c *Caller) GetViewerLogin(ctx context.Context) (string, error) {
	query := "query { viewer { login } }"
	var resp viewerLoginResponse
	if err := c.graphql(ctx, query, &resp); err != nil {
		return "", err
	}
	return resp.Data.Viewer.Login, nil
}

// GetStarredPage lấy một trang repository đã star, sắp xếp theo thời gian
// star giảm dần. Cursor rỗng nghĩa là trang đầu tiên.
func (c *Caller) GetStarredPage(ctx context.Context, cursor string) (*StarredPage, error) {
	after := ""
	if cursor != "" {
		after = fmt.Sprintf(`, after: "%s"`, cursor)
	}
	query := fmt.Sprintf(
		"query { viewer { starredRepositories(first: %d%s, orderBy: { direction: DESC, field: STARRED_AT }) { "+
			"nodes { nameWithOwner } edges { starredAt } pageInfo { endCursor hasNextPage } } } }",
		c.Config.GithubApi.StarredPageSize, after,
	)

	var resp viewerStarredResponse
	if err := c.graphql(ctx, query, &resp); err != nil {
		return nil, err
	}
	return &resp.Data.Viewer.StarredRepositories, nil
}

// GetViewerRepos lấy toàn bộ repository của user kèm topics và ngôn ngữ chính,
// dùng để seed nhãn cho user trong recommendation store
func (c *Caller) GetViewerRepos(ctx context.Context) ([]OwnRepo, error) {
	var repos []OwnRepo
	cursor := ""
	for {
		after := ""
		if cursor != "" {
			after = fmt.Sprintf(`, after: "%s"`, cursor)
		}
		query := fmt.Sprintf(
			"query { viewer { repositories(first: 100%s, ownerAffiliations: OWNER) { "+
				"nodes { nameWithOwner primaryLanguage { name } repositoryTopics(first: 20) { nodes { topic { name } } } } "+
				"pageInfo { endCursor hasNextPage } } } }",
			after,
		)

		var resp viewerReposResponse
		if err := c.graphql(ctx, query, &resp); err != nil {
			return repos, err
		}
		repos = append(repos, resp.Data.Viewer.Repositories.Nodes...)
		if !resp.Data.Viewer.Repositories.PageInfo.HasNextPage {
			return repos, nil
		}
		cursor = resp.Data.Viewer.Repositories.PageInfo.EndCursor
	}
}

// GetRepo lấy metadata của một repository qua REST API
func (c *Caller) GetRepo(ctx context.Context, fullName string) (*RepoResponse, error) {
	fullUrl := fmt.Sprintf("%s/repos/%s", c.Config.GithubApi.ApiUrl, fullName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.AccessToken))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(ctx, resp, body)
	}

	repo := &RepoResponse{}
	if err := json.Unmarshal(body, repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// GetLanguages lấy số byte theo từng ngôn ngữ của một repository
func (c *Caller) GetLanguages(ctx context.Context, fullName string) (map[string]int64, error) {
	fullUrl := fmt.Sprintf("%s/repos/%s/languages", c.Config.GithubApi.ApiUrl, fullName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.AccessToken))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(ctx, resp, body)
	}

	languages := map[string]int64{}
	if err := json.Unmarshal(body, &languages); err != nil {
		return nil, err
	}
	return languages, nil
}
