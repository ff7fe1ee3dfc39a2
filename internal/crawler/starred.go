// Crawler danh sách repository đã star của một user.
// Các edge được lấy theo thứ tự thời gian star giảm dần và bị chặn bởi
// checkpoint của lần đồng bộ trước: khi edge cũ nhất đã thấy cũ hơn
// checkpoint thì dừng phân trang. Đây là ranh giới xấp xỉ phía client,
// lần chạy sau có thể thấy lại vài edge quanh ranh giới và bước dedup
// của orchestrator sẽ xử lý.

package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/thep200/star-syncer/cfg"
	githubapi "github.com/thep200/star-syncer/internal/github_api"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/limiter"
	"github.com/thep200/star-syncer/pkg/log"
)

type StarCrawler struct {
	Logger      log.Logger
	Config      *cfg.Config
	Github      *githubapi.Caller
	Controller  *limiter.Controller
	rateLimiter *limiter.RateLimiter
}

func NewStarCrawler(logger log.Logger, config *cfg.Config, github *githubapi.Caller, controller *limiter.Controller) (*StarCrawler, error) {
	return &StarCrawler{
		Logger:      logger,
		Config:      config,
		Github:      github,
		Controller:  controller,
		rateLimiter: limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
	}, nil
}

// NormalizeItemId chuyển owner/name thành slug owner:name viết thường
func NormalizeItemId(nameWithOwner string) string {
	return strings.ToLower(strings.ReplaceAll(nameWithOwner, "/", ":"))
}

func (c *StarCrawler) throttle() {
	for !c.rateLimiter.Allow() {
		time.Sleep(time.Duration(c.Config.GithubApi.ThrottleDelay) * time.Millisecond)
	}
}

// Crawl trả về login của user và các edge star mới hơn checkpoint,
// thứ tự mới nhất trước. Khi lỗi giữa chừng, phần edge đã tích lũy vẫn
// được trả về cùng lỗi để caller tự quyết định.
func (c *StarCrawler) Crawl(ctx context.Context, checkpoint *time.Time) (string, []gorseapi.Feedback, error) {
	var login string
	err := c.Controller.Do(ctx, "viewer login", func() error {
		c.throttle()
		var err error
		login, err = c.Github.GetViewerLogin(ctx)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	login = strings.ToLower(login)

	stars := []gorseapi.Feedback{}
	cursor := ""
	hasNextPage := true
	pages := 0

	for hasNextPage {
		var page *githubapi.StarredPage
		err := c.Controller.Do(ctx, "starred page", func() error {
			c.throttle()
			var err error
			page, err = c.Github.GetStarredPage(ctx, cursor)
			return err
		})
		if err != nil {
			return login, stars, err
		}
		pages++

		// nodes và edges phải đi theo cặp, phản hồi lệch là dữ liệu hỏng
		count := len(page.Nodes)
		if len(page.Edges) < count {
			c.Logger.Warn(ctx, "Starred page has %d nodes but %d edges, truncating", len(page.Nodes), len(page.Edges))
			count = len(page.Edges)
		}

		for i := 0; i < count; i++ {
			stars = append(stars, gorseapi.Feedback{
				FeedbackType: "star",
				UserId:       login,
				ItemId:       NormalizeItemId(page.Nodes[i].NameWithOwner),
				Timestamp:    page.Edges[i].StarredAt.Format(time.RFC3339),
			})
		}

		cursor = page.PageInfo.EndCursor
		hasNextPage = page.PageInfo.HasNextPage

		// Ranh giới checkpoint: edge cũ nhất đã thấy nằm hẳn trước
		// checkpoint thì không cần lật thêm trang
		if checkpoint != nil && count > 0 {
			oldest := page.Edges[count-1].StarredAt
			if oldest.Before(*checkpoint) {
				break
			}
		}
	}

	c.Logger.Info(ctx, "Crawled %d star edges for user %s in %d pages", len(stars), login, pages)
	return login, stars, nil
}
