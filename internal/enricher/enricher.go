// Gói enricher dựng bản ghi catalog chuẩn hóa cho một repository.
// Chỉ các repository đạt ngưỡng phổ biến mới được index, các repository
// còn lại vẫn giữ được tín hiệu feedback nhưng không có bản ghi catalog.

package enricher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thep200/star-syncer/cfg"
	githubapi "github.com/thep200/star-syncer/internal/github_api"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/labeler"
	"github.com/thep200/star-syncer/internal/limiter"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/pkg/log"
)

// ErrItemRemoved báo hiệu repository đã bị xóa hoặc đổi tên, các job dọn
// dẹp dùng tín hiệu này để loại bản ghi cũ khỏi catalog
var ErrItemRemoved = errors.New("item removed or renamed")

type Enricher struct {
	Logger  log.Logger
	Config  *cfg.Config
	Github  *githubapi.Caller
	Labeler *labeler.Labeler
}

func NewEnricher(logger log.Logger, config *cfg.Config, github *githubapi.Caller, lb *labeler.Labeler) (*Enricher, error) {
	return &Enricher{
		Logger:  logger,
		Config:  config,
		Github:  github,
		Labeler: lb,
	}, nil
}

// primaryLanguage chọn ngôn ngữ có nhiều byte nhất, fallback về trường
// language của repository nếu không lấy được thống kê
func (e *Enricher) primaryLanguage(ctx context.Context, fullName string, repo *githubapi.RepoResponse) string {
	languages, err := e.Github.GetLanguages(ctx, fullName)
	if err != nil {
		e.Logger.Warn(ctx, "Cannot fetch languages for %s, falling back to primary field: %v", fullName, err)
		return strings.ToLower(repo.Language)
	}

	var best string
	var bestBytes int64
	for language, count := range languages {
		if count > bestBytes || (count == bestBytes && language < best) {
			best = language
			bestBytes = count
		}
	}
	if best == "" {
		return strings.ToLower(repo.Language)
	}
	return strings.ToLower(best)
}

// Enrich lấy metadata của item và dựng bản ghi catalog.
// Trả về (nil, nil) khi repository dưới ngưỡng star,
// ErrItemRemoved khi repository đã bị xóa hoặc âm thầm đổi tên.
func (e *Enricher) Enrich(ctx context.Context, itemId string) (*gorseapi.Item, error) {
	fullName := strings.ReplaceAll(itemId, ":", "/")

	repo, err := e.Github.GetRepo(ctx, fullName)
	if err != nil {
		if limiter.Classify(err) == limiter.KindNotFound {
			return nil, ErrItemRemoved
		}
		return nil, err
	}

	// GitHub trả về repository mới khi repo đã đổi tên, phải so sánh tên
	// trả về với tên yêu cầu để phát hiện
	if !strings.EqualFold(repo.FullName, fullName) {
		return nil, ErrItemRemoved
	}

	// Chính sách index: chỉ giữ repository đủ phổ biến
	if repo.StargazersCount < int64(e.Config.Syncer.StarThreshold) {
		return nil, nil
	}

	labels := append([]string{}, repo.Topics...)
	if language := e.primaryLanguage(ctx, fullName, repo); language != "" {
		exists := false
		for _, label := range labels {
			if label == language {
				exists = true
				break
			}
		}
		if !exists {
			labels = append(labels, language)
		}
	}

	item := gorseapi.Item{
		ItemId:     itemId,
		Timestamp:  repo.UpdatedAt.Format(time.RFC3339),
		Labels:     labels,
		Categories: labeler.GenerateCategories(labels),
		Comment:    model.TruncateString(repo.Description, e.Config.Syncer.MaxCommentLength),
	}

	if optimized := e.Labeler.Optimize(item); optimized != nil {
		item = *optimized
	}
	return &item, nil
}
