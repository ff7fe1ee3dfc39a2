// Gói syncer điều phối một lần đồng bộ đầy đủ cho một user:
// crawl các edge star mới hơn checkpoint, làm giàu các item chưa index,
// ghi item và feedback vào recommendation store rồi mới tiến checkpoint.
// Checkpoint chỉ tiến khi cả hai lần ghi thành công, vì vậy một lần chạy
// thất bại sẽ được quan sát lại an toàn ở lần sau.

package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/internal/crawler"
	"github.com/thep200/star-syncer/internal/enricher"
	githubapi "github.com/thep200/star-syncer/internal/github_api"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/labeler"
	"github.com/thep200/star-syncer/internal/limiter"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/pkg/log"
)

// CheckpointStore là kho identity và checkpoint của chúng,
// *model.User là hiện thực trên MySQL
type CheckpointStore interface {
	FindStale(staleAfter time.Duration) ([]model.User, error)
	AdvanceCheckpoint(login string, pulledAt time.Time) error
	Deactivate(login string) error
}

type Syncer struct {
	Logger log.Logger
	Config *cfg.Config
	Gorse  *gorseapi.Caller
	Users  CheckpointStore

	labelerMu sync.RWMutex
	labeler   *labeler.Labeler

	// Counters
	usersSynced      int32
	usersFailed      int32
	itemsInserted    int32
	feedbackInserted int32
}

func NewSyncer(logger log.Logger, config *cfg.Config, gorse *gorseapi.Caller, users CheckpointStore) (*Syncer, error) {
	return &Syncer{
		Logger: logger,
		Config: config,
		Gorse:  gorse,
		Users:  users,
	}, nil
}

func (s *Syncer) newBackoff() *limiter.Backoff {
	return limiter.NewBackoff(time.Second, time.Duration(s.Config.GithubApi.RateLimitResetMin)*time.Minute, 2)
}

// RefreshVocabulary dựng lại snapshot vocabulary từ catalog hiện tại.
// Gọi một lần trước mỗi batch job, snapshot bất biến trong suốt batch.
func (s *Syncer) RefreshVocabulary(ctx context.Context) error {
	vocab, err := labeler.NewVocabulary(ctx, s.Gorse, s.Config.Gorse.ItemPageSize, s.Config.Syncer.MinTopicFreq, labeler.DefaultBlocklist())
	if err != nil {
		return err
	}

	lb, err := labeler.NewLabeler(vocab)
	if err != nil {
		return err
	}

	s.labelerMu.Lock()
	s.labeler = lb
	s.labelerMu.Unlock()

	s.Logger.Info(ctx, "Vocabulary refreshed with %d topics", vocab.Len())
	return nil
}

func (s *Syncer) currentLabeler() *labeler.Labeler {
	s.labelerMu.RLock()
	defer s.labelerMu.RUnlock()
	return s.labeler
}

// seedUserLabels thu thập topic và ngôn ngữ chính từ các repository của
// user để seed tín hiệu cold-start. Thất bại ở đây không làm hỏng lần chạy.
func (s *Syncer) seedUserLabels(ctx context.Context, github *githubapi.Caller, login string) {
	repos, err := github.GetViewerRepos(ctx)
	if err != nil {
		s.Logger.Warn(ctx, "Cannot fetch repositories of user %s for label seeding: %v", login, err)
		return
	}

	topicSet := map[string]bool{}
	for _, repo := range repos {
		for _, node := range repo.RepositoryTopics.Nodes {
			topicSet[node.Topic.Name] = true
		}
		if repo.PrimaryLanguage != nil && repo.PrimaryLanguage.Name != "" {
			topicSet[strings.ToLower(repo.PrimaryLanguage.Name)] = true
		}
	}

	topics := make([]string, 0, len(topicSet))
	for topic := range topicSet {
		topics = append(topics, topic)
	}

	if err := s.Gorse.InsertUser(ctx, gorseapi.User{UserId: login, Labels: topics}); err != nil {
		s.Logger.Warn(ctx, "Cannot insert user %s into store: %v", login, err)
		return
	}
	s.Logger.Info(ctx, "Inserted user %s with %d labels", login, len(topics))
}

// SyncUser chạy một lần đồng bộ cho một user.
// Trạng thái: Start -> FetchingEdges -> Enriching -> Committing -> Done,
// token hỏng ở bất kỳ bước nào đều vô hiệu hóa user và kết thúc sớm.
func (s *Syncer) SyncUser(ctx context.Context, user model.User) error {
	// Consumer có thể gọi thẳng SyncUser mà chưa qua SyncAll
	if s.currentLabeler() == nil {
		if err := s.RefreshVocabulary(ctx); err != nil {
			return err
		}
	}

	github, err := githubapi.NewCaller(s.Logger, s.Config, user.AccessToken)
	if err != nil {
		return err
	}

	controller, err := limiter.NewController(s.Logger, s.newBackoff())
	if err != nil {
		return err
	}

	starCrawler, err := crawler.NewStarCrawler(s.Logger, s.Config, github, controller)
	if err != nil {
		return err
	}

	// FetchingEdges
	login, stars, err := starCrawler.Crawl(ctx, user.PulledAt)
	if err != nil {
		if limiter.Classify(err) == limiter.KindAuthInvalid {
			s.Users.Deactivate(user.Login)
		}
		atomic.AddInt32(&s.usersFailed, 1)
		s.Logger.Error(ctx, "Failed to crawl stars of user %s: %v", user.Login, err)
		return err
	}
	if login == "" {
		login = user.Login
	}

	// Seed nhãn cho user trước khi xử lý item
	s.seedUserLabels(ctx, github, login)

	itemEnricher, err := enricher.NewEnricher(s.Logger, s.Config, github, s.currentLabeler())
	if err != nil {
		return err
	}

	// Enriching: xử lý theo thứ tự cũ nhất trước, giới hạn số item mỗi
	// lần chạy để kiểm soát chi phí API
	staged := []gorseapi.Item{}
	pullCount := 0
	for i := len(stars) - 1; i >= 0; i-- {
		if pullCount >= s.Config.Syncer.MaxItemsPerRun {
			break
		}

		feedback := stars[i]

		// Item đã index thì bỏ qua, 404 nghĩa là chưa tồn tại
		var existing *gorseapi.Item
		getErr := controller.Do(ctx, "store get item", func() error {
			var err error
			existing, err = s.Gorse.GetItem(ctx, feedback.ItemId)
			return err
		})
		if getErr == nil && existing != nil {
			continue
		}
		if getErr != nil && !gorseapi.IsNotFound(getErr) {
			s.Logger.Error(ctx, "Cannot check item %s in store: %v", feedback.ItemId, getErr)
			continue
		}

		pullCount++
		item, enrichErr := itemEnricher.Enrich(ctx, feedback.ItemId)
		if enrichErr != nil {
			if errors.Is(enrichErr, enricher.ErrItemRemoved) {
				s.Logger.Notice(ctx, "Item %s was removed or renamed, skipping", feedback.ItemId)
				continue
			}
			if limiter.Classify(enrichErr) == limiter.KindAuthInvalid {
				s.Users.Deactivate(user.Login)
				atomic.AddInt32(&s.usersFailed, 1)
				return enrichErr
			}
			// Một item hỏng không được phép làm hỏng cả lần chạy
			s.Logger.Error(ctx, "Failed to enrich item %s: %v", feedback.ItemId, enrichErr)
			continue
		}
		if item == nil {
			// Dưới ngưỡng star, edge vẫn được ghi làm feedback
			continue
		}
		staged = append(staged, *item)
	}

	// Committing: item trước, feedback sau, checkpoint cuối cùng
	if err := s.Gorse.InsertItems(ctx, staged); err != nil {
		atomic.AddInt32(&s.usersFailed, 1)
		s.Logger.Error(ctx, "Failed to insert %d items for user %s: %v", len(staged), login, err)
		return err
	}
	atomic.AddInt32(&s.itemsInserted, int32(len(staged)))

	if err := s.Gorse.InsertFeedbacks(ctx, stars); err != nil {
		atomic.AddInt32(&s.usersFailed, 1)
		s.Logger.Error(ctx, "Failed to insert %d feedback for user %s: %v", len(stars), login, err)
		return err
	}
	atomic.AddInt32(&s.feedbackInserted, int32(len(stars)))

	if err := s.Users.AdvanceCheckpoint(user.Login, time.Now()); err != nil {
		s.Logger.Error(ctx, "Failed to advance checkpoint of user %s: %v", user.Login, err)
		return err
	}

	atomic.AddInt32(&s.usersSynced, 1)
	s.Logger.Info(ctx, "Synced user %s: %d items inserted, %d feedback inserted", login, len(staged), len(stars))
	return nil
}

// SyncAll đồng bộ mọi user có checkpoint quá hạn, chạy song song với
// worker pool kích thước cố định. Crawl của từng user vẫn tuần tự vì
// cursor phân trang phụ thuộc nhau.
func (s *Syncer) SyncAll(ctx context.Context) error {
	if err := s.RefreshVocabulary(ctx); err != nil {
		return err
	}

	staleAfter := time.Duration(s.Config.Syncer.StaleAfterHours) * time.Hour
	users, err := s.Users.FindStale(staleAfter)
	if err != nil {
		return err
	}
	s.Logger.Info(ctx, "Found %d users due for sync", len(users))

	workers := make(chan struct{}, s.Config.Syncer.Workers)
	var wg sync.WaitGroup

	for _, user := range users {
		workers <- struct{}{}
		wg.Add(1)
		go func(u model.User) {
			defer wg.Done()
			defer func() { <-workers }()

			defer func() {
				if r := recover(); r != nil {
					s.Logger.Error(ctx, "Panic while syncing user %s: %v", u.Login, r)
				}
			}()

			// Lỗi của một user không dừng các user khác
			s.SyncUser(ctx, u)
		}(user)
	}

	wg.Wait()
	return nil
}

// Stats là ảnh chụp bộ đếm của các lần đồng bộ từ khi process khởi động
type Stats struct {
	UsersSynced      int32 `json:"users_synced"`
	UsersFailed      int32 `json:"users_failed"`
	ItemsInserted    int32 `json:"items_inserted"`
	FeedbackInserted int32 `json:"feedback_inserted"`
}

func (s *Syncer) GetStats() Stats {
	return Stats{
		UsersSynced:      atomic.LoadInt32(&s.usersSynced),
		UsersFailed:      atomic.LoadInt32(&s.usersFailed),
		ItemsInserted:    atomic.LoadInt32(&s.itemsInserted),
		FeedbackInserted: atomic.LoadInt32(&s.feedbackInserted),
	}
}
