// Phân loại lỗi từ các API bên ngoài thành các nhóm để quyết định retry.
// Lỗi có thể tự khai báo nhóm qua interface Kinder, nếu không sẽ
// được đoán dựa trên nội dung thông báo lỗi.

package limiter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thep200/star-syncer/pkg/log"
)

type Kind int

const (
	KindSuccess Kind = iota
	KindRateLimited
	KindAuthInvalid
	KindNotFound
	KindTransient
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthInvalid:
		return "auth_invalid"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Kinder cho phép một lỗi tự khai báo nhóm của nó
type Kinder interface {
	Kind() Kind
}

// RetryHinter cho phép lỗi rate limit mang theo gợi ý thời gian chờ
type RetryHinter interface {
	RetryAfter() time.Duration
}

func Classify(err error) Kind {
	if err == nil {
		return KindSuccess
	}

	var kinder Kinder
	if errors.As(err, &kinder) {
		return kinder.Kind()
	}

	s := strings.ToLower(err.Error())

	if strings.Contains(s, "401") || strings.Contains(s, "bad credentials") {
		return KindAuthInvalid
	}
	if strings.Contains(s, "429") || strings.Contains(s, "rate limit") ||
		strings.Contains(s, "403") || strings.Contains(s, "abuse") {
		return KindRateLimited
	}
	if strings.Contains(s, "404") || strings.Contains(s, "not found") || strings.Contains(s, "451") {
		return KindNotFound
	}
	if strings.Contains(s, "timeout") || strings.Contains(s, "connection reset") ||
		strings.Contains(s, "connection refused") || strings.Contains(s, "temporary") ||
		strings.Contains(s, "eof") || strings.Contains(s, "500") ||
		strings.Contains(s, "502") || strings.Contains(s, "503") {
		return KindTransient
	}

	return KindFatal
}

// RetryAfterHint lấy gợi ý thời gian chờ từ lỗi nếu có, ngược lại trả về 0
func RetryAfterHint(err error) time.Duration {
	var hinter RetryHinter
	if errors.As(err, &hinter) {
		return hinter.RetryAfter()
	}
	return 0
}

// Controller bọc các lời gọi API bên ngoài: retry không giới hạn với lỗi
// rate limit và lỗi mạng tạm thời, các lỗi còn lại trả về ngay cho caller.
// NotFound cũng trả về ngay vì nó là một giá trị, không phải thất bại.
type Controller struct {
	Logger  log.Logger
	Backoff *Backoff
}

func NewController(logger log.Logger, backoff *Backoff) (*Controller, error) {
	return &Controller{
		Logger:  logger,
		Backoff: backoff,
	}, nil
}

func (c *Controller) Do(ctx context.Context, name string, op func() error) error {
	attempt := 0
	for {
		err := op()
		kind := Classify(err)

		switch kind {
		case KindSuccess:
			return nil
		case KindRateLimited:
			attempt++
			wait := RetryAfterHint(err)
			if wait <= 0 {
				wait = c.Backoff.Delay(attempt)
			}
			c.Logger.Warn(ctx, "%s hit rate limit, waiting %v before retry (attempt %d): %v", name, wait, attempt, err)
			c.Backoff.SleepFor(wait)
		case KindTransient:
			attempt++
			wait := c.Backoff.Delay(attempt)
			c.Logger.Warn(ctx, "%s transient failure, waiting %v before retry (attempt %d): %v", name, wait, attempt, err)
			c.Backoff.SleepFor(wait)
		default:
			// AuthInvalid, NotFound, Fatal
			return err
		}
	}
}
