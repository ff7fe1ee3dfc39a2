// Gói gorseapi cung cấp một caller cho Gorse recommendation store.
// Mọi request đều mang X-API-Key, phản hồi khác 2xx ngoài 404 trở thành
// lỗi có kiểu mang theo status code và message.

package gorseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/internal/limiter"
	"github.com/thep200/star-syncer/pkg/log"
)

type Caller struct {
	Logger log.Logger
	Config *cfg.Config
	client *http.Client
}

func NewCaller(logger log.Logger, config *cfg.Config) (*Caller, error) {
	return &Caller{
		Logger: logger,
		Config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Error là lỗi từ Gorse store
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gorse: %d %s", e.StatusCode, e.Message)
}

func (e *Error) Kind() limiter.Kind {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return limiter.KindNotFound
	case e.StatusCode >= 500:
		return limiter.KindTransient
	default:
		return limiter.KindFatal
	}
}

// IsNotFound kiểm tra lỗi 404 từ store, caller dùng nó như tín hiệu
// "item chưa tồn tại" chứ không phải thất bại
func IsNotFound(err error) bool {
	var gorseErr *Error
	return errors.As(err, &gorseErr) && gorseErr.StatusCode == http.StatusNotFound
}

func (c *Caller) call(ctx context.Context, method string, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Config.Gorse.Address+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.Gorse.ApiKey != "" {
		req.Header.Set("X-API-Key", c.Config.Gorse.ApiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(respBody)),
		}
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// GetItem trả về item theo id, lỗi 404 nếu chưa tồn tại
func (c *Caller) GetItem(ctx context.Context, itemId string) (*Item, error) {
	item := &Item{}
	if err := c.call(ctx, http.MethodGet, "/api/item/"+url.PathEscape(itemId), nil, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Caller) InsertItem(ctx context.Context, item Item) error {
	return c.call(ctx, http.MethodPost, "/api/item", item, nil)
}

func (c *Caller) UpdateItem(ctx context.Context, itemId string, patch ItemPatch) error {
	return c.call(ctx, http.MethodPatch, "/api/item/"+url.PathEscape(itemId), patch, nil)
}

func (c *Caller) DeleteItem(ctx context.Context, itemId string) error {
	return c.call(ctx, http.MethodDelete, "/api/item/"+url.PathEscape(itemId), nil, nil)
}

// InsertItems ghi một lô item vào store
func (c *Caller) InsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	return c.call(ctx, http.MethodPost, "/api/items", items, nil)
}

// InsertFeedbacks ghi một lô feedback, store tự khử trùng lặp theo
// (type, user, item)
func (c *Caller) InsertFeedbacks(ctx context.Context, feedbacks []Feedback) error {
	if len(feedbacks) == 0 {
		return nil
	}
	return c.call(ctx, http.MethodPost, "/api/feedback", feedbacks, nil)
}

func (c *Caller) InsertUser(ctx context.Context, user User) error {
	return c.call(ctx, http.MethodPost, "/api/user", user, nil)
}

// GetItems lấy một trang item để dựng lại vocabulary, cursor rỗng
// nghĩa là đã hết dữ liệu
func (c *Caller) GetItems(ctx context.Context, n int, cursor string) ([]Item, string, error) {
	path := "/api/items?n=" + strconv.Itoa(n)
	if cursor != "" {
		path += "&cursor=" + url.QueryEscape(cursor)
	}

	page := &itemsPageResponse{}
	if err := c.call(ctx, http.MethodGet, path, nil, page); err != nil {
		return nil, "", err
	}
	return page.Items, page.Cursor, nil
}
