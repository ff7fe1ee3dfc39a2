// Logger đẩy log lên Grafana Loki thông qua push API.
// Mỗi dòng log được gửi kèm nhãn job và level để truy vấn trên Grafana.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type LokiLogger struct {
	PushUrl  string
	Job      string
	fallback Logger
	client   *http.Client
}

// NewLokiLogger tạo logger gửi log tới Loki, đồng thời ghi ra console
func NewLokiLogger(pushUrl string, job string) (*LokiLogger, error) {
	csl, err := NewCslLogger()
	if err != nil {
		return nil, err
	}
	return &LokiLogger{
		PushUrl:  pushUrl,
		Job:      job,
		fallback: csl,
		client:   &http.Client{Timeout: 5 * time.Second},
	}, nil
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type lokiPayload struct {
	Streams []lokiStream `json:"streams"`
}

func (l *LokiLogger) push(level string, line string) {
	payload := lokiPayload{
		Streams: []lokiStream{
			{
				Stream: map[string]string{"job": l.Job, "level": level},
				Values: [][2]string{
					{strconv.FormatInt(time.Now().UnixNano(), 10), line},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, l.PushUrl, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	// Lỗi đẩy log không được phép ảnh hưởng tới pipeline
	resp, err := l.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (l *LokiLogger) log(ctx context.Context, level string, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	l.push(level, line)
}

func (l *LokiLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Info(ctx, format, args...)
	l.log(ctx, "info", format, args...)
}

func (l *LokiLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Alert(ctx, format, args...)
	l.log(ctx, "alert", format, args...)
}

func (l *LokiLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Error(ctx, format, args...)
	l.log(ctx, "error", format, args...)
}

func (l *LokiLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Warn(ctx, format, args...)
	l.log(ctx, "warn", format, args...)
}

func (l *LokiLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Debug(ctx, format, args...)
	l.log(ctx, "debug", format, args...)
}

func (l *LokiLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Notice(ctx, format, args...)
	l.log(ctx, "notice", format, args...)
}

func (l *LokiLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Critical(ctx, format, args...)
	l.log(ctx, "critical", format, args...)
}

func (l *LokiLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.fallback.Emergency(ctx, format, args...)
	l.log(ctx, "emergency", format, args...)
}
