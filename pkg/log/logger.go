package log

import (
	"context"

	"github.com/thep200/star-syncer/cfg"
)

type Logger interface {
	Info(ctx context.Context, format string, args ...interface{})
	Alert(ctx context.Context, format string, args ...interface{})
	Error(ctx context.Context, format string, args ...interface{})
	Warn(ctx context.Context, format string, args ...interface{})
	Debug(ctx context.Context, format string, args ...interface{})
	Notice(ctx context.Context, format string, args ...interface{})
	Critical(ctx context.Context, format string, args ...interface{})
	Emergency(ctx context.Context, format string, args ...interface{})
}

// NewLogger chọn logger theo cấu hình: đẩy log lên Loki khi có push url,
// ngược lại chỉ ghi ra console
func NewLogger(config *cfg.Config) (Logger, error) {
	if config.Loki.PushUrl != "" {
		return NewLokiLogger(config.Loki.PushUrl, config.App.Name)
	}
	return NewCslLogger()
}
