package limiter

import (
	"math"
	"time"
)

// Backoff tính thời gian chờ giữa các lần retry.
// Factor = 1 cho delay cố định, > 1 cho delay lũy tiến có trần MaxDelay.
// Sleep có thể thay thế trong test để không phải chờ thật.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64
	Sleep     func(time.Duration)
}

func NewBackoff(base, max time.Duration, factor float64) *Backoff {
	if factor < 1 {
		factor = 1
	}
	return &Backoff{
		BaseDelay: base,
		MaxDelay:  max,
		Factor:    factor,
		Sleep:     time.Sleep,
	}
}

// Delay trả về thời gian chờ cho lần retry thứ attempt (bắt đầu từ 1)
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(b.BaseDelay) * math.Pow(b.Factor, float64(attempt-1)))
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	return d
}

func (b *Backoff) SleepFor(d time.Duration) {
	sleep := b.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}

// Wait chờ theo delay của lần retry thứ attempt
func (b *Backoff) Wait(attempt int) {
	b.SleepFor(b.Delay(attempt))
}
