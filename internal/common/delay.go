package common

import (
	"context"
	"time"
)

// Wait ждёт d или отмены контекста, смотря что наступит раньше.
// При отмене возвращается ошибка контекста, чтобы прерывание обработали выше по стеку.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
