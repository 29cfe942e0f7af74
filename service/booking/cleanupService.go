package booking

import (
	"context"
	"log/slog"
	"time"
)

type Cleaner interface {
	ReleaseExpired(ctx context.Context) (int64, error)
}

type cleaner struct {
	r Repo
}

func NewCleaner(r Repo) Cleaner { return &cleaner{r: r} }

// ReleaseExpired expires PENDING bookings whose hold has lapsed so their
// stock stops counting.
func (c *cleaner) ReleaseExpired(ctx context.Context) (int64, error) {
	return c.r.ReleaseExpiredHolds(ctx, time.Now().UTC())
}

// RunCleaner calls ReleaseExpired every interval until ctx is done.
func RunCleaner(ctx context.Context, c Cleaner, interval time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.ReleaseExpired(ctx)
			if err != nil {
				log.Error("release expired holds", "err", err)
				continue
			}
			if n > 0 {
				log.Info("released expired holds", "count", n)
			}
		}
	}
}
