package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/contract"
)

var _ contract.Worker = (*StatsWorker)(nil)

// StatsWorker periodically logs engine counters together with the
// relay's own memory footprint.
type StatsWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    func() map[string]any
}

func NewStatsWorker(log *slog.Logger, interval time.Duration, stats func() map[string]any) *StatsWorker {
	return &StatsWorker{log: log, interval: interval, stats: stats}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats worker")
			return nil
		case <-ticker.C:
			fields := []any{}
			for k, v := range w.stats() {
				fields = append(fields, k, v)
			}
			if rss, ok := residentMemoryMb(); ok {
				fields = append(fields, "rss_mb", rss)
			}
			w.log.Info("Relay stats", fields...)
		}
	}
}

func residentMemoryMb() (uint64, bool) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, false
	}
	info, err := p.MemoryInfo()
	if err != nil || info == nil {
		return 0, false
	}
	return info.RSS / (1 << 20), true
}
