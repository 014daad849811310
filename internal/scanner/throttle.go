package scanner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// Throttler slows traversal down while the host is under pressure. A
// background goroutine samples CPU and memory usage on a fixed interval;
// Wait pauses callers while the latest sample is above either ceiling.
type Throttler struct {
	maxCPUPercent    float64
	maxMemoryPercent float64
	interval         time.Duration
	pause            time.Duration

	throttled atomic.Bool
	cancel    context.CancelFunc
	log       hclog.Logger
}

// NewThrottler starts a throttler with the given usage ceilings in percent.
// A ceiling of 0 disables that check; nil is returned when both are 0.
func NewThrottler(maxCPUPercent, maxMemoryPercent float64) *Throttler {
	if maxCPUPercent <= 0 && maxMemoryPercent <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Throttler{
		maxCPUPercent:    maxCPUPercent,
		maxMemoryPercent: maxMemoryPercent,
		interval:         5 * time.Second,
		pause:            500 * time.Millisecond,
		cancel:           cancel,
		log:              logger.Named("throttler"),
	}
	go t.monitor(ctx)
	return t
}

func (t *Throttler) monitor(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sample(ctx)
		}
	}
}

func (t *Throttler) sample(ctx context.Context) {
	var cpuBusy, memBusy bool
	var cpuPct, memPct float64

	if t.maxCPUPercent > 0 {
		if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
			cpuPct = percents[0]
			cpuBusy = cpuPct > t.maxCPUPercent
		}
	}
	if t.maxMemoryPercent > 0 {
		if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
			memPct = vm.UsedPercent
			memBusy = memPct > t.maxMemoryPercent
		}
	}

	busy := cpuBusy || memBusy
	if t.throttled.Swap(busy) != busy {
		if busy {
			t.log.Info("throttling scan, host under pressure", "cpu_percent", cpuPct, "memory_percent", memPct)
		} else {
			t.log.Info("resuming scan at full speed")
		}
	}
}

// Wait blocks while the throttler is engaged or until ctx ends.
func (t *Throttler) Wait(ctx context.Context) {
	for t.throttled.Load() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.pause):
		}
	}
}

// Stop shuts down the sampling goroutine.
func (t *Throttler) Stop() {
	t.cancel()
}
