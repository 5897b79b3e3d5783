// Package gamelbc samples the load of the game process
package gamelbc

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/gwutils"
	"github.com/shirou/gopsutil/process"
)

// Load is one sample of the process load
type Load struct {
	CPUPercent float64
	RSS        uint64
	Threads    int32
}

func (l Load) String() string {
	return fmt.Sprintf("cpu %.3f%%, rss %.1fMB, %d threads", l.CPUPercent, float64(l.RSS)/1024/1024, l.Threads)
}

// Initialize reports the load of the process every collectInterval until ctx is done
func Initialize(ctx context.Context, collectInterval time.Duration, report func(load Load)) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		gwlog.Errorf("gamelbc: can not find game process: pid = %v: %v", pid, err)
		return
	}
	gwlog.Infof("gamelbc: found game process: %s", p)

	go gwutils.RepeatUntilPanicless(func() {
		ticker := time.NewTicker(collectInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			load, err := Sample(ctx, p)
			if err != nil {
				gwlog.Panicf("gamelbc: sample process load failed: %s", err)
			}
			gwlog.Debugf("gamelbc: %s", load)
			report(load)
		}
	})
}

// Sample reads the current load of the process
func Sample(ctx context.Context, p *process.Process) (Load, error) {
	var load Load
	var err error
	if load.CPUPercent, err = p.CPUPercentWithContext(ctx); err != nil {
		return load, err
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return load, err
	}
	load.RSS = mem.RSS
	if load.Threads, err = p.NumThreadsWithContext(ctx); err != nil {
		return load, err
	}
	return load, nil
}
