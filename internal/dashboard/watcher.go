// Package dashboard 负责仪表盘的状态轮询：只要有 in_progress 的备份日志就定期拉取统计，
// 全部结束后自动停止。
//
// Package dashboard polls backup stats while any log is in progress and stops once none is.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"vbackup/internal/api"
)

// StatsFetcher 由 api.BackupAPI 实现 / StatsFetcher is satisfied by *api.BackupAPI
type StatsFetcher interface {
	Stats(ctx context.Context) (api.BackupStats, error)
}

type Options struct {
	Interval time.Duration
	// Timeout 单次拉取超时，默认等于 Interval
	// Timeout bounds a single fetch; defaults to Interval
	Timeout time.Duration
	OnStats func(api.BackupStats)
	OnError func(error)
}

// Watcher 是显式、可取消的轮询订阅。由观察到的日志状态启动和停止。
// Watcher is an explicit cancellable polling subscription driven by observed log status.
type Watcher struct {
	fetcher StatsFetcher
	opts    Options

	mu     sync.Mutex
	sched  *gocron.Scheduler
	cancel context.CancelFunc
	closed bool
}

func NewWatcher(fetcher StatsFetcher, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}
	return &Watcher{fetcher: fetcher, opts: opts}
}

// Observe 根据最新统计决定是否轮询：有 in_progress 则启动，否则停止。
// Observe starts polling when stats has an in-progress log and stops it otherwise.
func (w *Watcher) Observe(stats api.BackupStats) {
	if stats.AnyInProgress() {
		w.start()
		return
	}
	w.Stop()
}

// Active 当前是否在轮询 / Active reports whether polling is running
func (w *Watcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sched != nil
}

// Stop 停止轮询；可重复调用，也可以在轮询回调内部调用（例如 401 清除会话时）。
// Stop ends the subscription. It is safe to call repeatedly and from inside a poll callback.
func (w *Watcher) Stop() {
	w.mu.Lock()
	sched, cancel := w.detachLocked()
	w.mu.Unlock()
	if sched != nil {
		cancel()
		// gocron 的 Stop 等待运行中的任务，而调用方可能就是那个任务
		go sched.Stop()
		slog.Debug("stats polling stopped")
	}
}

// Close 在离开视图时调用，之后 Observe 不再启动轮询
// Close is called on view exit; Observe no longer starts polling afterwards
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Stop()
}

// Reopen 重新进入视图时调用 / Reopen re-arms a closed watcher when the view is entered again
func (w *Watcher) Reopen() {
	w.mu.Lock()
	w.closed = false
	w.mu.Unlock()
}

func (w *Watcher) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.sched != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(w.opts.Interval).WaitForSchedule().Do(w.tick, ctx, s); err != nil {
		cancel()
		slog.Error("schedule stats polling", slog.String("err", err.Error()))
		return
	}
	w.sched = s
	w.cancel = cancel
	s.StartAsync()
	slog.Debug("stats polling started", slog.Duration("interval", w.opts.Interval))
}

func (w *Watcher) tick(ctx context.Context, owner *gocron.Scheduler) {
	if ctx.Err() != nil {
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	stats, err := w.fetcher.Stats(fetchCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Warn("stats polling failed", slog.String("err", err.Error()))
		w.stopFromJob(owner)
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		return
	}
	if !stats.AnyInProgress() {
		w.stopFromJob(owner)
	}
	if w.opts.OnStats != nil {
		w.opts.OnStats(stats)
	}
}

// stopFromJob 在任务内部停止调度器；gocron 的 Stop 会等待运行中的任务，所以放到新 goroutine。
// stopFromJob detaches owner and stops it off the job goroutine, since gocron's Stop waits for running jobs.
func (w *Watcher) stopFromJob(owner *gocron.Scheduler) {
	w.mu.Lock()
	if w.sched != owner {
		w.mu.Unlock()
		return
	}
	sched, cancel := w.detachLocked()
	w.mu.Unlock()
	cancel()
	go sched.Stop()
}

func (w *Watcher) detachLocked() (*gocron.Scheduler, context.CancelFunc) {
	sched, cancel := w.sched, w.cancel
	w.sched, w.cancel = nil, nil
	if cancel == nil {
		cancel = func() {}
	}
	return sched, cancel
}
