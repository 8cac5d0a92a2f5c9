// Package fetch drives a download-daemon job from submission to a local
// file: a fixed-interval poll loop over the daemon's status, modeled as an
// explicit queued/active -> complete|error|removed machine with injectable
// time and IO so tests can run without a daemon or real timers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"terabox-relay-bot/internal/aria2"
	"terabox-relay-bot/internal/logger"
	"terabox-relay-bot/internal/media"
)

var (
	// ErrNoOutput means the daemon finished but reported no file, or the
	// reported file is absent on disk.
	ErrNoOutput = errors.New("download produced no output file")
	// ErrStalled means the daemon never reported a total size within the
	// metadata timeout.
	ErrStalled = errors.New("download stalled: no size information from daemon")
)

// Daemon is the poll surface of the download daemon.
type Daemon interface {
	AddURI(ctx context.Context, uri string, dir string) (string, error)
	TellStatus(ctx context.Context, gid string) (*aria2.Status, error)
	Remove(ctx context.Context, gid string) error
	RemoveDownloadResult(ctx context.Context, gid string) error
}

// Snapshot is one tick's view of the job, consumed by progress renderers.
type Snapshot struct {
	GID       string
	Name      string
	State     string
	Completed int64
	Total     int64
	Speed     int64
	Percent   float64
	Elapsed   time.Duration
}

type Orchestrator struct {
	daemon          Daemon
	dir             string
	interval        time.Duration
	metadataTimeout time.Duration

	// test seams
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(daemon Daemon, dir string, interval, metadataTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		daemon:          daemon,
		dir:             dir,
		interval:        interval,
		metadataTimeout: metadataTimeout,
		now:             time.Now,
		sleep:           sleepCtx,
	}
}

// WithClock overrides the time sources. Test hook.
func (o *Orchestrator) WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *Orchestrator {
	o.now = now
	o.sleep = sleep
	return o
}

// Submit hands the direct URL to the daemon and returns the job GID.
func (o *Orchestrator) Submit(ctx context.Context, directURL string) (string, error) {
	gid, err := o.daemon.AddURI(ctx, directURL, o.dir)
	if err != nil {
		return "", fmt.Errorf("submit to daemon: %w", err)
	}
	return gid, nil
}

// Await polls the job until it leaves the queued/active states. onTick is
// invoked once per poll with the current snapshot (the caller throttles its
// own edits). Transient status-refresh failures are logged and tolerated up
// to a small consecutive cap.
func (o *Orchestrator) Await(ctx context.Context, gid string, onTick func(Snapshot)) (*aria2.Status, error) {
	const maxRefreshFailures = 5

	start := o.now()
	failures := 0

	for {
		if err := o.sleep(ctx, o.interval); err != nil {
			return nil, err
		}

		st, err := o.daemon.TellStatus(ctx, gid)
		if err != nil {
			failures++
			logger.Warn.Printf("status refresh failed for %s (%d/%d): %v", gid, failures, maxRefreshFailures, err)
			if failures >= maxRefreshFailures {
				return nil, fmt.Errorf("daemon unreachable while polling %s: %w", gid, err)
			}
			continue
		}
		failures = 0

		switch st.State {
		case "complete":
			return st, nil
		case "error":
			msg := st.ErrorMessage
			if msg == "" {
				msg = "unknown daemon error"
			}
			return st, fmt.Errorf("download failed: %s", msg)
		case "removed":
			return st, errors.New("download was removed by the daemon")
		}

		elapsed := o.now().Sub(start)
		if st.TotalLength == 0 && elapsed > o.metadataTimeout {
			// nothing downloadable behind the resolved URL; give up
			// instead of hanging forever
			return st, ErrStalled
		}

		if onTick != nil {
			onTick(snapshot(gid, st, elapsed))
		}
	}
}

// Collect validates the finished job's output and wraps it as an Asset. The
// job's daemon-side record is dropped either way.
func (o *Orchestrator) Collect(ctx context.Context, st *aria2.Status) (*media.Asset, error) {
	defer func() {
		if err := o.daemon.RemoveDownloadResult(ctx, st.GID); err != nil {
			logger.Debug.Printf("drop download result %s: %v", st.GID, err)
		}
	}()

	if len(st.Files) == 0 {
		return nil, ErrNoOutput
	}
	path := st.Files[0]
	if _, err := os.Stat(path); err != nil {
		logger.Warn.Printf("daemon reported %s but it is not on disk: %v", path, err)
		return nil, ErrNoOutput
	}
	return media.NewAsset(path)
}

// Discard abandons a failed job: the transfer is stopped, the daemon-side
// record dropped, and any partial files (with their daemon control files)
// removed from disk. Every step is best-effort. st may be nil when the job
// never reported a status.
func (o *Orchestrator) Discard(ctx context.Context, gid string, st *aria2.Status) {
	if err := o.daemon.Remove(ctx, gid); err != nil {
		logger.Debug.Printf("remove %s: %v", gid, err)
	}
	if err := o.daemon.RemoveDownloadResult(ctx, gid); err != nil {
		logger.Debug.Printf("drop download result %s: %v", gid, err)
	}
	if st == nil {
		return
	}
	for _, path := range st.Files {
		for _, p := range []string{path, path + ".aria2"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				logger.Debug.Printf("remove partial %s: %v", p, err)
			}
		}
	}
}

// Progress is the percentage shown for a partially-complete job: 0 until the
// daemon knows the total size.
func Progress(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(completed) / float64(total)
}

func snapshot(gid string, st *aria2.Status, elapsed time.Duration) Snapshot {
	name := ""
	if len(st.Files) > 0 {
		name = st.Files[0]
	}
	return Snapshot{
		GID:       gid,
		Name:      name,
		State:     st.State,
		Completed: st.CompletedLength,
		Total:     st.TotalLength,
		Speed:     st.DownloadSpeed,
		Percent:   Progress(st.CompletedLength, st.TotalLength),
		Elapsed:   elapsed,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
