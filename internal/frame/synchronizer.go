// Package frame keeps the local render surface in step with the device
// screen by polling the frame endpoint on a bounded cadence.
package frame

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/droidview/internal/transport"
)

const (
	MinInterval     = 100 * time.Millisecond
	MaxInterval     = 2000 * time.Millisecond
	DefaultInterval = time.Second

	// deadlineRatio keeps every fetch shorter than the interval so a stalled
	// request is abandoned before the next cycle could overlap it.
	deadlineRatio = 0.9
)

// ClampInterval limits d to [MinInterval, MaxInterval].
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

// Fetcher returns the raw bytes of the current frame.
type Fetcher interface {
	Frame(ctx context.Context) ([]byte, error)
}

// Surface is where frames end up. Paint must copy what it needs: the image
// may be released once a later frame has been painted.
type Surface interface {
	// Resize fixes the surface width to the viewport and derives the height
	// from aspect (width / height), clearing the surface.
	Resize(aspect float64)
	Paint(img *Image)
}

// FrameState is what the synchronizer knows about the displayed frame.
type FrameState struct {
	Image   *Image
	Aspect  float64
	Updated time.Time
}

// Result is the outcome of one fetch-and-decode: exactly one of Image and
// Err is set.
type Result struct {
	Image *Image
	Err   error
}

// Stats counts cycles since the session was created.
type Stats struct {
	Cycles   int
	Failures int
	LastErr  error
}

type tickMsg struct {
	s   *Synchronizer
	gen uint64
}

type resultMsg struct {
	s   *Synchronizer
	seq uint64
	res Result
}

// Scheduler turns a delay and a message into a command that delivers the
// message after the delay.
type Scheduler func(d time.Duration, msg tea.Msg) tea.Cmd

// TickScheduler uses tea.Tick.
func TickScheduler(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

func WithLogger(l *slog.Logger) Option { return func(s *Synchronizer) { s.log = l } }

// WithInterval sets the starting interval (clamped).
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) { s.interval = ClampInterval(d) }
}

func WithScheduler(fn Scheduler) Option { return func(s *Synchronizer) { s.after = fn } }

func WithDecoder(fn func([]byte) (*Image, error)) Option {
	return func(s *Synchronizer) { s.decode = fn }
}

func WithClock(now func() time.Time) Option { return func(s *Synchronizer) { s.now = now } }

// WithReleaseHook is called once for every image the synchronizer releases.
func WithReleaseHook(fn func(*Image)) Option { return func(s *Synchronizer) { s.onRelease = fn } }

// Synchronizer is one viewing session: create, Start, Stop, Dispose. All
// methods must be called from the bubbletea Update goroutine; the commands
// it returns do the blocking work and report back through Update.
type Synchronizer struct {
	fetch   Fetcher
	surface Surface
	log     *slog.Logger

	after     Scheduler
	decode    func([]byte) (*Image, error)
	now       func() time.Time
	onRelease func(*Image)

	interval time.Duration
	running  bool
	disposed bool
	state    FrameState
	stats    Stats

	// the armed timer is the one whose tick carries timerGen
	armed    bool
	timerGen uint64

	inFlight    bool
	fetchSeq    uint64
	cancelFetch context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSynchronizer creates a stopped session.
func NewSynchronizer(fetch Fetcher, surface Surface, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		fetch:    fetch,
		surface:  surface,
		log:      slog.Default(),
		after:    TickScheduler,
		decode:   Decode,
		now:      time.Now,
		interval: DefaultInterval,
		state:    FrameState{Aspect: 1},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Synchronizer) Running() bool           { return s.running }
func (s *Synchronizer) Interval() time.Duration { return s.interval }
func (s *Synchronizer) State() FrameState       { return s.state }
func (s *Synchronizer) Stats() Stats            { return s.stats }
func (s *Synchronizer) InFlight() bool          { return s.inFlight }

// Deadline is the per-fetch deadline for the current interval.
func (s *Synchronizer) Deadline() time.Duration {
	return time.Duration(float64(s.interval) * deadlineRatio)
}

// PendingTimers is 1 while a refresh timer is armed and 0 otherwise.
func (s *Synchronizer) PendingTimers() int {
	if s.armed {
		return 1
	}
	return 0
}

// Start begins the refresh loop and returns the first fetch. Calling it on a
// running session does nothing. If a fetch from before the last Stop is
// still outstanding, the loop resumes when it settles instead of issuing a
// second request.
func (s *Synchronizer) Start() tea.Cmd {
	if s.running || s.disposed {
		return nil
	}
	s.running = true
	s.log.Info("frame sync started", "interval", s.interval)
	if s.inFlight {
		return nil
	}
	return s.fetchCmd()
}

// Stop ends the loop. The armed timer, if any, is disarmed. A fetch already
// in flight completes but its frame is dropped.
func (s *Synchronizer) Stop() {
	if s.running {
		s.running = false
		s.log.Info("frame sync stopped")
	}
	s.disarm()
}

// Dispose stops the session, abandons any in-flight fetch and releases the
// displayed image. The session cannot be restarted.
func (s *Synchronizer) Dispose() {
	if s.disposed {
		return
	}
	s.Stop()
	s.disposed = true
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	// results still on their way are recognised as stale and released
	s.fetchSeq++
	s.inFlight = false
	if s.state.Image != nil {
		s.releaseImage(s.state.Image)
		s.state.Image = nil
	}
	s.cancel()
}

// SetInterval clamps d and applies it. A running loop with an armed timer
// gets a fresh timer for the new interval; the superseded one is inert.
func (s *Synchronizer) SetInterval(d time.Duration) (time.Duration, tea.Cmd) {
	s.interval = ClampInterval(d)
	s.log.Debug("frame interval changed", "interval", s.interval)
	if s.running && s.armed {
		return s.interval, s.arm()
	}
	return s.interval, nil
}

// Update consumes the synchronizer's own messages and ignores the rest.
func (s *Synchronizer) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case tickMsg:
		if m.s != s {
			return nil
		}
		return s.handleTick(m)
	case resultMsg:
		if m.s != s {
			return nil
		}
		return s.handleResult(m)
	}
	return nil
}

func (s *Synchronizer) handleTick(m tickMsg) tea.Cmd {
	if !s.armed || m.gen != s.timerGen {
		return nil
	}
	s.armed = false
	if !s.running || s.inFlight {
		return nil
	}
	return s.fetchCmd()
}

func (s *Synchronizer) handleResult(m resultMsg) tea.Cmd {
	if m.seq != s.fetchSeq {
		if m.res.Image != nil {
			s.releaseImage(m.res.Image)
		}
		return nil
	}
	s.inFlight = false
	s.cancelFetch = nil
	s.stats.Cycles++

	if !s.running {
		if m.res.Image != nil {
			s.log.Debug("frame dropped after stop", "frame", m.res.Image.ID)
			s.releaseImage(m.res.Image)
		}
		return nil
	}

	if m.res.Err != nil {
		s.stats.Failures++
		s.stats.LastErr = m.res.Err
		s.log.Warn("frame fetch failed", "kind", transport.KindOf(m.res.Err).String(), "error", m.res.Err)
	} else {
		s.stats.LastErr = nil
		s.apply(m.res.Image)
	}
	return s.arm()
}

func (s *Synchronizer) apply(img *Image) {
	if aspect := img.Aspect(); aspect != s.state.Aspect {
		s.state.Aspect = aspect
		s.surface.Resize(aspect)
	}
	s.surface.Paint(img)

	prev := s.state.Image
	s.state.Image = img
	s.state.Updated = s.now()
	if prev != nil && prev != img {
		s.releaseImage(prev)
	}
	s.log.Debug("frame updated", "frame", img.ID, "width", img.Width, "height", img.Height)
}

func (s *Synchronizer) releaseImage(img *Image) {
	if !img.release() {
		s.log.Error("frame released twice", "frame", img.ID)
		return
	}
	if s.onRelease != nil {
		s.onRelease(img)
	}
}

func (s *Synchronizer) arm() tea.Cmd {
	s.timerGen++
	s.armed = true
	return s.after(s.interval, tickMsg{s: s, gen: s.timerGen})
}

func (s *Synchronizer) disarm() {
	if s.armed {
		s.armed = false
		s.timerGen++
	}
}

func (s *Synchronizer) fetchCmd() tea.Cmd {
	s.inFlight = true
	s.fetchSeq++
	seq := s.fetchSeq
	ctx, cancel := context.WithTimeout(s.ctx, s.Deadline())
	s.cancelFetch = cancel

	fetch, decode := s.fetch, s.decode
	return func() tea.Msg {
		defer cancel()
		data, err := fetch.Frame(ctx)
		if err != nil {
			return resultMsg{s: s, seq: seq, res: Result{Err: err}}
		}
		img, err := decode(data)
		if err != nil {
			return resultMsg{s: s, seq: seq, res: Result{Err: transport.NewDecodeError(transport.PathFrame, err)}}
		}
		return resultMsg{s: s, seq: seq, res: Result{Image: img}}
	}
}
