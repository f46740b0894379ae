package pipeline

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/muxconv/internal/config"
	"github.com/backmassage/muxconv/internal/ffmpeg"
	"github.com/backmassage/muxconv/internal/logging"
	"github.com/backmassage/muxconv/internal/metrics"
	"github.com/backmassage/muxconv/internal/naming"
	"github.com/backmassage/muxconv/internal/planner"
)

// Errors returned synchronously by Start, and the cancellation outcome.
var (
	ErrRunActive     = errors.New("a conversion is already running")
	ErrEmptyInput    = errors.New("input path is empty")
	ErrInvalidFormat = errors.New("invalid output format token")
	ErrCancelled     = errors.New("conversion cancelled")
)

// Settings are the process-level encoder and queue settings applied to
// every run.
type Settings struct {
	DefaultFormat     string
	VideoEncoder      string
	VideoBitRate      int64
	FallbackFrameRate int
	QueueSize         int
}

// SettingsFromConfig extracts run settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		DefaultFormat:     string(cfg.Format),
		VideoEncoder:      cfg.VideoEncoder,
		VideoBitRate:      cfg.VideoBitRate,
		FallbackFrameRate: cfg.FallbackFrameRate,
		QueueSize:         cfg.MessageQueueSize,
	}
}

// DefaultSettings returns the settings of config.DefaultConfig.
func DefaultSettings() Settings {
	cfg := config.DefaultConfig()
	return SettingsFromConfig(&cfg)
}

// Request is the invocation of one run.
type Request struct {
	Input    string
	Format   string // Container token; empty uses Settings.DefaultFormat.
	Reencode bool
}

// Result is the outcome of a finished run.
type Result struct {
	Output string
	Final  State
	Err    error // nil, a taxonomy error, planner.ErrNoVideoStream or ErrCancelled.
	Stats  Stats
}

// Status is a snapshot of the controller for launchers.
type Status struct {
	State    string `json:"state"`
	Running  bool   `json:"running"`
	RunID    string `json:"run_id,omitempty"`
	Input    string `json:"input,omitempty"`
	Output   string `json:"output,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Progress int    `json:"progress"`
}

// Option customizes a Controller.
type Option func(*Controller)

// WithIDFunc replaces the run ID generator (uuid v4 by default).
func WithIDFunc(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithStateHook registers fn to observe every accepted state transition.
// fn runs with the controller lock held and must not call back into it.
func WithStateHook(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// Controller accepts runs and executes at most one at a time.
type Controller struct {
	settings Settings
	log      *logging.Logger
	newID    func() string
	onState  func(State)

	mu      sync.Mutex
	state   State
	current *Run

	// Test hooks, called on the worker goroutine.
	beforeOpen  func(*Run)
	afterPacket func(*Run, int64)
}

// NewController returns an idle controller.
func NewController(settings Settings, log *logging.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	c := &Controller{
		settings: settings,
		log:      log,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run is a handle on one started conversion.
type Run struct {
	id       string
	input    string
	output   string
	format   string
	reencode bool

	ctx    context.Context
	cancel context.CancelFunc

	msgs     *sink
	done     chan struct{}
	result   Result
	progress atomic.Int32
}

// ID returns the run's unique ID.
func (r *Run) ID() string { return r.id }

// Input returns the input path.
func (r *Run) Input() string { return r.input }

// Output returns the output path the run writes to.
func (r *Run) Output() string { return r.output }

// Format returns the output container token.
func (r *Run) Format() string { return r.format }

// Mode returns "transcode" for re-encode runs and "remux" otherwise.
func (r *Run) Mode() string {
	if r.reencode {
		return planner.ActionTranscode.String()
	}
	return planner.ActionRemux.String()
}

// Messages returns the run's message stream. It is closed after the final
// message of the run.
func (r *Run) Messages() <-chan Message { return r.msgs.ch }

// Cancel asks the run to stop at the next packet boundary. The output is
// still finalized.
func (r *Run) Cancel() { r.cancel() }

// Done is closed once the run has finished and its Result is available.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its Result.
func (r *Run) Wait() Result {
	<-r.done
	return r.result
}

// Progress returns the last reported percentage, or -1.
func (r *Run) Progress() int { return int(r.progress.Load()) }

// Start validates req and launches a run on its own goroutine. It fails
// immediately with ErrEmptyInput, ErrInvalidFormat or ErrRunActive.
// Cancelling ctx cancels the run.
func (c *Controller) Start(ctx context.Context, req Request) (*Run, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, ErrEmptyInput
	}
	format := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(req.Format), "."))
	if format == "" {
		format = c.settings.DefaultFormat
	}
	if format == "" || strings.ContainsAny(format, `/\ `) {
		return nil, ErrInvalidFormat
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return nil, ErrRunActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		id:       c.newID(),
		input:    req.Input,
		output:   naming.OutputPath(req.Input, format),
		format:   format,
		reencode: req.Reencode,
		ctx:      runCtx,
		cancel:   cancel,
		msgs:     newSink(c.settings.QueueSize),
		done:     make(chan struct{}),
	}
	r.progress.Store(-1)

	if !c.setStateLocked(StateOpeningInput) {
		cancel()
		return nil, ErrRunActive
	}
	c.current = r
	metrics.RunActive.Set(1)

	go c.execute(r)
	return r, nil
}

// Running reports whether a run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Status returns a snapshot of the controller state and the active run.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state.String(), Progress: -1}
	if r := c.current; r != nil {
		st.Running = true
		st.RunID = r.id
		st.Input = r.input
		st.Output = r.output
		st.Mode = r.Mode()
		st.Progress = r.Progress()
	}
	return st
}

func (c *Controller) transition(to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStateLocked(to)
}

func (c *Controller) setStateLocked(to State) bool {
	from := c.state
	if !from.CanTransition(to) {
		c.log.Error("Invalid state transition %s -> %s", from, to)
		return false
	}
	c.state = to
	c.log.Debug("State %s -> %s", from, to)
	if c.onState != nil {
		c.onState(to)
	}
	return true
}

// execute is the worker. Native resources are created, used and released
// on this goroutine only, pinned to one OS thread.
func (c *Controller) execute(r *Run) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer r.cancel()

	start := time.Now()
	log := c.log.With("run_id", r.id)
	cv := newConversion(c, r, log)

	if c.beforeOpen != nil {
		c.beforeOpen(r)
	}

	err := cv.open()
	if err == nil {
		if cv.plan.Action == planner.ActionTranscode {
			c.transition(StateDecodingEncoding)
			err = cv.transcode()
		} else {
			c.transition(StateRemuxRunning)
			err = cv.remux()
		}
	}

	c.transition(StateFinalizing)
	if cerr := cv.closer.Close(); cerr != nil {
		log.Warn("Releasing resources: %v", cerr)
	}

	final := StateIdle
	switch {
	case err != nil:
		final = StateAborted
		log.Debug("Run failed: %v", err)
	case cv.cancelled:
		final = StateAborted
		err = ErrCancelled
	default:
		cv.say("%s", cv.finishedLine())
	}

	stats := cv.stats
	if cv.out != nil {
		stats.BytesWritten = cv.out.Bytes()
	}
	stats.Elapsed = time.Since(start)
	stats.InputBytes = fileSize(r.input)
	stats.OutputBytes = fileSize(r.output)
	stats.MessagesDropped = r.msgs.Dropped()
	r.result = Result{Output: r.output, Final: final, Err: err, Stats: stats}

	metrics.ObserveRun(r.Mode(), outcome(err), stats.Elapsed)
	metrics.AddPackets(metrics.PacketRead, stats.PacketsRead)
	metrics.AddPackets(metrics.PacketCopied, stats.PacketsCopied)
	metrics.AddPackets(metrics.PacketEncoded, stats.PacketsEncoded)
	metrics.AddPackets(metrics.PacketDiscarded, stats.PacketsDiscarded)
	metrics.FramesDecoded.Add(float64(stats.FramesDecoded))

	c.mu.Lock()
	c.setStateLocked(final)
	c.current = nil
	metrics.RunActive.Set(0)
	c.mu.Unlock()

	r.msgs.close()
	close(r.done)
}

// outcome is the metrics label of a run result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, planner.ErrNoVideoStream):
		return "no_video_stream"
	default:
		return ffmpeg.Kind(err)
	}
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
