// Package executor runs interaction scenarios against a live application
// through a browser session. Scenarios run strictly in order on one session
// and one application process, both released when the run ends.
package executor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/crawler"
	"github.com/v0xg/appscout/internal/metrics"
	"github.com/v0xg/appscout/internal/scenario"
)

var (
	// ErrReadinessTimeout is returned when the application never served a
	// non-error page within the retry budget.
	ErrReadinessTimeout = errors.New("application readiness timeout")
	// ErrLaunch is returned when the application or browser could not start.
	ErrLaunch = errors.New("launch failed")
)

// Session is the browser surface the executor drives. Click and Fill
// report ok=false without error when no visible control matches.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	BodyText(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) (crawler.Point, bool, error)
	Fill(ctx context.Context, selector, value string) (crawler.Point, bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	NavLinks(ctx context.Context, limit int) ([]string, error)
	Close() error
}

// LaunchFunc opens a browser session.
type LaunchFunc func(ctx context.Context) (Session, error)

// App is the application under test. Stop must be safe to call after a
// failed Start. Exited reports whether the app ended on its own.
type App interface {
	Start(ctx context.Context) error
	Stop() error
	Exited() bool
}

// Status is the outcome of one scenario.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// ScenarioResult records how one scenario went.
type ScenarioResult struct {
	Name        string        `json:"name"`
	Type        scenario.Type `json:"type"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	FailedStep  int           `json:"failedStep,omitempty"` // 1-based, 0 when none
	Duration    time.Duration `json:"duration"`
	Screenshots []string      `json:"screenshots,omitempty"`
}

// RunResult is the outcome of a whole run.
type RunResult struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	BaseURL  string           `json:"baseURL"`
	Started  time.Time        `json:"started"`
	Duration time.Duration    `json:"duration"`
	Results  []ScenarioResult `json:"results"`
	Frames   []Frame          `json:"-"`
}

// Passed counts passed scenarios.
func (r *RunResult) Passed() int {
	return r.count(StatusPassed)
}

// Failed counts failed scenarios.
func (r *RunResult) Failed() int {
	return r.count(StatusFailed)
}

// Pending counts scenarios the run never reached.
func (r *RunResult) Pending() int {
	return r.count(StatusPending)
}

func (r *RunResult) count(status Status) int {
	n := 0
	for _, s := range r.Results {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Frame is a replay frame with the cursor state at capture time.
type Frame struct {
	Image  image.Image
	Cursor CursorPosition
}

// Executor runs scenarios. One Executor may run many times; each run
// starts its own application process and browser session.
type Executor struct {
	app      App
	launch   LaunchFunc
	baseURL  string
	settle   time.Duration
	attempts int
	delay    time.Duration
	markers  []string
	notFound []string
	navLinks int
	shotDir  string
	replay   bool

	metrics  *metrics.Metrics
	logger   *zap.Logger
	progress func(ScenarioResult)
	sleep    func(context.Context, time.Duration) error
}

// Option customizes an Executor.
type Option func(*Executor)

// WithMetrics records scenario and step metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithProgress calls fn after each scenario finishes.
func WithProgress(fn func(ScenarioResult)) Option {
	return func(e *Executor) { e.progress = fn }
}

// WithReplay captures an extra frame after every click and fill so the
// replay shows each interaction, not only explicit screenshots.
func WithReplay(on bool) Option {
	return func(e *Executor) { e.replay = on }
}

// WithScreenshotDir overrides where screenshots are written.
func WithScreenshotDir(dir string) Option {
	return func(e *Executor) { e.shotDir = dir }
}

// New builds an executor. app may be nil when the application is already
// running at the configured base URL.
func New(cfg *config.Config, app App, launch LaunchFunc, logger *zap.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		app:      app,
		launch:   launch,
		baseURL:  strings.TrimRight(cfg.App.BaseURL, "/"),
		settle:   cfg.App.Settle,
		attempts: max(cfg.App.ReadyAttempts, 1),
		delay:    cfg.App.ReadyDelay,
		markers:  cfg.Browser.ErrorMarkers,
		notFound: cfg.Browser.NotFoundMarkers,
		navLinks: cfg.Browser.NavLinks,
		shotDir:  filepath.Join(cfg.Output.Dir, "screenshots"),
		logger:   logger,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes scenarios in order. Only launch and readiness failures (and
// cancellation) are returned as errors; scenario failures are recorded in
// the result. Cleanup runs on every path.
func (e *Executor) Run(ctx context.Context, scenarios []scenario.Scenario) (res *RunResult, err error) {
	res = &RunResult{BaseURL: e.baseURL, Started: time.Now()}
	defer func() { res.Duration = time.Since(res.Started) }()

	if e.app != nil {
		defer func() {
			if stopErr := e.app.Stop(); stopErr != nil {
				e.logger.Warn("stop application", zap.Error(stopErr))
			}
		}()
		if err := e.app.Start(ctx); err != nil {
			res.Message = fmt.Sprintf("could not start application: %v", err)
			return res, fmt.Errorf("%w: start application: %w", ErrLaunch, err)
		}
		e.logger.Debug("application started, settling", zap.Duration("settle", e.settle))
		if err := e.sleep(ctx, e.settle); err != nil {
			res.Message = "cancelled while application was settling"
			return res, err
		}
	}

	sess, err := e.launch(ctx)
	if err != nil {
		res.Message = fmt.Sprintf("could not launch browser: %v", err)
		return res, fmt.Errorf("%w: browser: %w", ErrLaunch, err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			e.logger.Warn("close browser", zap.Error(closeErr))
		}
	}()

	if err := e.waitReady(ctx, sess); err != nil {
		res.Message = err.Error()
		return res, err
	}

	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			for _, rest := range scenarios[i:] {
				res.Results = append(res.Results, ScenarioResult{Name: rest.Name, Type: rest.Type, Status: StatusPending})
			}
			res.Message = fmt.Sprintf("run cancelled, %d scenarios not run", len(scenarios)-i)
			return res, err
		}
		r := e.runScenario(ctx, sess, sc, res)
		res.Results = append(res.Results, r)
		if e.progress != nil {
			e.progress(r)
		}
	}

	res.Success = res.Failed() == 0
	res.Message = fmt.Sprintf("%d/%d scenarios passed", res.Passed(), len(res.Results))
	return res, nil
}

// waitReady polls the root URL until it loads with a title free of error
// markers.
func (e *Executor) waitReady(ctx context.Context, sess Session) error {
	for attempt := 1; attempt <= e.attempts; attempt++ {
		if e.app != nil && e.app.Exited() {
			return fmt.Errorf("%w: application exited before %s was ready", ErrLaunch, e.baseURL)
		}
		title, err := e.probe(ctx, sess)
		if err == nil && marker(title, e.markers) == "" {
			e.logger.Info("application ready", zap.Int("attempt", attempt), zap.String("title", title))
			if e.metrics != nil {
				e.metrics.ReadinessAttempts.Observe(float64(attempt))
			}
			return nil
		}
		e.logger.Debug("application not ready",
			zap.Int("attempt", attempt),
			zap.String("title", title),
			zap.Error(err))

		if attempt < e.attempts {
			if err := e.sleep(ctx, e.delay); err != nil {
				return err
			}
		}
	}
	if e.metrics != nil {
		e.metrics.ReadinessAttempts.Observe(float64(e.attempts))
	}
	return fmt.Errorf("%w: %s not ready after %d attempts", ErrReadinessTimeout, e.baseURL, e.attempts)
}

func (e *Executor) probe(ctx context.Context, sess Session) (string, error) {
	if err := sess.Navigate(ctx, e.baseURL+"/"); err != nil {
		return "", err
	}
	return sess.Title(ctx)
}

// runScenario executes every step until one fails. A panic inside a step
// fails the scenario, never the run.
func (e *Executor) runScenario(ctx context.Context, sess Session, sc scenario.Scenario, run *RunResult) (r ScenarioResult) {
	r = ScenarioResult{Name: sc.Name, Type: sc.Type, Status: StatusRunning}
	start := time.Now()
	log := e.logger.With(zap.String("scenario", sc.Name))
	log.Info("scenario started", zap.Int("steps", len(sc.Steps)))

	st := &stepState{cursor: CursorPosition{X: 640, Y: 360, State: CursorDefault}}
	defer func() {
		if p := recover(); p != nil {
			r.Status = StatusFailed
			r.Message = fmt.Sprintf("panic: %v", p)
		}
		r.Duration = time.Since(start)
		if r.Status == StatusRunning {
			r.Status = StatusPassed
		}
		if r.Status == StatusFailed {
			log.Warn("scenario failed", zap.Int("step", r.FailedStep), zap.String("message", r.Message))
		} else {
			log.Info("scenario passed", zap.Duration("duration", r.Duration))
		}
		if e.metrics != nil {
			e.metrics.Scenarios.WithLabelValues(string(r.Status)).Inc()
		}
	}()

	for i, step := range sc.Steps {
		r.FailedStep = i + 1
		stepStart := time.Now()
		err := e.runStep(ctx, sess, sc, i, step, st, run, &r)
		if e.metrics != nil {
			e.metrics.StepDuration.WithLabelValues(string(step.Action)).Observe(time.Since(stepStart).Seconds())
		}
		if err != nil {
			r.Status = StatusFailed
			r.Message = fmt.Sprintf("step %d (%s): %v", i+1, step.Action, err)
			return r
		}
	}
	r.FailedStep = 0
	return r
}

// marker returns the first marker contained in text.
func marker(text string, markers []string) string {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return m
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
