package executor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/crawler"
	"github.com/v0xg/appscout/internal/metrics"
	"github.com/v0xg/appscout/internal/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSession serves canned pages keyed by URL.
type fakeSession struct {
	url     string
	titles  map[string]string
	bodies  map[string]string
	visible map[string]crawler.Point
	links   []string
	panicOn string

	visited []string
	filled  map[string]string
	closed  bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		titles:  map[string]string{},
		bodies:  map[string]string{},
		visible: map[string]crawler.Point{},
		filled:  map[string]string{},
	}
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.url = url
	s.visited = append(s.visited, url)
	return nil
}

func (s *fakeSession) Title(context.Context) (string, error) { return s.titles[s.url], nil }

func (s *fakeSession) BodyText(context.Context) (string, error) { return s.bodies[s.url], nil }

func (s *fakeSession) Click(_ context.Context, sel string) (crawler.Point, bool, error) {
	if sel == s.panicOn {
		panic("element detached")
	}
	pt, ok := s.visible[sel]
	return pt, ok, nil
}

func (s *fakeSession) Fill(_ context.Context, sel, value string) (crawler.Point, bool, error) {
	pt, ok := s.visible[sel]
	if ok {
		s.filled[sel] = value
	}
	return pt, ok, nil
}

func (s *fakeSession) Screenshot(context.Context) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *fakeSession) NavLinks(_ context.Context, limit int) ([]string, error) {
	if len(s.links) > limit {
		return s.links[:limit], nil
	}
	return s.links, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeApp struct {
	startErr error
	started  bool
	stopped  bool
	// exitAfter makes Exited report true from that call on; 0 never exits
	exitAfter int
	checks    int
}

func (a *fakeApp) Start(context.Context) error {
	a.started = true
	return a.startErr
}

func (a *fakeApp) Stop() error {
	a.stopped = true
	return nil
}

func (a *fakeApp) Exited() bool {
	a.checks++
	return a.exitAfter > 0 && a.checks >= a.exitAfter
}

const base = "http://app.test"

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.App.BaseURL = base + "/"
	cfg.App.ReadyAttempts = 3
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func newTestExecutor(t *testing.T, cfg *config.Config, app App, sess *fakeSession, opts ...Option) (*Executor, *int) {
	sleeps := 0
	launch := func(context.Context) (Session, error) { return sess, nil }
	e := New(cfg, app, launch, zaptest.NewLogger(t), opts...)
	e.sleep = func(ctx context.Context, _ time.Duration) error {
		sleeps++
		return ctx.Err()
	}
	return e, &sleeps
}

func readySession() *fakeSession {
	s := newFakeSession()
	s.titles[base+"/"] = "Shop"
	s.bodies[base+"/"] = "Welcome to the shop"
	return s
}

func TestRun_ReadinessTimeout(t *testing.T) {
	sess := newFakeSession()
	sess.titles[base+"/"] = "404: This page could not be found"
	app := &fakeApp{}
	e, sleeps := newTestExecutor(t, testConfig(t), app, sess)

	res, err := e.Run(context.Background(), scenario.Synthesize(nil, nil))
	require.ErrorIs(t, err, ErrReadinessTimeout)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not ready after 3 attempts")
	assert.Empty(t, res.Results)
	assert.Len(t, sess.visited, 3)
	// settle plus two inter-attempt delays
	assert.Equal(t, 3, *sleeps)
	assert.True(t, sess.closed)
	assert.True(t, app.stopped)
}

func TestRun_AppExitStopsReadinessEarly(t *testing.T) {
	sess := newFakeSession()
	sess.titles[base+"/"] = "404: This page could not be found"
	app := &fakeApp{exitAfter: 2}
	e, _ := newTestExecutor(t, testConfig(t), app, sess)

	res, err := e.Run(context.Background(), scenario.Synthesize(nil, nil))
	require.ErrorIs(t, err, ErrLaunch)
	assert.NotErrorIs(t, err, ErrReadinessTimeout)
	assert.Contains(t, res.Message, "application exited")
	assert.Len(t, sess.visited, 1)
	assert.Empty(t, res.Results)
	assert.True(t, app.stopped)
}

func TestRun_ErrorMarkerFailsOnlyItsScenario(t *testing.T) {
	sess := readySession()
	sess.bodies[base+"/missing"] = "404 | Not Found"
	m := metrics.New()
	e, _ := newTestExecutor(t, testConfig(t), &fakeApp{}, sess, WithMetrics(m))

	scenarios := []scenario.Scenario{
		{Name: "broken", Type: scenario.TypeJourney, Steps: []scenario.Step{
			{Action: scenario.ActionGoto, Value: "/missing"},
			{Action: scenario.ActionCheckNoErrors},
		}},
		{Name: "home", Type: scenario.TypeJourney, Steps: []scenario.Step{
			{Action: scenario.ActionGoto, Value: "/"},
			{Action: scenario.ActionCheckNoErrors, Expected: "Welcome"},
		}},
	}
	res, err := e.Run(context.Background(), scenarios)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, StatusFailed, res.Results[0].Status)
	assert.Equal(t, 2, res.Results[0].FailedStep)
	assert.Contains(t, res.Results[0].Message, `"404"`)
	assert.Equal(t, StatusPassed, res.Results[1].Status)
	assert.Zero(t, res.Results[1].FailedStep)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Passed())
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, "1/2 scenarios passed", res.Message)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scenarios.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scenarios.WithLabelValues("passed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReadinessAttempts))
}

func TestRun_InvisibleControlsAreSkipped(t *testing.T) {
	sess := readySession()
	sess.visible[scenario.EmailInputSelector] = crawler.Point{X: 10, Y: 20}
	e, _ := newTestExecutor(t, testConfig(t), nil, sess)

	res, err := e.Run(context.Background(), []scenario.Scenario{{
		Name: "auth", Type: scenario.TypeAuth, Steps: []scenario.Step{
			{Action: scenario.ActionGoto, Value: "/"},
			{Action: scenario.ActionClick, Selector: scenario.LoginLinkSelector},
			{Action: scenario.ActionFill, Selector: scenario.EmailInputSelector, Value: scenario.TestEmail},
			{Action: scenario.ActionFill, Selector: scenario.PasswordSelector, Value: scenario.TestPassword},
			{Action: scenario.ActionClick, Selector: scenario.SubmitSelector},
		},
	}})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, StatusPassed, res.Results[0].Status)
	assert.True(t, res.Success)
	assert.Equal(t, map[string]string{scenario.EmailInputSelector: scenario.TestEmail}, sess.filled)
}

func TestRun_PanicFailsScenarioAndContinues(t *testing.T) {
	sess := readySession()
	sess.panicOn = "#boom"
	sess.visible["#boom"] = crawler.Point{}
	e, _ := newTestExecutor(t, testConfig(t), nil, sess)

	res, err := e.Run(context.Background(), []scenario.Scenario{
		{Name: "explodes", Steps: []scenario.Step{{Action: scenario.ActionClick, Selector: "#boom"}}},
		{Name: "fine", Steps: []scenario.Step{{Action: scenario.ActionWait, Timeout: 10}}},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, StatusFailed, res.Results[0].Status)
	assert.Equal(t, "panic: element detached", res.Results[0].Message)
	assert.Equal(t, StatusPassed, res.Results[1].Status)
	assert.True(t, sess.closed)
}

func TestRun_InvalidStepFails(t *testing.T) {
	e, _ := newTestExecutor(t, testConfig(t), nil, readySession())
	res, err := e.Run(context.Background(), []scenario.Scenario{
		{Name: "bad", Steps: []scenario.Step{{Action: "hover"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Results[0].Status)
	assert.Contains(t, res.Results[0].Message, "unknown action")
}

func TestRun_LaunchFailures(t *testing.T) {
	t.Run("application", func(t *testing.T) {
		app := &fakeApp{startErr: errors.New("no package.json")}
		e, _ := newTestExecutor(t, testConfig(t), app, readySession())
		res, err := e.Run(context.Background(), nil)
		require.ErrorIs(t, err, ErrLaunch)
		assert.False(t, res.Success)
		assert.True(t, app.stopped)
	})

	t.Run("browser", func(t *testing.T) {
		app := &fakeApp{}
		e := New(testConfig(t), app, func(context.Context) (Session, error) {
			return nil, errors.New("chromium missing")
		}, zaptest.NewLogger(t))
		e.sleep = func(context.Context, time.Duration) error { return nil }
		res, err := e.Run(context.Background(), nil)
		require.ErrorIs(t, err, ErrLaunch)
		assert.Contains(t, res.Message, "chromium missing")
		assert.True(t, app.stopped)
	})
}

func TestRun_ScreenshotsAndReplayFrames(t *testing.T) {
	cfg := testConfig(t)
	sess := readySession()
	sess.visible[`a[href*="order"]`] = crawler.Point{X: 100, Y: 50}
	e, _ := newTestExecutor(t, cfg, nil, sess, WithReplay(true))

	res, err := e.Run(context.Background(), []scenario.Scenario{{
		Name: "Order CRUD operations", Type: scenario.TypeCRUD, Steps: []scenario.Step{
			{Action: scenario.ActionGoto, Value: "/"},
			{Action: scenario.ActionClick, Selector: `a[href*="order"]`},
			{Action: scenario.ActionScreenshot, Value: "orders list"},
		},
	}})
	require.NoError(t, err)

	shots := res.Results[0].Screenshots
	require.Len(t, shots, 1)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "screenshots", "order-crud-operations-01-orders-list.png"), shots[0])
	_, err = os.Stat(shots[0])
	require.NoError(t, err)

	require.Len(t, res.Frames, 2)
	assert.Equal(t, CursorPosition{X: 100, Y: 50, State: CursorPointer, Click: true}, res.Frames[0].Cursor)
	assert.Equal(t, CursorPosition{X: 100, Y: 50, State: CursorPointer}, res.Frames[1].Cursor)
}

func TestRun_TestNavigation(t *testing.T) {
	sess := readySession()
	sess.links = []string{base + "/orders", base + "/gone", base + "/never"}
	sess.bodies[base+"/orders"] = "Orders"
	sess.bodies[base+"/gone"] = "This page could not be found."
	cfg := testConfig(t)
	cfg.Browser.NavLinks = 2
	e, _ := newTestExecutor(t, cfg, nil, sess)

	res, err := e.Run(context.Background(), []scenario.Scenario{{
		Name: "Navigation sanity", Steps: []scenario.Step{
			{Action: scenario.ActionGoto, Value: "/"},
			{Action: scenario.ActionTestNavigation},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Results[0].Status)
	assert.Contains(t, res.Results[0].Message, base+"/gone")
	assert.NotContains(t, sess.visited, base+"/never")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := readySession()
	e, _ := newTestExecutor(t, testConfig(t), nil, sess, WithProgress(func(ScenarioResult) { cancel() }))

	wait := []scenario.Step{{Action: scenario.ActionWait, Timeout: 1}}
	res, err := e.Run(ctx, []scenario.Scenario{{Name: "a", Steps: wait}, {Name: "b", Steps: wait}})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Results, 2)
	assert.Equal(t, StatusPassed, res.Results[0].Status)
	assert.Equal(t, ScenarioResult{Name: "b", Status: StatusPending}, res.Results[1])
	assert.Equal(t, 1, res.Pending())
	assert.Zero(t, res.Failed())
	assert.Contains(t, res.Message, "1 scenarios not run")
	assert.True(t, sess.closed)
}

func TestResolve(t *testing.T) {
	e, _ := newTestExecutor(t, testConfig(t), nil, readySession())
	assert.Equal(t, base+"/", e.resolve("/"))
	assert.Equal(t, base+"/orders", e.resolve("orders"))
	assert.Equal(t, "https://other.test/x", e.resolve("https://other.test/x"))
}

func TestShotName(t *testing.T) {
	assert.Equal(t, "full-user-journey-01-homepage.png", shotName("Full user journey", 1, "homepage"))
	assert.Equal(t, "auth-12.png", shotName("  Auth!!", 12, ""))
	assert.False(t, strings.ContainsAny(shotName("a/b\\c", 3, "../x"), `/\`))
}
