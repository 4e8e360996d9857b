package executor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/crawler"
	"github.com/v0xg/appscout/internal/scenario"
)

// CursorPosition represents the cursor state at a point in time
type CursorPosition struct {
	X     int
	Y     int
	State CursorState
	Click bool // Whether a click happened at this position
}

// CursorState represents the visual state of the cursor
type CursorState int

const (
	CursorDefault CursorState = iota
	CursorPointer
	CursorText
)

const defaultWait = time.Second

// stepState carries what a scenario's steps share: the last pointer
// position and the screenshot sequence number.
type stepState struct {
	cursor CursorPosition
	shots  int
}

func (e *Executor) runStep(ctx context.Context, sess Session, sc scenario.Scenario, idx int, step scenario.Step, st *stepState, run *RunResult, r *ScenarioResult) error {
	if err := step.Validate(); err != nil {
		return err
	}
	log := e.logger.With(zap.String("scenario", sc.Name), zap.Int("step", idx+1), zap.String("action", string(step.Action)))

	switch step.Action {
	case scenario.ActionGoto:
		url := e.resolve(step.Value)
		log.Debug("navigate", zap.String("url", url))
		return sess.Navigate(ctx, url)

	case scenario.ActionClick:
		pt, ok, err := sess.Click(ctx, step.Selector)
		if err != nil {
			return err
		}
		if !ok {
			log.Debug("control not visible, skipping", zap.String("selector", step.Selector))
			return nil
		}
		st.cursor = cursorAt(pt, CursorPointer, true)
		e.captureReplay(ctx, sess, st, run)
		st.cursor.Click = false
		return nil

	case scenario.ActionFill:
		pt, ok, err := sess.Fill(ctx, step.Selector, step.Value)
		if err != nil {
			return err
		}
		if !ok {
			log.Debug("control not visible, skipping", zap.String("selector", step.Selector))
			return nil
		}
		st.cursor = cursorAt(pt, CursorText, false)
		e.captureReplay(ctx, sess, st, run)
		return nil

	case scenario.ActionWait:
		d := defaultWait
		if step.Timeout > 0 {
			d = time.Duration(step.Timeout) * time.Millisecond
		}
		return e.sleep(ctx, d)

	case scenario.ActionScreenshot:
		data, err := sess.Screenshot(ctx)
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		st.shots++
		path := filepath.Join(e.shotDir, shotName(sc.Name, st.shots, step.Value))
		if err := writeFile(path, data); err != nil {
			return fmt.Errorf("save screenshot: %w", err)
		}
		r.Screenshots = append(r.Screenshots, path)
		e.addFrame(data, st.cursor, run)
		return nil

	case scenario.ActionCheckNoErrors:
		body, err := sess.BodyText(ctx)
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}
		if m := marker(body, e.markers); m != "" {
			return fmt.Errorf("page shows error marker %q", m)
		}
		if step.Expected != "" && !strings.Contains(body, step.Expected) {
			return fmt.Errorf("expected text %q not found", step.Expected)
		}
		return nil

	case scenario.ActionTestNavigation:
		return e.testNavigation(ctx, sess, log)
	}
	return fmt.Errorf("unhandled action %q", step.Action)
}

// testNavigation follows the first few same-origin links and fails on a
// not-found page.
func (e *Executor) testNavigation(ctx context.Context, sess Session, log *zap.Logger) error {
	if e.navLinks <= 0 {
		return nil
	}
	links, err := sess.NavLinks(ctx, e.navLinks)
	if err != nil {
		return err
	}
	for _, link := range links {
		log.Debug("follow link", zap.String("url", link))
		if err := sess.Navigate(ctx, link); err != nil {
			return err
		}
		body, err := sess.BodyText(ctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", link, err)
		}
		if m := marker(body, e.notFound); m != "" {
			return fmt.Errorf("link %s is broken (%q)", link, m)
		}
	}
	return nil
}

// resolve joins a path onto the base URL; absolute URLs pass through.
func (e *Executor) resolve(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return e.baseURL + target
}

func (e *Executor) captureReplay(ctx context.Context, sess Session, st *stepState, run *RunResult) {
	if !e.replay {
		return
	}
	data, err := sess.Screenshot(ctx)
	if err != nil {
		e.logger.Debug("replay frame", zap.Error(err))
		return
	}
	e.addFrame(data, st.cursor, run)
}

func (e *Executor) addFrame(data []byte, cursor CursorPosition, run *RunResult) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		e.logger.Debug("decode frame", zap.Error(err))
		return
	}
	run.Frames = append(run.Frames, Frame{Image: img, Cursor: cursor})
}

func cursorAt(pt crawler.Point, state CursorState, click bool) CursorPosition {
	return CursorPosition{X: pt.X, Y: pt.Y, State: state, Click: click}
}

// shotName builds "<scenario>-<nn>[-<label>].png" from lowercase
// alphanumeric runs.
func shotName(scenarioName string, n int, label string) string {
	name := fmt.Sprintf("%s-%02d", slug(scenarioName), n)
	if s := slug(label); s != "" {
		name += "-" + s
	}
	return name + ".png"
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
