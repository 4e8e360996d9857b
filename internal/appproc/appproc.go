// Package appproc starts the application under test as a subprocess and
// stops it, together with anything it spawned, when a run ends.
package appproc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// ErrNoStartCommand is returned when no start command is configured and
// none can be derived from package.json.
var ErrNoStartCommand = errors.New("no start command")

// stopGrace is how long Stop waits after the polite signal.
const stopGrace = 5 * time.Second

// Process is one application subprocess.
type Process struct {
	dir     string
	command string
	env     []string
	logger  *zap.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	out     *zapio.Writer
	done    chan struct{}
	waitErr error
}

// New prepares a process rooted at dir. An empty command is derived from
// the project's package.json.
func New(dir, command string, env []string, logger *zap.Logger) (*Process, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if command == "" {
		detected, err := DetectStartCommand(dir)
		if err != nil {
			return nil, err
		}
		command = detected
	}
	return &Process{dir: dir, command: command, env: env, logger: logger}, nil
}

// Command returns the command line the process runs.
func (p *Process) Command() string {
	return p.command
}

// Start launches the process. Its output is logged at debug level.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return fmt.Errorf("process already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	args := strings.Fields(p.command)
	if len(args) == 0 {
		return ErrNoStartCommand
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = p.dir
	cmd.Env = append(os.Environ(), p.env...)
	out := &zapio.Writer{Log: p.logger.Named("app"), Level: zap.DebugLevel}
	cmd.Stdout = out
	cmd.Stderr = out
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", p.command, err)
	}
	p.logger.Info("application started", zap.String("command", p.command), zap.Int("pid", cmd.Process.Pid))

	p.cmd = cmd
	p.out = out
	p.done = make(chan struct{})
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return nil
}

// Exited reports whether the process has already terminated on its own.
func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stop terminates the process group, escalating to a kill after a grace
// period. Stopping a process that never started is a no-op.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	defer func() {
		_ = p.out.Close()
		p.cmd = nil
	}()

	select {
	case <-p.done:
		p.logger.Debug("application had already exited", zap.Error(p.waitErr))
		return nil
	default:
	}

	if err := terminate(p.cmd); err != nil {
		p.logger.Debug("terminate application", zap.Error(err))
	}
	select {
	case <-p.done:
	case <-time.After(stopGrace):
		p.logger.Warn("application ignored terminate, killing")
		if err := kill(p.cmd); err != nil {
			return fmt.Errorf("kill application: %w", err)
		}
		<-p.done
	}
	p.logger.Info("application stopped")
	return nil
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

// DetectStartCommand derives "<manager> run <script>" from package.json,
// preferring the dev script over start. The package manager follows the
// lockfile present in dir.
func DetectStartCommand(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s has no package.json", ErrNoStartCommand, dir)
		}
		return "", fmt.Errorf("read package.json: %w", err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", fmt.Errorf("parse package.json: %w", err)
	}

	script := ""
	for _, name := range []string{"dev", "start"} {
		if _, ok := pkg.Scripts[name]; ok {
			script = name
			break
		}
	}
	if script == "" {
		return "", fmt.Errorf("%w: package.json has neither a dev nor a start script", ErrNoStartCommand)
	}
	return packageManager(dir) + " run " + script, nil
}

func packageManager(dir string) string {
	lockfiles := []struct{ file, manager string }{
		{"pnpm-lock.yaml", "pnpm"},
		{"yarn.lock", "yarn"},
		{"bun.lockb", "bun"},
		{"bun.lock", "bun"},
	}
	for _, l := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, l.file)); err == nil {
			return l.manager
		}
	}
	return "npm"
}
