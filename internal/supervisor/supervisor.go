// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"gantry/pkg/appfile"
)

const (
	// defaultPython is the interpreter the worker shim runs under.
	defaultPython = "python3"

	// shutdownGrace is how long workers get to exit after SIGTERM before
	// they are killed.
	shutdownGrace = 10 * time.Second

	// bootGrace separates a crash during startup from a crash in steady
	// state; only sub-grace exits count toward the failure streak or
	// qualify as boot failures.
	bootGrace = 2 * time.Second

	// maxFailureStreak is how many consecutive rapid worker crashes the
	// master tolerates before giving up.
	maxFailureStreak = 5

	// minCheckInterval bounds the heartbeat poll so tiny timeouts don't
	// spin the master.
	minCheckInterval = 50 * time.Millisecond
)

var (
	// ErrBootFailure means a worker could not import the application
	// entry point. The supervisor exits without serving any connection.
	ErrBootFailure = errors.New("application failed to boot")

	// ErrWorkersCrashing means workers kept dying right after spawn.
	ErrWorkersCrashing = errors.New("workers are crashing repeatedly")
)

type (
	// Config configures a Supervisor.
	Config struct {
		// Bind is the address the master listens on, host:port.
		Bind string
		// Workers is the number of worker processes.
		Workers int
		// Timeout is the per-request timeout; a worker whose heartbeat
		// is older than this is killed and replaced.
		Timeout time.Duration
		// Chdir is the working directory workers change into before
		// the entry point is resolved. Empty means the current one.
		Chdir string
		// Entry is the WSGI entry point in module:attr form.
		Entry appfile.Entrypoint
		// Python overrides the worker interpreter (default python3).
		Python string
		// Logger defaults to a stderr logger with a "supervisor" prefix.
		Logger *log.Logger
		// HeartbeatDir overrides where heartbeat files live. Empty
		// means a fresh temporary directory, removed on exit.
		HeartbeatDir string
		// WorkerCommand substitutes the worker process. Tests use it
		// to run controllable stand-ins instead of the Python shim.
		WorkerCommand WorkerCommandFunc
		// OnReady, when set, is called once with the bound address
		// before any worker is spawned.
		OnReady func(addr net.Addr)
	}

	// Supervisor is the prefork master process.
	Supervisor struct {
		cfg               Config
		logger            *log.Logger
		listener          *net.TCPListener
		listenFile        *os.File
		heartbeatDir      string
		heartbeatInterval time.Duration
		workers           []*worker
		exitCh            chan workerExit
	}
)

// pythonBinary returns the configured worker interpreter.
func (c *Config) pythonBinary() string {
	if c.Python != "" {
		return c.Python
	}
	return defaultPython
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Bind == "" {
		errs = append(errs, errors.New("bind address must not be empty"))
	} else if _, _, err := net.SplitHostPort(c.Bind); err != nil {
		errs = append(errs, fmt.Errorf("bind address %q is not host:port: %w", c.Bind, err))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("worker count %d must be at least 1", c.Workers))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout %s must be positive", c.Timeout))
	}
	if err := c.Entry.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// New creates a Supervisor. The listener is not bound until Run.
func New(cfg Config) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "supervisor"})
	}

	return &Supervisor{
		cfg:    cfg,
		logger: logger,
		// Workers touch their heartbeat at half the timeout so a
		// healthy worker is never mistaken for a stalled one.
		heartbeatInterval: cfg.Timeout / 2,
		exitCh:            make(chan workerExit, cfg.Workers),
	}, nil
}

// Run binds the listener, spawns the workers and supervises them until ctx
// is canceled (graceful shutdown, nil return) or a fatal condition occurs.
func (s *Supervisor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.Bind, err)
	}
	defer func() { _ = ln.Close() }()

	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return fmt.Errorf("listener on %s is not a TCP listener", s.cfg.Bind)
	}
	s.listener = tcpLn

	// The dup'd file keeps the socket alive for ExtraFiles inheritance.
	s.listenFile, err = tcpLn.File()
	if err != nil {
		return fmt.Errorf("failed to obtain listener file: %w", err)
	}
	defer func() { _ = s.listenFile.Close() }()

	if s.cfg.HeartbeatDir != "" {
		s.heartbeatDir = s.cfg.HeartbeatDir
	} else {
		s.heartbeatDir, err = os.MkdirTemp("", "gantry-hb-*")
		if err != nil {
			return fmt.Errorf("failed to create heartbeat directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(s.heartbeatDir) }()
	}

	s.logger.Info("listening", "addr", ln.Addr(), "workers", s.cfg.Workers, "timeout", s.cfg.Timeout)
	if s.cfg.OnReady != nil {
		s.cfg.OnReady(ln.Addr())
	}

	s.workers = make([]*worker, s.cfg.Workers)
	for slot := range s.workers {
		w, err := s.spawnWorker(slot)
		if err != nil {
			s.terminateAll()
			return err
		}
		s.workers[slot] = w
	}

	checkInterval := s.cfg.Timeout / 4
	if checkInterval < minCheckInterval {
		checkInterval = minCheckInterval
	}
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	failureStreak := 0

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down")
			s.terminateAll()
			return nil

		case exit := <-s.exitCh:
			timedOut := s.workers[exit.slot] != nil && s.workers[exit.slot].timedOut
			s.workers[exit.slot] = nil

			// Exit code 3 is only a boot failure when it happens right
			// after spawn; a long-lived worker can exit 3 for its own
			// reasons and gets respawned like any other crash.
			if exit.code == BootFailureExitCode && exit.uptime < bootGrace {
				s.logger.Error("worker could not load the application entry point",
					"slot", exit.slot, "pid", exit.pid, "entry", string(s.cfg.Entry))
				s.terminateAll()
				return fmt.Errorf("%w: entry point %s is not importable", ErrBootFailure, s.cfg.Entry)
			}

			// Kills the master issued for stale heartbeats are part
			// of normal operation, not a crash loop.
			switch {
			case timedOut:
				failureStreak = 0
			case exit.uptime < bootGrace:
				failureStreak++
			default:
				failureStreak = 0
			}
			if failureStreak >= maxFailureStreak {
				s.logger.Error("giving up after repeated worker crashes", "streak", failureStreak)
				s.terminateAll()
				return fmt.Errorf("%w: %d consecutive crashes within %s of spawn",
					ErrWorkersCrashing, failureStreak, bootGrace)
			}

			s.logger.Warn("worker exited, respawning", "slot", exit.slot, "pid", exit.pid, "code", exit.code)
			w, err := s.spawnWorker(exit.slot)
			if err != nil {
				s.terminateAll()
				return err
			}
			s.workers[exit.slot] = w

		case <-ticker.C:
			s.killStaleWorkers()
		}
	}
}

// killStaleWorkers kills any worker whose heartbeat has gone stale. The
// reaped exit flows through exitCh and triggers the normal respawn path, so
// sibling workers are untouched.
func (s *Supervisor) killStaleWorkers() {
	now := time.Now()
	for _, w := range s.workers {
		if w == nil {
			continue
		}
		if stale(w.heartbeatPath, s.cfg.Timeout, now) && !w.timedOut {
			s.logger.Warn("worker timed out, killing",
				"slot", w.slot, "pid", w.pid(),
				"age", heartbeatAge(w.heartbeatPath, now).Round(time.Millisecond))
			w.timedOut = true
			_ = w.cmd.Process.Kill()
		}
	}
}

// terminateAll stops every live worker: SIGTERM first, SIGKILL for any
// worker that outlives the grace period.
func (s *Supervisor) terminateAll() {
	live := 0
	for _, w := range s.workers {
		if w == nil {
			continue
		}
		live++
		_ = w.cmd.Process.Signal(syscall.SIGTERM)
	}

	deadline := time.NewTimer(shutdownGrace)
	defer deadline.Stop()

	for live > 0 {
		select {
		case exit := <-s.exitCh:
			s.workers[exit.slot] = nil
			live--
		case <-deadline.C:
			for _, w := range s.workers {
				if w != nil {
					_ = w.cmd.Process.Kill()
				}
			}
			// One more grace for the kills to be reaped.
			killDeadline := time.NewTimer(time.Second)
			defer killDeadline.Stop()
			for live > 0 {
				select {
				case exit := <-s.exitCh:
					s.workers[exit.slot] = nil
					live--
				case <-killDeadline.C:
					return
				}
			}
			return
		}
	}
}
