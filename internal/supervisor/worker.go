// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

type (
	// WorkerSpec describes one worker slot to the command builder.
	WorkerSpec struct {
		// Slot is the worker's index, 0..Workers-1.
		Slot int
		// HeartbeatPath is the file the worker must keep touching.
		HeartbeatPath string
		// HeartbeatInterval is how often the worker touches it.
		HeartbeatInterval time.Duration
		// Entry is the application entry point in module:attr form.
		Entry string
	}

	// WorkerCommandFunc builds the worker process command. The default
	// runs the embedded Python shim; tests substitute their own.
	WorkerCommandFunc func(spec WorkerSpec) *exec.Cmd

	// worker is a live worker process owned by the master.
	worker struct {
		slot          int
		cmd           *exec.Cmd
		heartbeatPath string
		startedAt     time.Time

		// timedOut marks a worker the master killed for a stale
		// heartbeat, so its exit is not mistaken for a crash.
		timedOut bool
	}

	// workerExit reports a reaped worker to the master loop.
	workerExit struct {
		slot   int
		pid    int
		code   int
		uptime time.Duration
	}
)

// pid returns the worker's process id, or -1 before start.
func (w *worker) pid() int {
	if w.cmd.Process == nil {
		return -1
	}
	return w.cmd.Process.Pid
}

// spawnWorker starts a worker for the given slot, wiring the inherited
// listener, heartbeat env and working directory, and reaps it into exitCh
// when it terminates.
func (s *Supervisor) spawnWorker(slot int) (*worker, error) {
	spec := WorkerSpec{
		Slot:              slot,
		HeartbeatPath:     heartbeatFileName(s.heartbeatDir, slot),
		HeartbeatInterval: s.heartbeatInterval,
		Entry:             string(s.cfg.Entry),
	}

	if err := initHeartbeat(spec.HeartbeatPath); err != nil {
		return nil, err
	}

	cmd := s.buildWorkerCommand(spec)

	// The listening socket becomes descriptor 3 in the child.
	cmd.ExtraFiles = []*os.File{s.listenFile}
	cmd.Env = append(cmd.Environ(),
		EnvListenFD+"="+strconv.Itoa(listenFDNumber),
		EnvHeartbeat+"="+spec.HeartbeatPath,
		EnvHeartbeatInterval+"="+strconv.FormatFloat(spec.HeartbeatInterval.Seconds(), 'f', -1, 64),
		EnvEntry+"="+spec.Entry,
		EnvWorkerID+"="+strconv.Itoa(slot),
	)
	if s.cfg.Chdir != "" {
		cmd.Dir = s.cfg.Chdir
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %d: %w", slot, err)
	}

	w := &worker{
		slot:          slot,
		cmd:           cmd,
		heartbeatPath: spec.HeartbeatPath,
		startedAt:     time.Now(),
	}

	go func() {
		err := cmd.Wait()
		code := 0
		if err != nil {
			code = cmd.ProcessState.ExitCode()
		}
		s.exitCh <- workerExit{
			slot:   slot,
			pid:    w.pid(),
			code:   code,
			uptime: time.Since(w.startedAt),
		}
	}()

	s.logger.Info("worker started", "slot", slot, "pid", w.pid())
	return w, nil
}

// buildWorkerCommand builds the worker process command, honoring the test
// override.
func (s *Supervisor) buildWorkerCommand(spec WorkerSpec) *exec.Cmd {
	if s.cfg.WorkerCommand != nil {
		return s.cfg.WorkerCommand(spec)
	}
	return exec.Command(s.cfg.pythonBinary(), "-u", "-c", workerShim)
}
