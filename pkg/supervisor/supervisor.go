// Package supervisor launches the workflow engine once at startup and waits
// for it to report healthy.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dukex/swf-backend/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// State is a step of the engine lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateLaunching  State = "launching"
	StatePolling    State = "polling"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// StderrPolicy decides what launch output on stderr means.
type StderrPolicy string

const (
	// StderrFail treats any stderr output as a failed launch.
	StderrFail StderrPolicy = "fail"
	// StderrWarn logs stderr output and keeps polling.
	StderrWarn StderrPolicy = "warn"
)

// ParseStderrPolicy validates a policy name.
func ParseStderrPolicy(value string) (StderrPolicy, error) {
	switch StderrPolicy(value) {
	case StderrFail, StderrWarn:
		return StderrPolicy(value), nil
	case "":
		return StderrFail, nil
	default:
		return "", fmt.Errorf("unknown stderr policy %q", value)
	}
}

// ErrLaunchStderr reports launch output on stderr under the fail policy.
var ErrLaunchStderr = errors.New("engine launch wrote to stderr")

// Handle is the supervisory record of the launched engine.
type Handle struct {
	State       State  `json:"state"`
	Ready       bool   `json:"ready"`
	Port        int    `json:"port"`
	ResourceDir string `json:"resourceDir"`
	Image       string `json:"image"`
	ContainerID string `json:"containerId,omitempty"`
	Attempts    int    `json:"attempts"`
	Error       string `json:"error,omitempty"`
}

// Config holds the engine launch and readiness settings.
type Config struct {
	Image        string
	Port         int
	HostDir      string
	ContainerDir string
	Interval     time.Duration
	MaxAttempts  int
	StderrPolicy StderrPolicy
}

// Supervisor runs the launch and poll sequence exactly once.
type Supervisor struct {
	config   Config
	launcher Launcher
	check    HealthCheck
	logger   *slog.Logger

	mu     sync.RWMutex
	handle Handle
	once   sync.Once
}

// New creates a supervisor in the NotStarted state.
func New(config Config, launcher Launcher, check HealthCheck, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		config:   config,
		launcher: launcher,
		check:    check,
		logger:   logger.With("module", "supervisor"),
		handle: Handle{
			State: StateNotStarted,
			Port:  config.Port,
			Image: config.Image,
		},
	}
}

// Handle returns a snapshot of the engine record.
func (s *Supervisor) Handle() Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.handle
}

func (s *Supervisor) update(fn func(h *Handle)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.handle)
}

func (s *Supervisor) fail(err error) Handle {
	s.update(func(h *Handle) {
		h.State = StateFailed
		h.Ready = false
		h.Error = err.Error()
	})

	return s.Handle()
}

// Start launches the engine and polls its health until ready or exhausted.
// Failure leaves the handle in StateFailed; it never aborts the caller.
// Calls after the first return the current handle.
func (s *Supervisor) Start(ctx context.Context) Handle {
	s.once.Do(func() {
		s.run(ctx)
	})

	return s.Handle()
}

func (s *Supervisor) run(ctx context.Context) {
	ctx, span := otelhelper.StartSpan(ctx, otelhelper.Tracer("swf-backend/supervisor"), "supervisor.start",
		attribute.String(otelhelper.EngineImageKey, s.config.Image),
		attribute.Int(otelhelper.EnginePortKey, s.config.Port),
	)
	defer span.End()

	s.update(func(h *Handle) { h.State = StateLaunching })

	hostDir, err := filepath.Abs(s.config.HostDir)
	if err != nil {
		s.logger.Error("Failed to resolve engine resource directory", "path", s.config.HostDir, "error", err)
		otelhelper.SetError(span, err)
		s.fail(err)

		return
	}

	s.update(func(h *Handle) { h.ResourceDir = hostDir })

	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		s.logger.Error("Failed to create engine resource directory", "path", hostDir, "error", err)
		otelhelper.SetError(span, err)
		s.fail(err)

		return
	}

	s.logger.Info("Launching workflow engine",
		"image", s.config.Image,
		"port", s.config.Port,
		"resource_dir", hostDir,
	)

	result, err := s.launcher.Launch(ctx, LaunchSpec{
		Image:        s.config.Image,
		Port:         s.config.Port,
		HostDir:      hostDir,
		ContainerDir: s.config.ContainerDir,
	})
	if err != nil {
		s.logger.Error("Failed to launch workflow engine", "error", err)
		otelhelper.SetError(span, err)
		s.fail(err)

		return
	}

	s.update(func(h *Handle) { h.ContainerID = result.ContainerID })

	if result.Stderr != "" {
		if s.config.StderrPolicy != StderrWarn {
			err := fmt.Errorf("%w: %s", ErrLaunchStderr, result.Stderr)
			s.logger.Error("Workflow engine launch reported errors", "stderr", result.Stderr)
			otelhelper.SetError(span, err)
			s.fail(err)

			return
		}

		s.logger.Warn("Workflow engine launch wrote to stderr", "stderr", result.Stderr)
	}

	s.update(func(h *Handle) { h.State = StatePolling })

	attempts, err := Poll(ctx, s.check, s.config.Interval, s.config.MaxAttempts)

	s.update(func(h *Handle) { h.Attempts = attempts })

	if err != nil {
		s.logger.Error("Workflow engine failed to start. Workflow definitions could not be loaded.",
			"attempts", attempts,
			"error", err,
		)
		otelhelper.SetError(span, err)
		s.fail(err)

		return
	}

	s.update(func(h *Handle) {
		h.State = StateReady
		h.Ready = true
	})

	s.logger.Info("Workflow engine is ready", "attempts", attempts, "container_id", result.ContainerID)
}
