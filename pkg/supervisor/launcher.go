package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const enginePort = "8080"

// LaunchSpec describes the engine container to start.
type LaunchSpec struct {
	Image        string
	Port         int
	HostDir      string
	ContainerDir string
}

// LaunchResult is the outcome of a successful launch call.
type LaunchResult struct {
	ContainerID string
	Stderr      string
}

// Launcher starts the engine in an isolated runtime environment.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (*LaunchResult, error)
}

// CommandRunner runs one external command and returns its output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes name with args and captures both output streams.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // arguments come from configuration

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), err
}

// CommandLauncher starts the engine with the docker CLI in detached mode.
type CommandLauncher struct {
	Command string
	Runner  CommandRunner
}

// NewCommandLauncher creates a launcher using the docker binary on PATH.
func NewCommandLauncher() *CommandLauncher {
	return &CommandLauncher{
		Command: "docker",
		Runner:  ExecRunner{},
	}
}

// Args builds the docker arguments for spec.
func (l *CommandLauncher) Args(spec LaunchSpec) []string {
	return []string{
		"run", "-d",
		"--add-host", "host.docker.internal:host-gateway",
		"--rm",
		"-p", strconv.Itoa(spec.Port) + ":" + enginePort,
		"-v", spec.HostDir + ":" + spec.ContainerDir,
		spec.Image,
	}
}

// Launch runs the docker command. A non-zero exit is an error; stderr output
// is returned for the caller's policy to judge.
func (l *CommandLauncher) Launch(ctx context.Context, spec LaunchSpec) (*LaunchResult, error) {
	args := l.Args(spec)

	stdout, stderr, err := l.Runner.Run(ctx, l.Command, args...)
	if err != nil {
		detail := stderr
		if detail == "" {
			detail = stdout
		}

		return nil, fmt.Errorf("%s %s failed: %s: %w", l.Command, strings.Join(args, " "), detail, err)
	}

	return &LaunchResult{ContainerID: stdout, Stderr: stderr}, nil
}

// NoopLauncher is used when the engine is managed outside this process.
type NoopLauncher struct{}

// Launch does nothing.
func (NoopLauncher) Launch(context.Context, LaunchSpec) (*LaunchResult, error) {
	return &LaunchResult{}, nil
}
