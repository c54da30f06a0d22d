// Package shell provides the process launcher adapter.
package shell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/themperek/rig/internal/core/domain"
	"github.com/themperek/rig/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// killDelay bounds how long a cancelled child process may linger before it
// is killed outright.
const killDelay = 5 * time.Second

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs argv with the merged environment, streaming output to the
// logger while retaining the last 4KiB for diagnostics. The environment is
// merged with the following priority (low to high):
// 1. os.Environ() (system base)
// 2. env (caller-provided extras; PATH entries are prepended, not replaced)
func (e *Executor) Execute(ctx context.Context, argv []string, env []string, dir string) (domain.CommandResult, error) {
	if len(argv) == 0 {
		return domain.CommandResult{ExitCode: -1}, zerr.Wrap(domain.ErrActionExecution, "empty command")
	}

	name := argv[0]
	cmdEnv := resolveEnvironment(os.Environ(), env)

	// Resolve the executable using the merged environment's PATH, so a PATH
	// extension applied earlier in the run is honored here.
	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		// exec.CommandContext sets Args[0] to the resolved executable path;
		// keep the name as invoked.
		cmd.Args[0] = name
	}
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = cmdEnv
	cmd.WaitDelay = killDelay

	tail := domain.NewTailBuffer(domain.OutputTailSize)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.CommandResult{ExitCode: -1}, zerr.Wrap(err, domain.ErrActionExecution.Error())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return domain.CommandResult{ExitCode: -1}, zerr.Wrap(err, domain.ErrActionExecution.Error())
	}

	if err := cmd.Start(); err != nil {
		return domain.CommandResult{ExitCode: -1},
			zerr.With(zerr.Wrap(err, domain.ErrActionExecution.Error()), "command", name)
	}

	// Drain both pipes concurrently; the pipes must be fully consumed
	// before Wait.
	var g errgroup.Group
	g.Go(func() error {
		e.drain(stdout, tail, e.logger.Info)
		return nil
	})
	g.Go(func() error {
		e.drain(stderr, tail, e.logger.Warn)
		return nil
	})
	_ = g.Wait()

	waitErr := cmd.Wait()
	result := domain.CommandResult{
		ExitCode:   exitCode(waitErr),
		OutputTail: tail.String(),
	}

	if waitErr == nil {
		return result, nil
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, zerr.With(domain.ErrTimeout, "command", name)
	}
	return result, zerr.With(
		zerr.With(zerr.Wrap(waitErr, domain.ErrActionExecution.Error()), "command", name),
		"exit_code", result.ExitCode,
	)
}

// drain reads r line by line, forwarding each line to log and the raw bytes
// to the tail buffer.
func (e *Executor) drain(r io.Reader, tail *domain.TailBuffer, log func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		_, _ = tail.Write(append([]byte(line), '\n'))
		log(line)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1 // unknown or signal
}

// resolveEnvironment merges environment variables with the defined
// priority. PATH is special: extra PATH entries are prepended to the system
// PATH instead of replacing it.
func resolveEnvironment(sysEnv, extra []string) []string {
	envMap := make(map[string]string)
	var order []string
	set := func(k, v string) {
		if _, ok := envMap[k]; !ok {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			set(k, v)
		}
	}

	for _, entry := range extra {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				set(k, v+string(os.PathListSeparator)+sysPath)
				continue
			}
		}
		set(k, v)
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env, not the process's own PATH.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
