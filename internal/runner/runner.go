// Package runner maps script files to their interpreters and executes
// them, capturing output.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Kind identifies the interpreter a script needs.
type Kind int

const (
	Bash Kind = iota
	PowerShell
	Python
)

// KindFor returns the interpreter kind for a path, based on its
// extension, or ok=false for unsupported files.
func KindFor(path string) (Kind, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "bash", "sh":
		return Bash, true
	case "ps1":
		return PowerShell, true
	case "py":
		return Python, true
	}
	return 0, false
}

// Extensions lists the supported script extensions, in probe order.
func Extensions() []string {
	return []string{"bash", "sh", "ps1", "py"}
}

// Output is the captured result of one script execution.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
}

// Runner executes a script with an argument list.
type Runner interface {
	Run(ctx context.Context, script string, args []string) (*Output, error)
}

// ExecRunner runs scripts through their interpreter as a subprocess.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the script and waits for completion. A non-zero exit
// is reported through Output, not as an error; only launch failures
// return an error.
func (r *ExecRunner) Run(ctx context.Context, script string, args []string) (*Output, error) {
	cmd, err := commandFor(ctx, script, args)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("launch %s: %w", script, runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Success:  exitCode == 0,
	}, nil
}

func commandFor(ctx context.Context, script string, args []string) (*exec.Cmd, error) {
	kind, ok := KindFor(script)
	if !ok {
		return nil, fmt.Errorf("unsupported script type: %s", script)
	}

	var argv []string
	switch kind {
	case Bash:
		argv = []string{"bash", script}
	case PowerShell:
		argv = []string{powershellProgram(), "-NoProfile", "-File", script}
	case Python:
		argv = []string{pythonProgram(), script}
	}
	argv = append(argv, args...)
	return exec.CommandContext(ctx, argv[0], argv[1:]...), nil
}

func powershellProgram() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "pwsh"
}

func pythonProgram() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}
