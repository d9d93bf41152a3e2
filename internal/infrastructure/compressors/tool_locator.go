package compressors

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"agreements/internal/domain/entities"
)

// DefaultGhostscriptEnv names the environment variable that overrides discovery
const DefaultGhostscriptEnv = "GHOSTSCRIPT"

// GhostscriptCandidates are the executable names searched on PATH, in order
var GhostscriptCandidates = []string{"gswin64c.exe", "gswin64c", "gswin32c.exe", "gswin32c", "gs"}

// GhostscriptLocator finds the Ghostscript executable. When the override
// variable is set it is authoritative: a path that does not exist means the
// tool is unavailable. The lookup runs once per locator.
type GhostscriptLocator struct {
	EnvVar     string
	Candidates []string
	Getenv     func(string) string
	LookPath   func(string) (string, error)

	once sync.Once
	path string
	err  error
}

// NewGhostscriptLocator creates a locator reading envVar and searching PATH
func NewGhostscriptLocator(envVar string) *GhostscriptLocator {
	if envVar == "" {
		envVar = DefaultGhostscriptEnv
	}
	return &GhostscriptLocator{
		EnvVar:     envVar,
		Candidates: GhostscriptCandidates,
		Getenv:     os.Getenv,
		LookPath:   exec.LookPath,
	}
}

// Locate returns the memoized executable path
func (l *GhostscriptLocator) Locate() (string, error) {
	l.once.Do(func() {
		l.path, l.err = l.lookup()
	})
	return l.path, l.err
}

func (l *GhostscriptLocator) lookup() (string, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if override := getenv(l.EnvVar); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: %s=%s: %v", entities.ErrToolUnavailable, l.EnvVar, override, err)
		}
		return override, nil
	}

	for _, candidate := range l.Candidates {
		if path, err := lookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", entities.ErrToolUnavailable
}
