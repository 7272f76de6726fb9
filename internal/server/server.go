// Package server supervises the embedded Huntly backend: a bundled Java
// server jar launched as a child process. One instance per process; the
// sync core only ever talks to it over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/lcomplete/huntly-companion/internal/config"
	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

// ErrDisabled is returned by Start when the embedded server is turned off
// through HUNTLY_NO_SERVER_JAR.
var ErrDisabled = errors.New("server: embedded server is disabled")

// jarFileName is the bundled backend artifact, expected inside the binDir
// passed to New (the CLI passes the data directory's server_bin folder).
const jarFileName = "huntly-server.jar"

// Supervisor owns the embedded server's child process.
type Supervisor struct {
	mu      sync.Mutex
	process *exec.Cmd

	javaPath string
	jarPath  string
	dataDir  string
	port     int
	logger   *slog.Logger
}

// New creates a Supervisor for the server jar bundled under binDir,
// serving on port and storing data under dataDir. javaPath may be empty to
// use the java binary on PATH.
func New(javaPath, binDir, dataDir string, port int, logger *slog.Logger) *Supervisor {
	if javaPath == "" {
		javaPath = "java"
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		javaPath: javaPath,
		jarPath:  filepath.Join(binDir, jarFileName),
		dataDir:  dataDir,
		port:     port,
		logger:   logger,
	}
}

// Start launches the server process. Fails when it is already running or
// when the embedded server is disabled via the environment.
func (s *Supervisor) Start() error {
	if config.ServerJarDisabled() {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.process != nil {
		return errors.New("server: already started")
	}

	cmd := exec.Command(s.javaPath,
		"-jar", s.jarPath,
		"--server.port="+strconv.Itoa(s.port),
		"--huntly.dataDir="+s.dataDir+string(filepath.Separator),
		"--huntly.luceneDir="+filepath.Join(s.dataDir, "lucene"),
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("server: starting %s: %w", s.jarPath, err)
	}

	s.process = cmd
	s.logger.Info("embedded server started",
		slog.Int("pid", cmd.Process.Pid),
		slog.Int("port", s.port),
	)

	return nil
}

// Stop kills the server process and reaps it. A no-op when nothing runs.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cmd := s.process
	s.process = nil
	s.mu.Unlock()

	if cmd == nil {
		return
	}

	if err := cmd.Process.Kill(); err != nil {
		s.logger.Warn("failed to kill embedded server", slog.String("error", err.Error()))
	}

	_ = cmd.Wait()
	s.logger.Info("embedded server stopped")
}

// Started reports whether this supervisor launched a process that has not
// been stopped.
func (s *Supervisor) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.process != nil
}

// URL returns the local server's base URL.
func (s *Supervisor) URL() string {
	return "http://localhost:" + strconv.Itoa(s.port)
}

// Healthy reports whether the server answers its health endpoint,
// regardless of who launched it.
func (s *Supervisor) Healthy(ctx context.Context) bool {
	client := huntlyapi.NewClient(s.URL(), "", huntlyapi.AuthHTTPClient(), s.logger)

	return client.CheckHealth(ctx)
}
