package edgedriver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// newExecCommand is stubbed out in tests.
var newExecCommand = exec.Command

// ServiceOption configures a Service instance.
type ServiceOption func(*Service) error

// Output specifies that the driver process should log to the provided
// writer.
func Output(w io.Writer) ServiceOption {
	return func(s *Service) error {
		s.output = w
		return nil
	}
}

// Verbose passes --verbose to the driver binary.
func Verbose() ServiceOption {
	return func(s *Service) error {
		s.verbose = true
		return nil
	}
}

// Service controls a locally-running Edge WebDriver subprocess.
type Service struct {
	port int
	addr string
	cmd  *exec.Cmd

	verbose bool
	output  io.Writer
}

// Addr returns the base URL the driver is listening on.
func (s *Service) Addr() string { return s.addr }

// NewDriverService starts the driver binary at path in the background
// and waits until its /status endpoint responds. On failure the process
// is not left running.
func NewDriverService(path string, port int, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		port: port,
		addr: fmt.Sprintf("http://localhost:%d", port),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	args := []string{"--port=" + strconv.Itoa(port)}
	if s.verbose {
		args = append(args, "--verbose")
	}
	cmd := newExecCommand(path, args...)
	cmd.Stdout = s.output
	cmd.Stderr = s.output
	cmd.Env = os.Environ()
	s.cmd = cmd

	if err := s.start(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) start() error {
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %v", s.cmd.Path, err)
	}
	for i := 0; i < 30; i++ {
		time.Sleep(500 * time.Millisecond)
		resp, err := http.Get(s.addr + "/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
	// The probe never came up; reap the process rather than leak it.
	s.cmd.Process.Kill()
	s.cmd.Wait()
	return fmt.Errorf("driver did not respond on port %d", s.port)
}

// Stop terminates the driver process. It must be called on every exit
// path once NewDriverService has succeeded.
func (s *Service) Stop() error {
	if err := s.cmd.Process.Kill(); err != nil {
		return err
	}
	if err := s.cmd.Wait(); err != nil {
		// A killed process reports a non-zero exit; that is expected.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return err
		}
	}
	return nil
}

// pickUnusedPort asks the kernel for a free TCP port to run the driver
// probe on.
func pickUnusedPort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
