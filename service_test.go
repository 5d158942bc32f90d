package edgedriver

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewDriverService(t *testing.T) {
	// Stand in for the driver process: a server that answers /status
	// while a harmless subprocess plays the part of the binary.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"value":{"ready":true}}`))
	}))
	defer ts.Close()
	port := ts.Listener.Addr().(*net.TCPAddr).Port

	var gotName string
	var gotArgs []string
	newExecCommand = func(name string, args ...string) *exec.Cmd {
		gotName = name
		gotArgs = args
		return exec.Command("sleep", "60")
	}
	defer func() { newExecCommand = exec.Command }()

	svc, err := NewDriverService("/opt/driver/msedgedriver", port, Verbose())
	if err != nil {
		t.Fatalf("NewDriverService returned error: %s", err)
	}
	defer svc.Stop()

	if got, want := gotName, "/opt/driver/msedgedriver"; got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
	wantArgs := []string{"--port=" + strconv.Itoa(port), "--verbose"}
	if diff := cmp.Diff(wantArgs, gotArgs); diff != "" {
		t.Errorf("args returned diff (-want/+got):\n%s", diff)
	}
	if got, want := svc.Addr(), "http://localhost:"+strconv.Itoa(port); got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}

func TestNewDriverServiceStartFailure(t *testing.T) {
	newExecCommand = func(name string, args ...string) *exec.Cmd {
		return exec.Command("/this/binary/does/not/exist")
	}
	defer func() { newExecCommand = exec.Command }()

	if _, err := NewDriverService("msedgedriver", 4444); err == nil {
		t.Fatalf("NewDriverService returned nil error for an unlaunchable binary")
	}
}

func TestServiceStop(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()
	port := ts.Listener.Addr().(*net.TCPAddr).Port

	newExecCommand = func(name string, args ...string) *exec.Cmd {
		return exec.Command("sleep", "60")
	}
	defer func() { newExecCommand = exec.Command }()

	svc, err := NewDriverService("msedgedriver", port)
	if err != nil {
		t.Fatalf("NewDriverService returned error: %s", err)
	}
	if err := svc.Stop(); err != nil {
		t.Errorf("Stop returned error: %s", err)
	}
}

func TestPickUnusedPort(t *testing.T) {
	port, err := pickUnusedPort()
	if err != nil {
		t.Fatalf("pickUnusedPort returned error: %s", err)
	}
	if port <= 0 {
		t.Errorf("pickUnusedPort = %d, want a positive port", port)
	}
}
