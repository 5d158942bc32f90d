package edgedriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Runner launches a driver binary and verifies it can serve a WebDriver
// session. A nil error means the binary is usable.
type Runner interface {
	Check(ctx context.Context, binaryPath string) error
}

// serviceRunner is the production Runner: it starts the binary as a
// subprocess, opens a headless browser session against it, holds the
// session briefly and tears everything down again. Opening the session
// is the part that catches a driver/browser version mismatch.
type serviceRunner struct {
	browserPath string
	output      io.Writer
}

func (r serviceRunner) Check(ctx context.Context, binaryPath string) error {
	port, err := pickUnusedPort()
	if err != nil {
		return fmt.Errorf("picking probe port: %v", err)
	}
	svc, err := NewDriverService(binaryPath, port, Output(r.output))
	if err != nil {
		return err
	}
	defer svc.Stop()

	sessionID, err := newSession(ctx, svc.Addr(), r.browserPath)
	if err != nil {
		return err
	}
	time.Sleep(time.Second)
	return deleteSession(ctx, svc.Addr(), sessionID)
}

// newSession opens a headless MicrosoftEdge session and returns its ID.
func newSession(ctx context.Context, addr, browserPath string) (string, error) {
	edgeOpts := map[string]interface{}{
		"args": []string{"--headless=new", "--disable-gpu", "--no-first-run"},
	}
	if browserPath != "" {
		edgeOpts["binary"] = browserPath
	}
	payload := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": map[string]interface{}{
				"browserName":    "MicrosoftEdge",
				"ms:edgeOptions": edgeOpts,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/session", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating session: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading session response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("creating session: status %s: %s", resp.Status, firstLine(data))
	}

	var reply struct {
		// W3C-style reply.
		Value struct {
			SessionID string `json:"sessionId"`
			Error     string `json:"error"`
			Message   string `json:"message"`
		} `json:"value"`
		// Legacy reply carries the ID at the top level.
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("parsing session response: %v", err)
	}
	if reply.Value.Error != "" {
		return "", fmt.Errorf("creating session: %s: %s", reply.Value.Error, reply.Value.Message)
	}
	id := reply.Value.SessionID
	if id == "" {
		id = reply.SessionID
	}
	if id == "" {
		return "", fmt.Errorf("session response carries no session ID: %s", firstLine(data))
	}
	return id, nil
}

func deleteSession(ctx context.Context, addr, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, addr+"/session/"+sessionID, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("closing session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("closing session: status %s", resp.Status)
	}
	return nil
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}
