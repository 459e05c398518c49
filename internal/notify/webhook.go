package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/sudo-sidd/neuropilot/internal/credential"
)

const (
	agentExecutable  = "neuropilot-agent"
	agentLockfile    = "agent.lock"
	secretCredential = "notifier-secret"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
	storeSecretFunc   = credential.Set
	eraseSecretFunc   = credential.Delete
)

// WebhookNotifier delivers reminder requests to the local notification
// agent process over its loopback webhook. The agent advertises its port
// and PID in a lockfile; the shared secret lives in the system keyring.
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier creates a notifier targeting the local agent.
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{client: &http.Client{Timeout: 5 * time.Second}}
}

type scheduleRequest struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	FireAt string `json:"fire_at"`
}

type scheduleResponse struct {
	ReminderID string `json:"reminder_id"`
}

// ScheduleReminder posts a schedule request to the agent and returns the
// agent-assigned reminder handle.
func (n *WebhookNotifier) ScheduleReminder(
	ctx context.Context,
	taskID, title, body string,
	fireAt time.Time,
) (string, error) {
	port, secret, err := findAgent()
	if err != nil {
		return "", err
	}

	payload := scheduleRequest{
		TaskID: taskID,
		Title:  title,
		Body:   body,
		FireAt: fireAt.UTC().Format(time.RFC3339),
	}
	respBody, err := n.post(ctx, port, secret, "/schedule", payload)
	if err != nil {
		return "", err
	}

	var resp scheduleResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parsing schedule response: %w", err)
	}
	if resp.ReminderID == "" {
		return "", errors.New("agent returned empty reminder id")
	}
	return resp.ReminderID, nil
}

// CancelReminder asks the agent to drop a scheduled reminder.
func (n *WebhookNotifier) CancelReminder(ctx context.Context, reminderID string) error {
	port, secret, err := findAgent()
	if err != nil {
		return err
	}
	_, err = n.post(ctx, port, secret, "/cancel", map[string]string{
		"reminder_id": reminderID,
	})
	return err
}

func (n *WebhookNotifier) post(
	ctx context.Context,
	port, secret, path string,
	payload interface{},
) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("http://127.0.0.1:%s%s", port, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Neuropilot-Secret", secret)

	res, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent request failed with status %d: %s", res.StatusCode, string(respBody))
	}
	return respBody, nil
}

// ProvisionSecret stores the shared secret the agent will expect on
// webhook requests. Run once when pairing the app with a freshly
// installed agent; schedule and cancel calls fail until it has run.
func ProvisionSecret(secret string) error {
	if secret == "" {
		return errors.New("notifier secret must not be empty")
	}
	return storeSecretFunc(secretCredential, secret)
}

// ClearSecret removes the provisioned secret, unpairing the agent.
func ClearSecret() error {
	return eraseSecretFunc(secretCredential)
}

// findAgent locates the running notification agent: the lockfile holds
// "port|pid", the PID must belong to a live agent process, and the shared
// secret comes from the system keyring.
func findAgent() (string, string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	content, err := os.ReadFile(filepath.Join(configDir, "neuropilot", agentLockfile))
	if err != nil {
		return "", "", errors.New("notification agent is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return "", "", errors.New("agent lockfile is malformed")
	}

	port := parts[0]
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return "", "", errors.New("invalid port in agent lockfile")
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in agent lockfile")
	}
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errors.New("notification agent process not running")
	}
	if !strings.HasPrefix(process.Executable(), agentExecutable) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, agentExecutable, process.Executable())
	}

	secret, err := credential.Get(secretCredential)
	if err != nil {
		return "", "", fmt.Errorf("notifier secret not provisioned: %w", err)
	}
	return port, secret, nil
}
