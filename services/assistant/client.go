package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"senara/models"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ErrRunActive is returned when the remote side rejects an operation
// because a run is still active on the thread. The undocumented error text
// is matched in exactly one place (classifyError) so callers can rely on
// errors.Is instead of substring checks.
var ErrRunActive = errors.New("a run is already active on this thread")

// APIError is a non-conflict remote failure.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai api error (status %d): %s", e.StatusCode, e.Message)
}

// Client is the surface of the remote assistant runtime the run manager
// depends on. Tests substitute a scripted implementation.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (*models.AssistantRun, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*models.AssistantRun, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error
	LatestAssistantMessage(ctx context.Context, threadID string) (string, error)
	CreateAssistant(ctx context.Context, name, model, instructions string, tools []ToolDefinition) (string, error)
}

// OpenAIClient talks to the Assistants v2 REST API.
type OpenAIClient struct {
	client *resty.Client
}

// NewOpenAIClient creates an Assistants API client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetAuthToken(apiKey)
	client.SetHeader("OpenAI-Beta", "assistants=v2")
	client.SetHeader("Content-Type", "application/json")
	return &OpenAIClient{client: client}
}

type apiErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// classifyError turns a non-2xx response into either ErrRunActive or an
// APIError. The "while a run ... is active" message is the remote side's
// only signal for the conflict, alongside the occasional 409.
func classifyError(resp *resty.Response) error {
	var env apiErrorEnvelope
	_ = json.Unmarshal(resp.Body(), &env)

	msg := env.Error.Message
	if resp.StatusCode() == http.StatusConflict ||
		(strings.Contains(msg, "while a run") && strings.Contains(msg, "is active")) {
		return fmt.Errorf("%s: %w", msg, ErrRunActive)
	}
	if msg == "" {
		msg = resp.Status()
	}
	return &APIError{
		StatusCode: resp.StatusCode(),
		Code:       env.Error.Code,
		Message:    msg,
	}
}

func (c *OpenAIClient) post(ctx context.Context, path string, body, out any) error {
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return classifyError(resp)
	}
	return nil
}

func (c *OpenAIClient) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return classifyError(resp)
	}
	return nil
}

func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/threads", map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *OpenAIClient) AddUserMessage(ctx context.Context, threadID, content string) error {
	body := map[string]string{
		"role":    "user",
		"content": content,
	}
	return c.post(ctx, fmt.Sprintf("/threads/%s/messages", threadID), body, nil)
}

func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID string) (*models.AssistantRun, error) {
	body := map[string]string{"assistant_id": assistantID}
	var run models.AssistantRun
	if err := c.post(ctx, fmt.Sprintf("/threads/%s/runs", threadID), body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *OpenAIClient) RetrieveRun(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
	var run models.AssistantRun
	path := fmt.Sprintf("/threads/%s/runs/%s", threadID, runID)
	if err := c.get(ctx, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *OpenAIClient) CancelRun(ctx context.Context, threadID, runID string) error {
	return c.post(ctx, fmt.Sprintf("/threads/%s/runs/%s/cancel", threadID, runID), nil, nil)
}

func (c *OpenAIClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error {
	body := map[string]any{"tool_outputs": outputs}
	path := fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", threadID, runID)
	return c.post(ctx, path, body, nil)
}

// LatestAssistantMessage returns the newest assistant-authored message text
// on the thread, or "" when the thread has none.
func (c *OpenAIClient) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var out struct {
		Data []models.ThreadMessage `json:"data"`
	}
	params := map[string]string{"order": "desc", "limit": "1"}
	if err := c.get(ctx, fmt.Sprintf("/threads/%s/messages", threadID), params, &out); err != nil {
		return "", err
	}
	for _, msg := range out.Data {
		if msg.Role != "assistant" {
			continue
		}
		if text, ok := msg.TextValue(); ok {
			return text, nil
		}
	}
	return "", nil
}

func (c *OpenAIClient) CreateAssistant(ctx context.Context, name, model, instructions string, tools []ToolDefinition) (string, error) {
	body := map[string]any{
		"name":         name,
		"model":        model,
		"instructions": instructions,
		"tools":        tools,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/assistants", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
