package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"senara/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClient scripts the remote assistant runtime. Unset hooks fall back to
// a benign default so tests only script what they assert on.
type fakeClient struct {
	createThreadFn   func(ctx context.Context) (string, error)
	addMessageFn     func(ctx context.Context, threadID, content string) error
	createRunFn      func(ctx context.Context, threadID, assistantID string) (*models.AssistantRun, error)
	retrieveRunFn    func(ctx context.Context, threadID, runID string) (*models.AssistantRun, error)
	latestMessageFn  func(ctx context.Context, threadID string) (string, error)
	submitOutputsFn  func(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error
	cancelledRunIDs  []string
	appendedMessages []string
	createRunCalls   int
	addMessageCalls  int
}

func (f *fakeClient) CreateThread(ctx context.Context) (string, error) {
	if f.createThreadFn != nil {
		return f.createThreadFn(ctx)
	}
	return "thread_1", nil
}

func (f *fakeClient) AddUserMessage(ctx context.Context, threadID, content string) error {
	f.addMessageCalls++
	if f.addMessageFn != nil {
		if err := f.addMessageFn(ctx, threadID, content); err != nil {
			return err
		}
	}
	f.appendedMessages = append(f.appendedMessages, content)
	return nil
}

func (f *fakeClient) CreateRun(ctx context.Context, threadID, assistantID string) (*models.AssistantRun, error) {
	f.createRunCalls++
	if f.createRunFn != nil {
		return f.createRunFn(ctx, threadID, assistantID)
	}
	return &models.AssistantRun{ID: fmt.Sprintf("run_%d", f.createRunCalls), Status: models.RunQueued}, nil
}

func (f *fakeClient) RetrieveRun(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
	if f.retrieveRunFn != nil {
		return f.retrieveRunFn(ctx, threadID, runID)
	}
	return &models.AssistantRun{ID: runID, Status: models.RunCompleted}, nil
}

func (f *fakeClient) CancelRun(ctx context.Context, threadID, runID string) error {
	f.cancelledRunIDs = append(f.cancelledRunIDs, runID)
	return nil
}

func (f *fakeClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error {
	if f.submitOutputsFn != nil {
		return f.submitOutputsFn(ctx, threadID, runID, outputs)
	}
	return nil
}

func (f *fakeClient) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	if f.latestMessageFn != nil {
		return f.latestMessageFn(ctx, threadID)
	}
	return "Hello from the assistant.", nil
}

func (f *fakeClient) CreateAssistant(ctx context.Context, name, model, instructions string, tools []ToolDefinition) (string, error) {
	return "asst_test", nil
}

// virtualClock replaces real sleeps with time arithmetic so timeout paths
// run instantly.
type virtualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newVirtualClock() *virtualClock {
	return &virtualClock{t: time.Date(2030, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *virtualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *virtualClock) sleep(_ context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestManager(client *fakeClient) (*Manager, *MemorySessionStore) {
	sessions := NewMemorySessionStore()
	dispatcher := NewDispatcher(&fakeBooking{studios: []string{"Cologne"}}, zap.NewNop())
	m := NewManager(client, "asst_test", sessions, dispatcher, zap.NewNop())
	clock := newVirtualClock()
	m.sleep = clock.sleep
	m.now = clock.now
	return m, sessions
}

func TestRunTurnHappyPathWithToolCalls(t *testing.T) {
	var submitted []models.ToolOutput
	states := []models.RunStatus{models.RunQueued, models.RunInProgress, models.RunRequiresAction, models.RunCompleted}
	poll := 0

	client := &fakeClient{
		retrieveRunFn: func(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
			status := states[poll]
			if poll < len(states)-1 {
				poll++
			}
			run := &models.AssistantRun{ID: runID, Status: status}
			if status == models.RunRequiresAction {
				run.RequiredAction = &models.RequiredAction{Type: "submit_tool_outputs"}
				run.RequiredAction.SubmitToolOutputs.ToolCalls = []models.AssistantToolCall{
					toolCall("call_1", "get_sites", `{"city": "Cologne"}`),
				}
			}
			return run, nil
		},
		submitOutputsFn: func(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error {
			submitted = outputs
			return nil
		},
		latestMessageFn: func(ctx context.Context, threadID string) (string, error) {
			return "We have a studio in Cologne.", nil
		},
	}
	m, sessions := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "where are your studios?")
	assert.Equal(t, "We have a studio in Cologne.", reply)

	require.Len(t, submitted, 1)
	assert.Equal(t, "call_1", submitted[0].ToolCallID)
	assert.Contains(t, submitted[0].Output, "Studios in Cologne")

	sess, err := sessions.Get(context.Background(), "4917012345678")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "thread_1", sess.ThreadID)
	assert.Empty(t, sess.ActiveRunID, "finished run must not stay recorded as active")
}

func TestRunTurnAnnotatesMessageWithTimestamp(t *testing.T) {
	client := &fakeClient{}
	m, _ := newTestManager(client)

	m.RunTurn(context.Background(), "4917012345678", "hello")

	require.NotEmpty(t, client.appendedMessages)
	assert.Contains(t, client.appendedMessages[0], "hello\n\n(Current Date and Time: 2030-10-01 12:00:")
}

func TestRunTurnCancelsStaleRunFirst(t *testing.T) {
	client := &fakeClient{
		retrieveRunFn: func(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
			if runID == "run_old" {
				return &models.AssistantRun{ID: runID, Status: models.RunInProgress}, nil
			}
			return &models.AssistantRun{ID: runID, Status: models.RunCompleted}, nil
		},
	}
	m, sessions := newTestManager(client)
	require.NoError(t, sessions.Save(context.Background(), &models.Session{
		UserID:      "4917012345678",
		ThreadID:    "thread_1",
		ActiveRunID: "run_old",
	}))

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, "Hello from the assistant.", reply)
	assert.Contains(t, client.cancelledRunIDs, "run_old")
}

func TestRunTurnRecoversFromAppendConflict(t *testing.T) {
	conflicts := 1
	client := &fakeClient{
		addMessageFn: func(ctx context.Context, threadID, content string) error {
			if conflicts > 0 {
				conflicts--
				return fmt.Errorf("can't add messages to thread while a run run_x is active: %w", ErrRunActive)
			}
			return nil
		},
	}
	m, _ := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, "Hello from the assistant.", reply)
	// One rejected append plus the forced-cleanup retry.
	assert.Equal(t, 2, client.addMessageCalls)
}

func TestRunTurnRecoversFromCreateRunConflict(t *testing.T) {
	conflicts := 1
	client := &fakeClient{
		createRunFn: func(ctx context.Context, threadID, assistantID string) (*models.AssistantRun, error) {
			if conflicts > 0 {
				conflicts--
				return nil, fmt.Errorf("thread already has an active run: %w", ErrRunActive)
			}
			return &models.AssistantRun{ID: "run_1", Status: models.RunQueued}, nil
		},
	}
	m, _ := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, "Hello from the assistant.", reply)
	assert.Equal(t, 2, client.createRunCalls)
}

func TestRunTurnRetriesAfterFailedRun(t *testing.T) {
	client := &fakeClient{
		retrieveRunFn: func(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
			if runID == "run_1" {
				return &models.AssistantRun{ID: runID, Status: models.RunFailed}, nil
			}
			return &models.AssistantRun{ID: runID, Status: models.RunCompleted}, nil
		},
	}
	m, _ := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, "Hello from the assistant.", reply)
	// First run failed, second attempt's run completed.
	assert.Equal(t, 2, client.createRunCalls)
}

func TestRunTurnApologizesWhenAttemptsExhausted(t *testing.T) {
	client := &fakeClient{
		createRunFn: func(ctx context.Context, threadID, assistantID string) (*models.AssistantRun, error) {
			return nil, &APIError{StatusCode: 500, Message: "server blew up"}
		},
	}
	m, _ := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, apologyReply, reply)
	assert.Equal(t, 5, client.createRunCalls)
}

func TestRunTurnTimesOutStuckRun(t *testing.T) {
	client := &fakeClient{
		retrieveRunFn: func(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
			return &models.AssistantRun{ID: runID, Status: models.RunInProgress}, nil
		},
	}
	m, sessions := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, apologyReply, reply)

	// Each timed-out attempt cancels its stuck run before retrying.
	assert.NotEmpty(t, client.cancelledRunIDs)

	sess, err := sessions.Get(context.Background(), "4917012345678")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Empty(t, sess.ActiveRunID, "timed-out run must not stay recorded as active")
}

func TestRunTurnEmptyCompletionFallback(t *testing.T) {
	client := &fakeClient{
		latestMessageFn: func(ctx context.Context, threadID string) (string, error) {
			return "", nil
		},
	}
	m, _ := newTestManager(client)

	reply := m.RunTurn(context.Background(), "4917012345678", "hello")
	assert.Equal(t, noResponseReply, reply)
}
