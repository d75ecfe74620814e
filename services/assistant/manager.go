package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"senara/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// One turn may wait at most this long for its run to finish.
	turnTimeout = 60 * time.Second

	// Whole-turn attempts and the base delay between them; the delay grows
	// with the attempt number.
	maxTurnAttempts = 5
	retryDelay      = 2 * time.Second

	// Message appends retried on transient failures.
	maxAppendAttempts = 5

	// Run retrievals inside the poll loop.
	retrieveAttempts = 3
	retrieveDelay    = time.Second

	// Conflict recovery: wait out the lingering run, clean up, settle.
	conflictWait  = 5 * time.Second
	cleanupSettle = time.Second

	// Poll intervals; a queued run is expected to take longer than one
	// already in progress.
	queuedPollInterval     = 2 * time.Second
	inProgressPollInterval = time.Second
)

// apologyReply is the only thing a caller sees when every attempt is
// spent. The transport layer never handles a hard failure from here.
const apologyReply = "Sorry, I ran into a problem processing your message. Please try again in a moment."

// noResponseReply is a valid terminal result: the run completed without
// the assistant authoring a message.
const noResponseReply = "No response from assistant."

// ErrTurnTimeout marks a turn that never reached a terminal run state
// within the wall-clock budget.
var ErrTurnTimeout = errors.New("conversation run timed out")

// Manager owns the conversation lifecycle: one session per user, at most
// one active run per session, serialized turns, recovery from stuck or
// conflicting runs, and tool-call dispatch.
type Manager struct {
	client      Client
	assistantID string
	sessions    SessionStore
	dispatcher  *Dispatcher
	logger      *zap.Logger

	// Per-user locks serialize turns for the same user. Concurrent turns
	// for different users proceed independently.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex

	// Injectable for tests.
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// NewManager wires the run manager.
func NewManager(client Client, assistantID string, sessions SessionStore, dispatcher *Dispatcher, logger *zap.Logger) *Manager {
	return &Manager{
		client:      client,
		assistantID: assistantID,
		sessions:    sessions,
		dispatcher:  dispatcher,
		logger:      logger,
		userLocks:   make(map[string]*sync.Mutex),
		sleep:       sleepCtx,
		now:         time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	return lock
}

// RunTurn produces the assistant's reply for one user message. It never
// returns an error: exhausted retries surface as an apologetic reply.
func (m *Manager) RunTurn(ctx context.Context, userID, text string) string {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	log := m.logger.With(
		zap.String("user_id", userID),
		zap.String("turn_id", uuid.NewString()[:8]),
	)

	reply, err := m.runTurn(ctx, log, userID, text)
	if err != nil {
		log.Error("turn failed", zap.Error(err))
		return apologyReply
	}
	return reply
}

func (m *Manager) runTurn(ctx context.Context, log *zap.Logger, userID, text string) (string, error) {
	sess, err := m.getOrCreateSession(ctx, log, userID)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= maxTurnAttempts; attempt++ {
		if attempt > 1 {
			m.sleep(ctx, retryDelay*time.Duration(attempt-1))
		}

		reply, err := m.attemptTurn(ctx, log, sess, text)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("turn attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxTurnAttempts),
			zap.Error(err))
	}
	return "", fmt.Errorf("conversation failed after %d attempts: %w", maxTurnAttempts, lastErr)
}

// attemptTurn is one pass through cleanup, append, run and poll.
func (m *Manager) attemptTurn(ctx context.Context, log *zap.Logger, sess *models.Session, text string) (string, error) {
	m.cleanupActiveRun(ctx, log, sess)
	m.sleep(ctx, cleanupSettle)

	if err := m.appendMessage(ctx, log, sess, text); err != nil {
		return "", fmt.Errorf("adding message: %w", err)
	}

	runID, err := m.startRun(ctx, log, sess)
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}

	return m.awaitRun(ctx, log, sess, runID)
}

// getOrCreateSession resolves the user's session, allocating a remote
// thread on first contact. A session-store read error degrades to a fresh
// thread rather than failing the turn.
func (m *Manager) getOrCreateSession(ctx context.Context, log *zap.Logger, userID string) (*models.Session, error) {
	sess, err := m.sessions.Get(ctx, userID)
	if err != nil {
		log.Warn("session lookup failed, starting fresh", zap.Error(err))
	}
	if sess != nil {
		return sess, nil
	}

	threadID, err := m.client.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	sess = &models.Session{UserID: userID, ThreadID: threadID}
	m.saveSession(ctx, log, sess)
	log.Info("created new conversation thread", zap.String("thread_id", threadID))
	return sess, nil
}

func (m *Manager) saveSession(ctx context.Context, log *zap.Logger, sess *models.Session) {
	if err := m.sessions.Save(ctx, sess); err != nil {
		log.Warn("persisting session failed", zap.Error(err))
	}
}

// cleanupActiveRun cancels a still-running previous turn, best effort. The
// recorded run id is always cleared: whatever state the remote side is in,
// this process no longer considers that run active.
func (m *Manager) cleanupActiveRun(ctx context.Context, log *zap.Logger, sess *models.Session) {
	if sess.ActiveRunID == "" {
		return
	}
	runID := sess.ActiveRunID

	run, err := m.client.RetrieveRun(ctx, sess.ThreadID, runID)
	if err != nil {
		log.Warn("cleanup: retrieving run failed", zap.String("run_id", runID), zap.Error(err))
	} else if !run.Status.Terminal() {
		if err := m.client.CancelRun(ctx, sess.ThreadID, runID); err != nil {
			log.Warn("cleanup: cancelling run failed", zap.String("run_id", runID), zap.Error(err))
		} else {
			log.Info("cancelled lingering run",
				zap.String("run_id", runID),
				zap.String("status", string(run.Status)))
		}
	}

	sess.ActiveRunID = ""
	m.saveSession(ctx, log, sess)
}

// appendMessage adds the user's message, annotated with the current time so
// the assistant can reason about "today" and "tomorrow".
func (m *Manager) appendMessage(ctx context.Context, log *zap.Logger, sess *models.Session, text string) error {
	annotated := fmt.Sprintf("%s\n\n(Current Date and Time: %s)",
		text, m.now().Format("2006-01-02 15:04:05"))

	var lastErr error
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		err := m.client.AddUserMessage(ctx, sess.ThreadID, annotated)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrRunActive) {
			// A run is still holding the thread. Wait it out, force
			// cleanup, then try once more before burning the attempt.
			log.Warn("append blocked by active run, forcing cleanup")
			m.sleep(ctx, conflictWait)
			m.cleanupActiveRun(ctx, log, sess)
			m.sleep(ctx, cleanupSettle)
			if err = m.client.AddUserMessage(ctx, sess.ThreadID, annotated); err == nil {
				return nil
			}
		}

		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < maxAppendAttempts {
			log.Warn("retrying message append",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAppendAttempts),
				zap.Error(err))
			m.sleep(ctx, retryDelay)
		}
	}
	return lastErr
}

// startRun creates the run for this turn and records it as active. A
// conflict gets one bounded recovery pass, not a recursive retry.
func (m *Manager) startRun(ctx context.Context, log *zap.Logger, sess *models.Session) (string, error) {
	run, err := m.client.CreateRun(ctx, sess.ThreadID, m.assistantID)
	if errors.Is(err, ErrRunActive) {
		log.Warn("run creation blocked by active run, forcing cleanup")
		m.sleep(ctx, conflictWait)
		m.cleanupActiveRun(ctx, log, sess)
		m.sleep(ctx, cleanupSettle)
		run, err = m.client.CreateRun(ctx, sess.ThreadID, m.assistantID)
	}
	if err != nil {
		return "", err
	}

	sess.ActiveRunID = run.ID
	m.saveSession(ctx, log, sess)
	return run.ID, nil
}

// awaitRun drives the poll-and-react loop until the run terminates or the
// wall-clock budget runs out.
func (m *Manager) awaitRun(ctx context.Context, log *zap.Logger, sess *models.Session, runID string) (string, error) {
	deadline := m.now().Add(turnTimeout)

	for {
		if m.now().After(deadline) {
			m.cleanupActiveRun(ctx, log, sess)
			return "", fmt.Errorf("%w after %s", ErrTurnTimeout, turnTimeout)
		}
		if ctx.Err() != nil {
			m.cleanupActiveRun(ctx, log, sess)
			return "", ctx.Err()
		}

		run, err := m.retrieveRun(ctx, sess.ThreadID, runID)
		if err != nil {
			return "", fmt.Errorf("retrieving run: %w", err)
		}

		switch run.Status {
		case models.RunCompleted:
			sess.ActiveRunID = ""
			m.saveSession(ctx, log, sess)
			reply, err := m.client.LatestAssistantMessage(ctx, sess.ThreadID)
			if err != nil {
				return "", fmt.Errorf("retrieving assistant response: %w", err)
			}
			if reply == "" {
				return noResponseReply, nil
			}
			return reply, nil

		case models.RunRequiresAction:
			calls := run.ToolCalls()
			log.Info("run requires action", zap.Int("tool_calls", len(calls)))
			outputs := m.dispatcher.HandleToolCalls(ctx, calls, sess.UserID)
			if err := m.client.SubmitToolOutputs(ctx, sess.ThreadID, runID, outputs); err != nil {
				// Not fatal: the run may recover, or time out and hit the
				// outer retry.
				log.Warn("submitting tool outputs failed", zap.Error(err))
				m.sleep(ctx, inProgressPollInterval)
			}

		case models.RunQueued:
			m.sleep(ctx, queuedPollInterval)

		case models.RunInProgress:
			m.sleep(ctx, inProgressPollInterval)

		case models.RunFailed, models.RunExpired, models.RunCancelled:
			sess.ActiveRunID = ""
			m.saveSession(ctx, log, sess)
			return "", fmt.Errorf("run ended with status %q", run.Status)

		default:
			log.Warn("unknown run status", zap.String("status", string(run.Status)))
			m.sleep(ctx, inProgressPollInterval)
		}
	}
}

// retrieveRun fetches run state with a short retry budget of its own, so a
// single flaky poll does not fail the whole turn.
func (m *Manager) retrieveRun(ctx context.Context, threadID, runID string) (*models.AssistantRun, error) {
	var lastErr error
	for attempt := 1; attempt <= retrieveAttempts; attempt++ {
		run, err := m.client.RetrieveRun(ctx, threadID, runID)
		if err == nil {
			return run, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < retrieveAttempts {
			m.sleep(ctx, retrieveDelay)
		}
	}
	return nil, lastErr
}
