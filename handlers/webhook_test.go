package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConversation struct {
	reply    string
	gotUser  string
	gotText  string
	received bool
}

func (f *fakeConversation) RunTurn(_ context.Context, userID, text string) string {
	f.received = true
	f.gotUser = userID
	f.gotText = text
	return f.reply
}

func postWebhook(t *testing.T, handler *WebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/incoming-whatsapp", handler.Incoming)

	req := httptest.NewRequest(http.MethodPost, "/incoming-whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIncomingRepliesWithTwiML(t *testing.T) {
	conv := &fakeConversation{reply: "Your appointment is **confirmed**."}
	handler := NewWebhookHandler(conv, zap.NewNop())

	rec := postWebhook(t, handler, url.Values{
		"From": {"whatsapp:+4917012345678"},
		"Body": {"Please BOOK me for Monday"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/xml")

	body := rec.Body.String()
	assert.Contains(t, body, "<Response>")
	// The reply is sanitized before it goes out.
	assert.Contains(t, body, "<Message>Your appointment is *confirmed*.</Message>")

	// The user id is the digits of the sender, the text is lowercased.
	assert.Equal(t, "4917012345678", conv.gotUser)
	assert.Equal(t, "please book me for monday", conv.gotText)
}

func TestIncomingRejectsMissingSender(t *testing.T) {
	conv := &fakeConversation{reply: "unused"}
	handler := NewWebhookHandler(conv, zap.NewNop())

	rec := postWebhook(t, handler, url.Values{
		"From": {"whatsapp:"},
		"Body": {"hello"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, conv.received, "a turn must not run without a sender id")
}

func TestIncomingEmptyBodyStillRuns(t *testing.T) {
	conv := &fakeConversation{reply: "How can I help?"}
	handler := NewWebhookHandler(conv, zap.NewNop())

	rec := postWebhook(t, handler, url.Values{
		"From": {"whatsapp:+4917012345678"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, conv.received)
	assert.Equal(t, "", conv.gotText)
}
