package handlers

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"senara/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConversationService produces the assistant's reply for one inbound
// message. It never fails hard; backend trouble surfaces as an apologetic
// reply string.
type ConversationService interface {
	RunTurn(ctx context.Context, userID, text string) string
}

// WebhookHandler receives inbound WhatsApp messages from Twilio.
type WebhookHandler struct {
	Conversation ConversationService
	Logger       *zap.Logger
}

func NewWebhookHandler(conversation ConversationService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Conversation: conversation, Logger: logger}
}

// twimlResponse is the reply envelope Twilio expects.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Incoming handles one inbound message: derive the user id from the sender
// number, run the conversation turn, and wrap the sanitized reply in TwiML.
// All resilience lives in the conversation service; this handler holds no
// state and never retries.
func (h *WebhookHandler) Incoming(c *gin.Context) {
	body := c.PostForm("Body")
	from := c.PostForm("From")

	userID := utils.DigitsOnly(from)
	if userID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid sender", "From must contain a phone number")
		return
	}

	h.Logger.Info("incoming message",
		zap.String("from", from),
		zap.Int("body_len", len(body)))

	reply := h.Conversation.RunTurn(c.Request.Context(), userID, strings.ToLower(body))
	reply = utils.SanitizeReply(reply)

	payload, err := xml.Marshal(twimlResponse{Message: reply})
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to encode reply", err.Error())
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", append([]byte(xml.Header), payload...))
}
