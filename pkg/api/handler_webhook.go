package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/transport"
)

// telegramWebhookHandler handles POST /telegram/webhook: receives chat
// updates and dispatches them to either the durable queue or inline
// processing.
//
// A text message starts or continues a turn; a callback query carries an
// approve/reject decision for a pending diff. Dispatch honors
// USE_DURABLE_QUEUE: true enqueues a graph_run task for the worker pool,
// false runs the supervisor turn inline and replies in the same request.
func (s *Server) telegramWebhookHandler(c *gin.Context) {
	if s.webhookAuth != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != s.webhookAuth {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading request body: " + err.Error()})
		return
	}

	update, err := transport.DecodeUpdate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, ok := stateFromUpdate(update)
	if !ok {
		c.JSON(http.StatusOK, WebhookAck{Accepted: false})
		return
	}

	if s.useDurable {
		if s.queueStore == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "durable queue not configured"})
			return
		}
		payload := map[string]interface{}{
			"chat_id":           state.ChatID,
			"user_input":        state.UserInput,
			"approval_decision": string(state.ApprovalDecision),
		}
		taskID, err := s.queueStore.Enqueue(c.Request.Context(), models.TaskTypeGraphRun, payload, models.EnqueueOptions{Source: "telegram", Agent: "webhook"})
		if err != nil {
			mapServiceError(c, fmt.Errorf("enqueueing graph_run: %w", err))
			return
		}
		c.JSON(http.StatusAccepted, WebhookAck{Accepted: true, TaskID: taskID})
		return
	}

	if s.supervisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "supervisor not configured"})
		return
	}
	result, err := s.supervisor.RunGraph(c.Request.Context(), state, state.ChatID)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	reply := result.FinalResponse
	if reply == "" && result.Error != "" {
		reply = "Error: " + result.Error
	}
	if s.notifier != nil && reply != "" {
		_ = s.notifier.SendMessage(c.Request.Context(), state.ChatID, reply)
	}
	c.JSON(http.StatusOK, WebhookAck{Accepted: true, Reply: reply})
}

// stateFromUpdate extracts the minimal AgentState a webhook update drives a
// turn with. Returns ok=false for updates this service doesn't act on
// (e.g. an update carrying neither a message nor a callback query).
func stateFromUpdate(u transport.Update) (models.AgentState, bool) {
	if u.Message != nil {
		return models.AgentState{
			ChatID:    strconv.FormatInt(u.Message.Chat.ID, 10),
			UserInput: u.Message.Text,
		}, true
	}
	if u.CallbackQuery != nil {
		decision := models.ApprovalDecision(u.CallbackQuery.Data)
		if decision != models.ApprovalApprove && decision != models.ApprovalReject {
			return models.AgentState{}, false
		}
		return models.AgentState{
			ChatID:           strconv.FormatInt(u.CallbackQuery.Message.Chat.ID, 10),
			ApprovalDecision: decision,
		}, true
	}
	return models.AgentState{}, false
}
