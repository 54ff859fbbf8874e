package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/messages"
	"github.com/openshelf/openshelf/internal/entities"
)

type MessagesController struct {
	repo *messages.Repository
}

func NewMessagesController(repo *messages.Repository) *MessagesController {
	return &MessagesController{repo: repo}
}

type sendMessageRequest struct {
	ToUserID  *uint             `json:"to_user_id"`
	ToRole    entities.UserRole `json:"to_role"`
	InReplyTo *uint             `json:"in_reply_to"`
	Subject   string            `json:"subject" binding:"required"`
	Body      string            `json:"body" binding:"required"`
	Type      entities.MessageType     `json:"type"`
	Priority  entities.MessagePriority `json:"priority"`
}

// SendMessage delivers a message. Students always address the librarian
// team; librarians may address a specific user or broadcast to a role.
func (controller *MessagesController) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "subject and body are required")
		return
	}

	fromID := auth.GetUserID(c)
	params := messages.SendParams{
		FromUserID: &fromID,
		Subject:    req.Subject,
		Body:       req.Body,
		Type:       req.Type,
		Priority:   req.Priority,
	}

	if auth.GetUserRole(c) == entities.RoleStudent {
		// Student mail always goes to the librarian team, one copy
		// per librarian.
		if params.Type == "" {
			params.Type = entities.MessageTypeStudentInquiry
		}
		sent, err := controller.repo.Broadcast(params, entities.RoleLibrarian)
		if err != nil {
			if errors.Is(err, messages.ErrNoRecipients) {
				respondError(c, http.StatusServiceUnavailable, "no librarians to receive the message")
				return
			}
			respondInternalError(c, err, "send message")
			return
		}
		respondCreated(c, gin.H{"recipients": sent})
		return
	}

	if req.InReplyTo != nil {
		controller.reply(c, req, params)
		return
	}

	switch {
	case req.ToUserID != nil:
		params.ToUserID = req.ToUserID
		msg, err := controller.repo.Send(params)
		if err != nil {
			respondInternalError(c, err, "send message")
			return
		}
		respondCreated(c, msg)
	case req.ToRole != "":
		sent, err := controller.repo.Broadcast(params, req.ToRole)
		if err != nil {
			if errors.Is(err, messages.ErrNoRecipients) {
				respondError(c, http.StatusUnprocessableEntity, "no recipients for role")
				return
			}
			respondInternalError(c, err, "broadcast message")
			return
		}
		respondCreated(c, gin.H{"recipients": sent})
	default:
		respondBadRequest(c, "to_user_id or to_role is required")
	}
}

// reply answers a message from the current librarian's inbox. The reply
// goes to the original sender unless to_user_id overrides it, and the
// original is marked read.
func (controller *MessagesController) reply(c *gin.Context, req sendMessageRequest, params messages.SendParams) {
	original, err := controller.repo.GetByID(*req.InReplyTo)
	if err != nil {
		if errors.Is(err, messages.ErrNotFound) {
			respondNotFound(c, "message")
			return
		}
		respondInternalError(c, err, "reply")
		return
	}
	if !controller.isRecipient(c, original) {
		respondNotFound(c, "message")
		return
	}

	params.ToUserID = req.ToUserID
	if params.ToUserID == nil {
		if original.FromUserID == nil {
			respondBadRequest(c, "original message has no sender, to_user_id is required")
			return
		}
		params.ToUserID = original.FromUserID
	}
	if params.Type == "" {
		params.Type = entities.MessageTypeLibrarianReply
	}

	msg, err := controller.repo.Send(params)
	if err != nil {
		respondInternalError(c, err, "reply")
		return
	}
	if err := controller.repo.MarkRead(original.ID); err != nil {
		respondInternalError(c, err, "reply")
		return
	}
	respondCreated(c, msg)
}

// Inbox returns the current user's messages, newest first. ?type=
// narrows by message type.
func (controller *MessagesController) Inbox(c *gin.Context) {
	msgs, err := controller.repo.Inbox(
		auth.GetUserID(c),
		auth.GetUserRole(c),
		entities.MessageType(c.Query("type")),
	)
	if err != nil {
		respondInternalError(c, err, "inbox")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// UnreadCount returns the number of unread messages for the current user.
func (controller *MessagesController) UnreadCount(c *gin.Context) {
	count, err := controller.repo.UnreadCount(auth.GetUserID(c), auth.GetUserRole(c))
	if err != nil {
		respondInternalError(c, err, "unread count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// GetMessage returns a single message the current user can see.
func (controller *MessagesController) GetMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	msg, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, messages.ErrNotFound) {
			respondNotFound(c, "message")
			return
		}
		respondInternalError(c, err, "get message")
		return
	}

	if !controller.canSee(c, msg) {
		respondNotFound(c, "message")
		return
	}
	c.JSON(http.StatusOK, msg)
}

// MarkRead flags a message as read. Only the recipient may do this.
func (controller *MessagesController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	msg, err := controller.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, messages.ErrNotFound) {
			respondNotFound(c, "message")
			return
		}
		respondInternalError(c, err, "mark read")
		return
	}
	if !controller.isRecipient(c, msg) {
		respondNotFound(c, "message")
		return
	}

	if err := controller.repo.MarkRead(id); err != nil {
		respondInternalError(c, err, "mark read")
		return
	}
	respondSuccess(c, "message marked as read")
}

func (controller *MessagesController) isRecipient(c *gin.Context, msg *entities.Message) bool {
	userID := auth.GetUserID(c)
	if msg.ToUserID != nil && *msg.ToUserID == userID {
		return true
	}
	return msg.ToRole != "" && msg.ToRole == auth.GetUserRole(c)
}

func (controller *MessagesController) canSee(c *gin.Context, msg *entities.Message) bool {
	if controller.isRecipient(c, msg) {
		return true
	}
	userID := auth.GetUserID(c)
	return msg.FromUserID != nil && *msg.FromUserID == userID
}
