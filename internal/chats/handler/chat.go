package handler

import (
	"net/http"

	"masterbook/internal/chats/service"
	"masterbook/pkg/auth"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ChatHandler struct {
	service service.ChatService
	auth    *auth.Authenticator
	log     *logger.Logger
}

func NewChatHandler(service service.ChatService, authenticator *auth.Authenticator, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		auth:    authenticator,
		log:     log,
	}
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	messages, total, err := h.service.ListMessages(r.Context(), auth.UID(r.Context()), ps.ByName("bookingId"), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}

	if err := httputil.WritePaginated(w, messages, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMessages", "operation", "WritePaginated", "error", err)
	}
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input model.MessageInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	msg, err := h.service.PostMessage(r.Context(), auth.UID(r.Context()), ps.ByName("bookingId"), &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, httputil.Envelope{"message": msg}); err != nil {
		h.log.Error("failed to write created response", "handler", "PostMessage", "operation", "WriteCreated", "error", err)
	}
}

func (h *ChatHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/chats/:bookingId/messages", h.auth.Required(h.ListMessages))
	router.POST("/api/v1/chats/:bookingId/messages", h.auth.Required(h.PostMessage))
}
