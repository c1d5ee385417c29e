package handlers

import (
	"net/http"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/pkg/logging"
	"github.com/KelvCodes/real-time-chat-app/pkg/middleware"
)

type MessageHandler struct {
	msgSvc services.IMessageService
}

func NewMessageHandler(m services.IMessageService) *MessageHandler {
	return &MessageHandler{msgSvc: m}
}

func (h *MessageHandler) Users(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	contacts, err := h.msgSvc.ListContacts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]domain.ContactResponse, 0, len(contacts))
	for i := range contacts {
		resp = append(resp, domain.ContactResponse{
			UserResponse: domain.NewUserResponse(&contacts[i].User),
			Online:       contacts[i].Online,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	msgs, err := h.msgSvc.GetMessages(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())
	receiverID := r.PathValue("id")
	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	msg, err := h.msgSvc.SendMessage(r.Context(), userID, receiverID, req.Text, req.Image)
	if err != nil {
		log.WarnContext(r.Context(), "message handler - send - failed", logging.Receiver(receiverID), logging.Err(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
