package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/app"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/httpjson"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/markup"
	"github.com/go-chi/chi/v5"
)

type ChatHandler struct {
	chat *app.ChatSession
}

func NewChatHandler(chat *app.ChatSession) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Routes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/ask", h.ask)
		r.Get("/messages", h.messages)
	})
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.chat.Submit(req.Question); err != nil {
		var coded *app.CodedError
		if errors.As(err, &coded) {
			switch coded.Code {
			case "empty_question":
				httpjson.WriteError(w, http.StatusBadRequest, coded.Message)
				return
			case "busy":
				// Une question est déjà en vol: la soumission est ignorée.
				httpjson.WriteError(w, http.StatusConflict, coded.Message)
				return
			}
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// La réponse arrive par SSE; on confirme seulement la prise en charge.
	httpjson.Write(w, http.StatusAccepted, map[string]string{"state": string(h.chat.State())})
}

// chatMessageView étend le message d'un rendu HTML du balisage léger accepté
// dans les réponses de l'assistant.
type chatMessageView struct {
	app.ChatMessageDTO
	HTML string `json:"html,omitempty"`
}

func (h *ChatHandler) messages(w http.ResponseWriter, r *http.Request) {
	msgs := h.chat.Messages()
	out := make([]chatMessageView, 0, len(msgs))
	for _, m := range msgs {
		view := chatMessageView{ChatMessageDTO: app.ChatMessageDTO{
			ID:        m.ID,
			Sender:    m.Sender,
			Kind:      m.Kind,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		}}
		if m.Sender == domain.SenderAssistant {
			view.HTML = markup.Render(m.Text)
		}
		out = append(out, view)
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"collection": h.chat.Collection(),
		"state":      h.chat.State(),
		"messages":   out,
	})
}
