package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

const defaultAskTimeout = 30 * time.Second

// Textes affichés côté élève (l'interface produit est en turc).
const (
	txtTimeout   = "Yanıt zaman aşımına uğradı. Lütfen sorunuzu tekrar sorun."
	txtAskFailed = "Sorgunuz işlenirken bir hata oluştu"
	txtReady     = "Bu eğitim için bilgi tabanı hazır. Sorularınızı sorabilirsiniz."
)

// ChatSession gère une conversation linéaire liée à la collection active.
// Au plus une question en vol; le changement de vidéo vide le journal et
// invalide toute réponse tardive via un epoch.
type ChatSession struct {
	logger  zerolog.Logger
	backend ports.Backend
	prov    *ProvisioningService
	bus     ports.EventBus

	AskTimeout time.Duration

	mu         sync.Mutex
	state      domain.ChatState
	collection string
	epoch      int
	messages   []domain.ChatMessage
}

func NewChatSession(logger zerolog.Logger, backend ports.Backend, prov *ProvisioningService, bus ports.EventBus) *ChatSession {
	return &ChatSession{
		logger:     logger,
		backend:    backend,
		prov:       prov,
		bus:        bus,
		AskTimeout: defaultAskTimeout,
		state:      domain.ChatIdle,
	}
}

type ChatMessageDTO struct {
	ID        string             `json:"id"`
	Sender    domain.ChatSender  `json:"sender"`
	Kind      domain.MessageKind `json:"kind"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
}

func toChatMessageDTO(m domain.ChatMessage) ChatMessageDTO {
	return ChatMessageDTO{ID: m.ID, Sender: m.Sender, Kind: m.Kind, Text: m.Text, Timestamp: m.Timestamp}
}

func (c *ChatSession) State() domain.ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ChatSession) Collection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection
}

func (c *ChatSession) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// ResetFor démarre une conversation vierge pour la collection donnée. Toute
// requête encore en vol est orpheline: sa réponse sera jetée (epoch).
func (c *ChatSession) ResetFor(collection string) {
	c.mu.Lock()
	c.collection = collection
	c.epoch++
	c.messages = nil
	c.state = domain.ChatIdle
	c.mu.Unlock()

	c.publishState(domain.ChatIdle)
	c.publish("chat.reset", map[string]string{"collection": collection})
}

// Submit accepte une question si le chat est libre et la question non vide
// après trim. La collection cible est capturée maintenant: un changement de
// vidéo pendant la requête ne redirige pas la réponse.
func (c *ChatSession) Submit(question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return &CodedError{Code: "empty_question", Message: "question is empty"}
	}

	c.mu.Lock()
	if c.state == domain.ChatAwaiting {
		c.mu.Unlock()
		return &CodedError{Code: "busy", Message: "a question is already awaiting its answer"}
	}
	c.state = domain.ChatAwaiting
	collection := c.collection
	epoch := c.epoch
	msg := domain.ChatMessage{
		ID:        xid.New().String(),
		Sender:    domain.SenderUser,
		Kind:      domain.MessageAnswer,
		Text:      question,
		Timestamp: time.Now().UTC(),
	}
	c.messages = append(c.messages, msg)
	c.mu.Unlock()

	c.publishMessage(msg)
	c.publishState(domain.ChatAwaiting)

	go c.ask(collection, epoch, question)
	return nil
}

func (c *ChatSession) ask(collection string, epoch int, question string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.AskTimeout)
	defer cancel()

	answer, err := c.backend.Ask(ctx, collection, question)
	c.complete(collection, epoch, answer, err)
}

func (c *ChatSession) complete(collection string, epoch int, answer ports.AssistantAnswer, err error) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		// La vidéo a changé entre-temps: la réponse appartient à une
		// conversation qui n'existe plus.
		c.logger.Debug().Str("collection", collection).Msg("discarding stale assistant answer")
		return
	}
	c.state = domain.ChatIdle
	c.mu.Unlock()

	switch {
	case err == nil:
		c.append(domain.SenderAssistant, domain.MessageAnswer, answer.Answer)
		if answer.Status == "processing" && c.prov != nil {
			c.prov.RecheckLater(collection)
		}
	case errors.Is(err, context.DeadlineExceeded):
		c.logger.Warn().Str("collection", collection).Msg("assistant answer timed out")
		c.append(domain.SenderAssistant, domain.MessageTimeout, txtTimeout)
	default:
		c.logger.Warn().Err(err).Str("collection", collection).Msg("assistant ask failed")
		c.append(domain.SenderAssistant, domain.MessageError, txtAskFailed+": "+err.Error())
	}

	c.publishState(domain.ChatIdle)
}

// AppendReadyNotice ajoute la notice "base prête" si la collection est
// toujours celle de la conversation courante.
func (c *ChatSession) AppendReadyNotice(collection string) {
	c.mu.Lock()
	current := c.collection
	c.mu.Unlock()
	if collection != current {
		return
	}
	c.append(domain.SenderAssistant, domain.MessageNotice, txtReady)
}

func (c *ChatSession) append(sender domain.ChatSender, kind domain.MessageKind, text string) {
	msg := domain.ChatMessage{
		ID:        xid.New().String(),
		Sender:    sender,
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.publishMessage(msg)
}

func (c *ChatSession) publishMessage(msg domain.ChatMessage) {
	c.publish("chat.message", toChatMessageDTO(msg))
}

func (c *ChatSession) publishState(st domain.ChatState) {
	c.publish("chat.state", map[string]string{"state": string(st)})
}

func (c *ChatSession) publish(topic string, v any) {
	if c.bus == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.bus.Publish(topic, b)
}
