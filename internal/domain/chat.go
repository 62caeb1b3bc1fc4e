package domain

import "time"

type ChatSender string

const (
	SenderUser      ChatSender = "user"
	SenderAssistant ChatSender = "assistant"
)

// MessageKind distingue les messages assistant normaux des notices et des
// messages d'erreur, pour que la surface puisse les styler différemment.
type MessageKind string

const (
	MessageAnswer  MessageKind = "answer"
	MessageNotice  MessageKind = "notice"
	MessageTimeout MessageKind = "timeout"
	MessageError   MessageKind = "error"
)

type ChatMessage struct {
	ID        string
	Sender    ChatSender
	Kind      MessageKind
	Text      string
	Timestamp time.Time
}

type ChatState string

const (
	ChatIdle     ChatState = "idle"
	ChatAwaiting ChatState = "awaiting_response"
)
