package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/adapters/memorybus"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
	"github.com/rs/zerolog"
)

func newTestChat(backend ports.Backend) *ChatSession {
	c := NewChatSession(zerolog.Nop(), backend, nil, nil)
	c.ResetFor("intro")
	return c
}

func TestChatSession_SubmitAppendsQuestionAndAnswer(t *testing.T) {
	backend := &fakeBackend{
		askFn: func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
			if collection != "intro" {
				t.Errorf("collection: want intro, got %q", collection)
			}
			return ports.AssistantAnswer{Answer: "**Kaynak:** videolar"}, nil
		},
	}
	chat := newTestChat(backend)

	if err := chat.Submit("Bu konu nedir?"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if st := chat.State(); st != domain.ChatAwaiting {
		t.Fatalf("state: want awaiting_response, got %s", st)
	}

	waitFor(t, "idle chat", func() bool { return chat.State() == domain.ChatIdle })

	msgs := chat.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages: want 2, got %d", len(msgs))
	}
	if msgs[0].Sender != domain.SenderUser || msgs[0].Text != "Bu konu nedir?" {
		t.Fatalf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Sender != domain.SenderAssistant || msgs[1].Kind != domain.MessageAnswer {
		t.Fatalf("unexpected assistant message: %+v", msgs[1])
	}
}

func TestChatSession_EmptyQuestionIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	chat := newTestChat(backend)

	err := chat.Submit("   \n ")
	if err == nil {
		t.Fatalf("expected error")
	}
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != "empty_question" {
		t.Fatalf("want empty_question, got %v", err)
	}
	if len(chat.Messages()) != 0 {
		t.Fatalf("log should stay empty")
	}
	if _, _, _, asks := backend.calls(); asks != 0 {
		t.Fatalf("no ask call expected, got %d", asks)
	}
}

func TestChatSession_SecondSubmitWhileAwaitingIsDropped(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		askFn: func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
			<-release
			return ports.AssistantAnswer{Answer: "cevap"}, nil
		},
	}
	chat := newTestChat(backend)

	if err := chat.Submit("What is X?"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	err := chat.Submit("What is Y?")
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != "busy" {
		t.Fatalf("want busy, got %v", err)
	}
	if n := len(chat.Messages()); n != 1 {
		t.Fatalf("log should hold only the first question, got %d messages", n)
	}

	close(release)
	waitFor(t, "idle chat", func() bool { return chat.State() == domain.ChatIdle })

	if _, _, _, asks := backend.calls(); asks != 1 {
		t.Fatalf("ask calls: want 1, got %d", asks)
	}
}

func TestChatSession_TimeoutAppendsOneTimeoutMessage(t *testing.T) {
	backend := &fakeBackend{
		askFn: func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
			<-ctx.Done()
			return ports.AssistantAnswer{}, ctx.Err()
		},
	}
	chat := newTestChat(backend)
	chat.AskTimeout = 30 * time.Millisecond

	if err := chat.Submit("uzun soru"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, "idle chat", func() bool { return chat.State() == domain.ChatIdle })

	msgs := chat.Messages()
	var timeouts int
	for _, m := range msgs {
		if m.Kind == domain.MessageTimeout {
			timeouts++
		}
	}
	if timeouts != 1 {
		t.Fatalf("timeout messages: want exactly 1, got %d (log: %+v)", timeouts, msgs)
	}

	// L'entrée est à nouveau acceptée.
	backend.mu.Lock()
	backend.askFn = nil
	backend.mu.Unlock()
	if err := chat.Submit("kısa soru"); err != nil {
		t.Fatalf("Submit after timeout: %v", err)
	}
}

func TestChatSession_TransportErrorCarriesUnderlyingText(t *testing.T) {
	backend := &fakeBackend{
		askFn: func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
			return ports.AssistantAnswer{}, &CodedError{Code: "network_error", Message: "backend unreachable"}
		},
	}
	chat := newTestChat(backend)

	if err := chat.Submit("soru"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, "idle chat", func() bool { return chat.State() == domain.ChatIdle })

	msgs := chat.Messages()
	last := msgs[len(msgs)-1]
	if last.Kind != domain.MessageError {
		t.Fatalf("kind: want error, got %s", last.Kind)
	}
	if !strings.Contains(last.Text, "backend unreachable") {
		t.Fatalf("error text should carry the cause, got %q", last.Text)
	}
}

func TestChatSession_ResetClearsLog(t *testing.T) {
	backend := &fakeBackend{}
	chat := newTestChat(backend)

	if err := chat.Submit("soru"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, "idle chat", func() bool { return chat.State() == domain.ChatIdle })
	if len(chat.Messages()) == 0 {
		t.Fatalf("log should not be empty before reset")
	}

	chat.ResetFor("baska_kurs")
	if n := len(chat.Messages()); n != 0 {
		t.Fatalf("log after reset: want 0 messages, got %d", n)
	}
	if chat.Collection() != "baska_kurs" {
		t.Fatalf("collection: want baska_kurs, got %q", chat.Collection())
	}
}

func TestChatSession_StaleAnswerIsDiscardedAfterSwitch(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		askFn: func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
			<-release
			return ports.AssistantAnswer{Answer: "c1 cevabı"}, nil
		},
	}
	chat := newTestChat(backend)

	if err := chat.Submit("c1 sorusu"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Changement de vidéo pendant la requête: conversation c2 vierge.
	chat.ResetFor("c2")
	close(release)

	// La réponse tardive de c1 ne doit jamais apparaître dans c2.
	time.Sleep(100 * time.Millisecond)
	for _, m := range chat.Messages() {
		if strings.Contains(m.Text, "c1 cevabı") {
			t.Fatalf("stale c1 answer leaked into c2 log")
		}
	}
	if n := len(chat.Messages()); n != 0 {
		t.Fatalf("c2 log should start empty, got %d messages", n)
	}
	if st := chat.State(); st != domain.ChatIdle {
		t.Fatalf("state: want idle, got %s", st)
	}
}

func TestChatSession_ProcessingAnswerSchedulesRecheckAndNotice(t *testing.T) {
	var checkExists atomic.Bool
	checkExists.Store(true)
	backend := &fakeBackend{
		checkFn: func(name string) (ports.CollectionCheck, error) {
			return ports.CollectionCheck{Exists: checkExists.Load()}, nil
		},
		askFn: func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
			return ports.AssistantAnswer{
				Answer: "Bu eğitim için veritabanı hazırlanıyor.",
				Status: "processing",
			}, nil
		},
	}

	bus := memorybus.New()
	prov := NewProvisioningService(zerolog.Nop(), backend, bus)
	prov.RecheckDelay = 20 * time.Millisecond

	chat := NewChatSession(zerolog.Nop(), backend, prov, bus)
	chat.ResetFor("intro")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifier := NewReadinessNotifier(zerolog.Nop(), bus, chat)
	go notifier.Run(ctx)

	if err := chat.Submit("hazır mı?"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	waitFor(t, "ready notice", func() bool {
		for _, m := range chat.Messages() {
			if m.Kind == domain.MessageNotice {
				return true
			}
		}
		return false
	})

	var notices int
	for _, m := range chat.Messages() {
		if m.Kind == domain.MessageNotice {
			notices++
		}
	}
	if notices != 1 {
		t.Fatalf("ready notices: want exactly 1, got %d", notices)
	}
}
