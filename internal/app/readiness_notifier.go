package app

import (
	"context"
	"encoding/json"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
	"github.com/rs/zerolog"
)

// ReadinessNotifier écoute les événements provisioning.ready et pousse la
// notice correspondante dans la conversation courante.
type ReadinessNotifier struct {
	logger zerolog.Logger
	bus    ports.EventBus
	chat   *ChatSession
}

func NewReadinessNotifier(logger zerolog.Logger, bus ports.EventBus, chat *ChatSession) *ReadinessNotifier {
	return &ReadinessNotifier{logger: logger, bus: bus, chat: chat}
}

func (n *ReadinessNotifier) Run(ctx context.Context) {
	if n == nil || n.bus == nil || n.chat == nil {
		return
	}
	ch, cancel := n.bus.Subscribe("provisioning.ready")
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info().Msg("readiness notifier stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			n.handleEvent(evt)
		}
	}
}

func (n *ReadinessNotifier) handleEvent(evt ports.Event) {
	var pe ProvisioningEvent
	if err := json.Unmarshal(evt.Payload, &pe); err != nil {
		return
	}
	if pe.Collection == "" || pe.State != domain.CollectionReady {
		return
	}
	n.chat.AppendReadyNotice(pe.Collection)
}
