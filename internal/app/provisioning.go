package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
	"github.com/rs/zerolog"
)

const defaultRecheckDelay = 30 * time.Second

// ProvisioningService garantit, par nom de collection, qu'une base de
// connaissances existe côté serveur avant qu'on l'interroge. Un seul appel de
// création par collection et par session; l'état atteint (ready/error) est mis
// en cache jusqu'à reset explicite.
type ProvisioningService struct {
	logger  zerolog.Logger
	backend ports.Backend
	bus     ports.EventBus

	// RecheckDelay est le délai avant l'unique re-vérification après une
	// réponse "processing".
	RecheckDelay time.Duration

	mu      sync.Mutex
	entries map[string]*collectionEntry
}

type collectionEntry struct {
	state        domain.CollectionState
	recheckArmed bool
}

func NewProvisioningService(logger zerolog.Logger, backend ports.Backend, bus ports.EventBus) *ProvisioningService {
	return &ProvisioningService{
		logger:       logger,
		backend:      backend,
		bus:          bus,
		RecheckDelay: defaultRecheckDelay,
		entries:      map[string]*collectionEntry{},
	}
}

type ProvisioningEvent struct {
	Collection string                 `json:"collection"`
	State      domain.CollectionState `json:"state"`
	Message    string                 `json:"message,omitempty"`
}

func (s *ProvisioningService) State(collection string) domain.CollectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[collection]; ok {
		return e.state
	}
	return domain.CollectionUnknown
}

// ResetIfError ré-arme une collection en échec quand l'utilisateur re-sélec-
// tionne une vidéo qui l'utilise. Les autres états sont conservés.
func (s *ProvisioningService) ResetIfError(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[collection]; ok && e.state == domain.CollectionError {
		delete(s.entries, collection)
	}
}

// Ensure fait avancer la machine d'états pour la collection. Retour immédiat
// (sans appel réseau) si un check/création est déjà en cours ou si un état
// terminal est atteint.
func (s *ProvisioningService) Ensure(ctx context.Context, collection string) domain.CollectionState {
	s.mu.Lock()
	e, ok := s.entries[collection]
	if !ok {
		e = &collectionEntry{state: domain.CollectionUnknown}
		s.entries[collection] = e
	}
	switch e.state {
	case domain.CollectionChecking, domain.CollectionCreating, domain.CollectionReady, domain.CollectionError:
		st := e.state
		s.mu.Unlock()
		return st
	}
	e.state = domain.CollectionChecking
	s.mu.Unlock()
	s.publishState(collection, domain.CollectionChecking, "")

	check, err := s.backend.CheckCollection(ctx, collection)
	if err != nil {
		return s.fail(collection, err)
	}

	if check.Exists {
		// La collection existait déjà: pas de notice, le chat est utilisable.
		s.setState(collection, domain.CollectionReady)
		s.publishState(collection, domain.CollectionReady, "")
		return domain.CollectionReady
	}

	s.setState(collection, domain.CollectionMissing)
	s.setState(collection, domain.CollectionCreating)
	s.publishState(collection, domain.CollectionCreating, "")

	res, err := s.backend.EnsureCollection(ctx, collection)
	if err != nil {
		return s.fail(collection, err)
	}

	switch res.Status {
	case "exists":
		// Créée entre-temps par un autre chemin: prête tout de suite.
		s.setState(collection, domain.CollectionReady)
		s.publishReady(collection)
		return domain.CollectionReady
	case "processing":
		s.logger.Info().Str("collection", collection).Dur("delay", s.RecheckDelay).Msg("collection building, recheck scheduled")
		s.RecheckLater(collection)
		return domain.CollectionCreating
	default:
		return s.fail(collection, &CodedError{Code: "provisioning_failed", Message: res.Message})
	}
}

// RecheckLater programme exactement une re-vérification d'existence après
// RecheckDelay. Sans effet si une re-vérification est déjà armée.
func (s *ProvisioningService) RecheckLater(collection string) {
	s.mu.Lock()
	e, ok := s.entries[collection]
	if !ok {
		e = &collectionEntry{state: domain.CollectionCreating}
		s.entries[collection] = e
	}
	if e.recheckArmed || e.state.IsTerminal() {
		s.mu.Unlock()
		return
	}
	e.recheckArmed = true
	s.mu.Unlock()

	time.AfterFunc(s.RecheckDelay, func() { s.recheck(collection) })
}

func (s *ProvisioningService) recheck(collection string) {
	s.mu.Lock()
	e, ok := s.entries[collection]
	if !ok || e.state.IsTerminal() {
		s.mu.Unlock()
		return
	}
	// Un ask ultérieur en "processing" peut armer une nouvelle re-vérification.
	e.recheckArmed = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	check, err := s.backend.CheckCollection(ctx, collection)
	if err != nil {
		s.fail(collection, err)
		return
	}
	if check.Exists {
		s.setState(collection, domain.CollectionReady)
		s.publishReady(collection)
		return
	}
	// Toujours en construction: on s'arrête là, pas de nouvelle tentative
	// automatique.
	s.logger.Info().Str("collection", collection).Msg("collection still building after recheck")
	s.publishState(collection, domain.CollectionCreating, "still building")
}

func (s *ProvisioningService) fail(collection string, err error) domain.CollectionState {
	s.logger.Warn().Err(err).Str("collection", collection).Msg("collection provisioning failed")
	s.setState(collection, domain.CollectionError)
	s.publish("provisioning.error", ProvisioningEvent{
		Collection: collection,
		State:      domain.CollectionError,
		Message:    err.Error(),
	})
	return domain.CollectionError
}

func (s *ProvisioningService) setState(collection string, next domain.CollectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[collection]
	if !ok {
		e = &collectionEntry{state: domain.CollectionUnknown}
		s.entries[collection] = e
	}
	if e.state != next && !domain.CanTransitionCollection(e.state, next) && next != domain.CollectionError {
		s.logger.Error().
			Str("collection", collection).
			Str("from", string(e.state)).
			Str("to", string(next)).
			Msg("refused collection state transition")
		return
	}
	e.state = next
}

func (s *ProvisioningService) publishReady(collection string) {
	s.publish("provisioning.ready", ProvisioningEvent{Collection: collection, State: domain.CollectionReady})
}

func (s *ProvisioningService) publishState(collection string, st domain.CollectionState, msg string) {
	s.publish("provisioning.state", ProvisioningEvent{Collection: collection, State: st, Message: msg})
}

func (s *ProvisioningService) publish(topic string, evt ProvisioningEvent) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}
