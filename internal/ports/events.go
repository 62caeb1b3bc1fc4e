package ports

// EventBus relie les services à la surface (SSE) sans couplage direct.
type EventBus interface {
	Publish(topic string, payload []byte)
	// Subscribe renvoie un canal d'événements dont le topic commence par l'un
	// des préfixes donnés (tous les événements si aucun préfixe).
	Subscribe(prefixes ...string) (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
