package domain

import "errors"

// CollectionState suit la préparation de la base de connaissances côté
// serveur pour une collection donnée.
type CollectionState string

const (
	CollectionUnknown  CollectionState = "unknown"
	CollectionChecking CollectionState = "checking"
	CollectionMissing  CollectionState = "missing"
	CollectionCreating CollectionState = "creating"
	CollectionReady    CollectionState = "ready"
	CollectionError    CollectionState = "error"
)

// IsTerminal: ready et error sont finaux pour la session, sauf reset explicite.
func (s CollectionState) IsTerminal() bool {
	return s == CollectionReady || s == CollectionError
}

var ErrInvalidCollectionTransition = errors.New("invalid collection state transition")

func CanTransitionCollection(from, to CollectionState) bool {
	if from == to {
		return true
	}
	switch from {
	case CollectionUnknown:
		return to == CollectionChecking
	case CollectionChecking:
		return to == CollectionReady || to == CollectionMissing || to == CollectionError
	case CollectionMissing:
		return to == CollectionCreating || to == CollectionError
	case CollectionCreating:
		return to == CollectionReady || to == CollectionError
	case CollectionReady, CollectionError:
		// Reset explicite uniquement (retour à unknown géré hors machine).
		return false
	default:
		return false
	}
}
