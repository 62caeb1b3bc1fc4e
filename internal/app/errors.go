package app

import (
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
)

var ErrNotFound = ports.ErrNotFound

// CodedError porte un code d'erreur stable, affiché dans les messages chat et
// les événements.
//
// Codes utilisés: timeout, network_error, bad_status, bad_payload,
// provisioning_failed, empty_question, busy.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }
