package ports

import (
	"context"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
)

// Backend est le service SterkAgents distant: catalogue, collections RAG,
// assistant. Les formes de requête/réponse suivent l'API telle quelle.
type Backend interface {
	FetchCatalog(ctx context.Context) ([]domain.Course, error)
	CheckCollection(ctx context.Context, name string) (CollectionCheck, error)
	EnsureCollection(ctx context.Context, name string) (CollectionEnsure, error)
	Ask(ctx context.Context, collection, question string) (AssistantAnswer, error)
}

type CollectionCheck struct {
	Exists bool   `json:"exists"`
	UUID   string `json:"uuid,omitempty"`
}

type CollectionEnsure struct {
	// Status: "exists" | "processing" | "error".
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type AssistantAnswer struct {
	Answer string `json:"answer"`
	// Status vaut "processing" quand la base de connaissances est encore en
	// cours de construction côté serveur.
	Status string `json:"status,omitempty"`
}
