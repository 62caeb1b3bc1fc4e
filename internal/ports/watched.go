package ports

import "context"

// WatchedRepository persiste, par cours, l'ensemble des chemins vidéo déjà vus.
// L'ensemble est monotone: on ajoute, on ne retire jamais.
type WatchedRepository interface {
	// MarkWatched ajoute path à l'ensemble du cours. Renvoie true si le chemin
	// vient d'être ajouté, false s'il y était déjà (idempotent).
	MarkWatched(ctx context.Context, courseID, path string) (bool, error)
	IsWatched(ctx context.Context, courseID, path string) (bool, error)
	Watched(ctx context.Context, courseID string) ([]string, error)
	WatchedCount(ctx context.Context, courseID string) (int, error)
}
