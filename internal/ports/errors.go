package ports

import "errors"

var ErrNotFound = errors.New("not found")

// ErrStale marque un résultat asynchrone dont la cible (vidéo/collection)
// n'est plus la cible courante de la session.
var ErrStale = errors.New("stale result")
