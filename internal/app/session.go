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

// Les appels check/create n'ont pas d'annulation côté client: une fois émis
// ils vont au bout ou échouent. Le plafond évite seulement une fuite.
const provisionCallTimeout = 60 * time.Second

func contextWithProvisionTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), provisionCallTimeout)
}

// SessionController est la racine de composition: il possède le cours actif,
// la vidéo courante, et fait travailler progression, provisioning et chat à
// chaque changement de vidéo.
type SessionController struct {
	logger   zerolog.Logger
	backend  ports.Backend
	progress *ProgressService
	prov     *ProvisioningService
	chat     *ChatSession
	bus      ports.EventBus

	mu      sync.Mutex
	started bool
	course  domain.Course
	videos  []domain.VideoItem
	current domain.VideoItem
}

func NewSessionController(logger zerolog.Logger, backend ports.Backend, progress *ProgressService, prov *ProvisioningService, chat *ChatSession, bus ports.EventBus) *SessionController {
	return &SessionController{
		logger:   logger,
		backend:  backend,
		progress: progress,
		prov:     prov,
		chat:     chat,
		bus:      bus,
	}
}

// Start résout le cours dans le catalogue et sélectionne la vidéo initiale:
// initialPath si elle appartient au cours, sinon la première de la séquence.
// ErrNotFound si l'identifiant ne se résout pas (la surface redirige vers le
// catalogue).
func (s *SessionController) Start(ctx context.Context, courseID, initialPath string) error {
	catalog, err := s.backend.FetchCatalog(ctx)
	if err != nil {
		return err
	}

	var course domain.Course
	found := false
	for _, c := range catalog {
		if c.ID == courseID {
			course = c
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	videos := course.OrderedVideos()
	if len(videos) == 0 {
		return ErrNotFound
	}

	initial := videos[0]
	if initialPath != "" {
		if v, ok := course.FindVideo(initialPath); ok {
			initial = v
		}
	}

	s.mu.Lock()
	s.started = true
	s.course = course
	s.videos = videos
	s.mu.Unlock()

	s.logger.Info().
		Str("course_id", course.ID).
		Str("collection", course.CollectionName).
		Int("videos", len(videos)).
		Msg("session started")

	return s.SelectVideo(initial.Path)
}

// SelectVideo applique un changement de vidéo: vidéo courante mise à jour,
// conversation remise à zéro, puis provisioning déclenché en arrière-plan —
// jamais avant que le changement soit appliqué, pour ne pas retarder la
// lecture.
func (s *SessionController) SelectVideo(path string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotFound
	}
	video, ok := s.course.FindVideo(path)
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.current = video
	course := s.course
	s.mu.Unlock()

	s.chat.ResetFor(course.CollectionName)
	s.publishSelected(video)

	s.prov.ResetIfError(course.CollectionName)
	go func() {
		ctx, cancel := contextWithProvisionTimeout()
		defer cancel()
		s.prov.Ensure(ctx, course.CollectionName)
	}()

	return nil
}

// VideoLoaded est le signal "données vidéo complètement chargées" du lecteur.
// C'est lui, et non la sélection, qui marque la vidéo comme vue.
func (s *SessionController) VideoLoaded(ctx context.Context, path string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotFound
	}
	course := s.course
	s.mu.Unlock()

	_, err := s.progress.MarkWatched(ctx, course, path)
	return err
}

func (s *SessionController) Course() (domain.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.course, s.started
}

func (s *SessionController) Current() (domain.VideoItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.started
}

// ModuleEntry est l'entrée de la liste de modules telle que la surface
// l'affiche: la vidéo courante est marquée, celles d'avant sont "terminées".
type ModuleEntry struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	Duration  string `json:"duration,omitempty"`
	Index     int    `json:"index"`
	Current   bool   `json:"current"`
	Completed bool   `json:"completed"`
	Watched   bool   `json:"watched"`
}

type SessionSnapshot struct {
	CourseID     string                 `json:"courseId"`
	CourseTitle  string                 `json:"courseTitle"`
	Collection   string                 `json:"collection"`
	IsSeries     bool                   `json:"isSeries"`
	CurrentPath  string                 `json:"currentPath"`
	CurrentTitle string                 `json:"currentTitle"`
	Modules      []ModuleEntry          `json:"modules"`
	Progress     ProgressDTO            `json:"progress"`
	Provisioning domain.CollectionState `json:"provisioning"`
	ChatState    domain.ChatState       `json:"chatState"`
}

func (s *SessionController) Snapshot(ctx context.Context) (SessionSnapshot, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return SessionSnapshot{}, ErrNotFound
	}
	course := s.course
	videos := s.videos
	current := s.current
	s.mu.Unlock()

	modules := make([]ModuleEntry, 0, len(videos))
	for _, v := range videos {
		watched, err := s.progress.IsWatched(ctx, course.ID, v.Path)
		if err != nil {
			return SessionSnapshot{}, err
		}
		modules = append(modules, ModuleEntry{
			Path:      v.Path,
			Title:     v.Title,
			Duration:  v.Duration,
			Index:     v.Index,
			Current:   v.Path == current.Path,
			Completed: v.Index < current.Index,
			Watched:   watched,
		})
	}

	prog, err := s.progress.Snapshot(ctx, course)
	if err != nil {
		return SessionSnapshot{}, err
	}

	return SessionSnapshot{
		CourseID:     course.ID,
		CourseTitle:  course.Title,
		Collection:   course.CollectionName,
		IsSeries:     course.IsSeries,
		CurrentPath:  current.Path,
		CurrentTitle: current.Title,
		Modules:      modules,
		Progress:     prog,
		Provisioning: s.prov.State(course.CollectionName),
		ChatState:    s.chat.State(),
	}, nil
}

func (s *SessionController) publishSelected(video domain.VideoItem) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(map[string]any{
		"path":  video.Path,
		"title": video.Title,
		"index": video.Index,
	})
	if err != nil {
		return
	}
	s.bus.Publish("video.selected", b)
}
