package app

import (
	"context"
	"encoding/json"
	"math"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
	"github.com/rs/zerolog"
)

// ProgressService tient l'ensemble "vu" d'un cours et son pourcentage de
// complétion. Le marquage n'arrive que sur le signal de chargement complet du
// lecteur, jamais sur la simple sélection.
type ProgressService struct {
	logger zerolog.Logger
	repo   ports.WatchedRepository
	bus    ports.EventBus
}

func NewProgressService(logger zerolog.Logger, repo ports.WatchedRepository, bus ports.EventBus) *ProgressService {
	return &ProgressService{logger: logger, repo: repo, bus: bus}
}

type ProgressDTO struct {
	CourseID    string   `json:"courseId"`
	Watched     []string `json:"watched"`
	WatchedCnt  int      `json:"watchedCount"`
	TotalVideos int      `json:"totalVideos"`
	Percent     int      `json:"percent"`
}

// MarkWatched ajoute le chemin à l'ensemble vu du cours. Un chemin hors de la
// liste des vidéos du cours est refusé. Renvoie true si le chemin vient d'être
// ajouté; pas d'événement quand il y était déjà.
func (s *ProgressService) MarkWatched(ctx context.Context, course domain.Course, path string) (bool, error) {
	if !course.HasVideo(path) {
		return false, &CodedError{Code: "unknown_video", Message: "path does not belong to course " + course.ID}
	}

	added, err := s.repo.MarkWatched(ctx, course.ID, path)
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}

	dto, err := s.Snapshot(ctx, course)
	if err != nil {
		s.logger.Warn().Err(err).Str("course_id", course.ID).Msg("progress snapshot failed after mark")
		return true, nil
	}
	s.publish(dto)
	return true, nil
}

func (s *ProgressService) IsWatched(ctx context.Context, courseID, path string) (bool, error) {
	return s.repo.IsWatched(ctx, courseID, path)
}

// CompletionPercentage = round(100 × vus / total); 0 quand total == 0.
func (s *ProgressService) CompletionPercentage(ctx context.Context, courseID string, totalVideos int) (int, error) {
	if totalVideos <= 0 {
		return 0, nil
	}
	n, err := s.repo.WatchedCount(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return int(math.Round(100 * float64(n) / float64(totalVideos))), nil
}

func (s *ProgressService) Snapshot(ctx context.Context, course domain.Course) (ProgressDTO, error) {
	watched, err := s.repo.Watched(ctx, course.ID)
	if err != nil {
		return ProgressDTO{}, err
	}
	total := len(course.OrderedVideos())
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(len(watched)) / float64(total)))
	}
	return ProgressDTO{
		CourseID:    course.ID,
		Watched:     watched,
		WatchedCnt:  len(watched),
		TotalVideos: total,
		Percent:     pct,
	}, nil
}

func (s *ProgressService) publish(dto ProgressDTO) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(dto)
	if err != nil {
		return
	}
	s.bus.Publish("progress.updated", b)
}
