package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
)

type fakeBackend struct {
	mu sync.Mutex

	catalog    []domain.Course
	catalogErr error

	checkFn  func(name string) (ports.CollectionCheck, error)
	ensureFn func(name string) (ports.CollectionEnsure, error)
	askFn    func(ctx context.Context, collection, question string) (ports.AssistantAnswer, error)

	catalogCalls int
	checkCalls   int
	ensureCalls  int
	askCalls     int
}

func (b *fakeBackend) FetchCatalog(ctx context.Context) ([]domain.Course, error) {
	b.mu.Lock()
	b.catalogCalls++
	b.mu.Unlock()
	return b.catalog, b.catalogErr
}

func (b *fakeBackend) CheckCollection(ctx context.Context, name string) (ports.CollectionCheck, error) {
	b.mu.Lock()
	b.checkCalls++
	fn := b.checkFn
	b.mu.Unlock()
	if fn == nil {
		return ports.CollectionCheck{Exists: true}, nil
	}
	return fn(name)
}

func (b *fakeBackend) EnsureCollection(ctx context.Context, name string) (ports.CollectionEnsure, error) {
	b.mu.Lock()
	b.ensureCalls++
	fn := b.ensureFn
	b.mu.Unlock()
	if fn == nil {
		return ports.CollectionEnsure{Status: "exists"}, nil
	}
	return fn(name)
}

func (b *fakeBackend) Ask(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
	b.mu.Lock()
	b.askCalls++
	fn := b.askFn
	b.mu.Unlock()
	if fn == nil {
		return ports.AssistantAnswer{Answer: "ok"}, nil
	}
	return fn(ctx, collection, question)
}

func (b *fakeBackend) calls() (catalog, check, ensure, ask int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.catalogCalls, b.checkCalls, b.ensureCalls, b.askCalls
}

// memWatchedRepo est l'équivalent mémoire du repo sqlite pour les tests app.
type memWatchedRepo struct {
	mu   sync.Mutex
	seen map[string]map[string]bool
}

func newMemWatchedRepo() *memWatchedRepo {
	return &memWatchedRepo{seen: map[string]map[string]bool{}}
}

func (r *memWatchedRepo) MarkWatched(ctx context.Context, courseID, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.seen[courseID]
	if !ok {
		set = map[string]bool{}
		r.seen[courseID] = set
	}
	if set[path] {
		return false, nil
	}
	set[path] = true
	return true, nil
}

func (r *memWatchedRepo) IsWatched(ctx context.Context, courseID, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[courseID][path], nil
}

func (r *memWatchedRepo) Watched(ctx context.Context, courseID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for p := range r.seen[courseID] {
		out = append(out, p)
	}
	return out, nil
}

func (r *memWatchedRepo) WatchedCount(ctx context.Context, courseID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen[courseID]), nil
}

// waitFor sonde cond jusqu'à 2s avant d'échouer.
func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func testCourse() domain.Course {
	return domain.Course{
		ID:             "course_intro",
		Title:          "Intro",
		IsSeries:       true,
		CollectionName: "intro",
		Videos: []domain.VideoItem{
			{Path: "/Education_video/Intro/01.mp4", Title: "01", Duration: "10d 0sn", Index: 0},
			{Path: "/Education_video/Intro/02.mp4", Title: "02", Duration: "15d 0sn", Index: 1},
			{Path: "/Education_video/Intro/03.mp4", Title: "03", Duration: "5d 0sn", Index: 2},
		},
	}
}
