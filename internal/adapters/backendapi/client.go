// Package backendapi est le client HTTP du service SterkAgents: catalogue
// vidéo, collections RAG et assistant.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/app"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/domain"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.client = h
	}
	return c
}

// courseRecord suit le JSON de /api/videolar tel que le serveur l'émet.
type courseRecord struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Thumbnail      string        `json:"thumbnail"`
	IsSeries       bool          `json:"is_series"`
	CollectionName string        `json:"collection_name"`
	TotalDuration  string        `json:"total_duration"`
	VideoURL       string        `json:"video_url"`
	VideoCount     int           `json:"video_count"`
	SeriesVideos   []videoRecord `json:"series_videos_data"`
}

type videoRecord struct {
	VideoPath string `json:"video_path"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Index     int    `json:"index"`
}

func (c *Client) FetchCatalog(ctx context.Context) ([]domain.Course, error) {
	var records []courseRecord
	if err := c.get(ctx, "/api/videolar", &records); err != nil {
		return nil, err
	}

	out := make([]domain.Course, 0, len(records))
	for _, rec := range records {
		course := domain.Course{
			ID:             rec.ID,
			Title:          rec.Title,
			Description:    rec.Description,
			Thumbnail:      rec.Thumbnail,
			IsSeries:       rec.IsSeries,
			CollectionName: rec.CollectionName,
			TotalDuration:  rec.TotalDuration,
			VideoURL:       rec.VideoURL,
			VideoCount:     rec.VideoCount,
		}
		for _, v := range rec.SeriesVideos {
			course.Videos = append(course.Videos, domain.VideoItem{
				Path:     v.VideoPath,
				Title:    v.Title,
				Duration: v.Duration,
				Index:    v.Index,
			})
		}
		out = append(out, course)
	}
	return out, nil
}

func (c *Client) CheckCollection(ctx context.Context, name string) (ports.CollectionCheck, error) {
	var out ports.CollectionCheck
	path := "/api/check-collection/" + url.PathEscape(name)
	if err := c.get(ctx, path, &out); err != nil {
		return ports.CollectionCheck{}, err
	}
	return out, nil
}

func (c *Client) EnsureCollection(ctx context.Context, name string) (ports.CollectionEnsure, error) {
	body := map[string]string{"collection_name": name}
	var out ports.CollectionEnsure
	if err := c.post(ctx, "/api/ensure-collection", body, &out); err != nil {
		return ports.CollectionEnsure{}, err
	}
	return out, nil
}

func (c *Client) Ask(ctx context.Context, collection, question string) (ports.AssistantAnswer, error) {
	body := map[string]string{
		"collection_name": collection,
		"question":        question,
	}
	var out ports.AssistantAnswer
	if err := c.post(ctx, "/api/asistana-sor", body, &out); err != nil {
		return ports.AssistantAnswer{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &app.CodedError{Code: "network_error", Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &app.CodedError{Code: "bad_status", Message: fmt.Sprintf("backend http error: %s", resp.Status)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// Réponse illisible: traitée comme une erreur transport par l'appelant.
		return &app.CodedError{Code: "bad_payload", Message: "backend returned malformed json", Err: err}
	}
	return nil
}
