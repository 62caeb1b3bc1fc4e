package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/app"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/httpjson"
	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	session *app.SessionController
}

func NewSessionHandler(session *app.SessionController) *SessionHandler {
	return &SessionHandler{session: session}
}

func (h *SessionHandler) Routes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Post("/start", h.start)
		r.Get("/", h.snapshot)
		r.Post("/select", h.selectVideo)
		r.Post("/loaded", h.loaded)
		r.Get("/progress", h.progress)
	})
}

type startRequest struct {
	CourseID    string `json:"courseId"`
	InitialPath string `json:"initialPath,omitempty"`
}

// notFoundRedirect est la réponse "cours introuvable": la page doit repartir
// vers la racine du catalogue.
type notFoundRedirect struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CourseID == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing courseId")
		return
	}

	if err := h.session.Start(r.Context(), req.CourseID, req.InitialPath); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.Write(w, http.StatusNotFound, notFoundRedirect{Error: "course not found", Redirect: "/"})
			return
		}
		httpjson.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.snapshot(w, r)
}

func (h *SessionHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.Write(w, http.StatusNotFound, notFoundRedirect{Error: "no active session", Redirect: "/"})
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, snap)
}

type videoPathRequest struct {
	Path string `json:"path"`
}

func (h *SessionHandler) selectVideo(w http.ResponseWriter, r *http.Request) {
	var req videoPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.session.SelectVideo(req.Path); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "unknown video path")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.snapshot(w, r)
}

// loaded est le signal "données vidéo chargées" du lecteur: c'est ici que la
// vidéo est comptée comme vue.
func (h *SessionHandler) loaded(w http.ResponseWriter, r *http.Request) {
	var req videoPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.session.VideoLoaded(r.Context(), req.Path); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "no active session")
			return
		}
		var coded *app.CodedError
		if errors.As(err, &coded) && coded.Code == "unknown_video" {
			httpjson.WriteError(w, http.StatusBadRequest, coded.Message)
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.snapshot(w, r)
}

func (h *SessionHandler) progress(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "no active session")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, snap.Progress)
}
