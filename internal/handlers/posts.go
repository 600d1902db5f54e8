package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/reuniteapp/lostfound/internal/middleware"
	"github.com/reuniteapp/lostfound/internal/posts"
)

const maxUploadSize = 32 << 20

type PostsHandler struct {
	svc    *posts.Service
	logger *slog.Logger
}

func NewPostsHandler(svc *posts.Service, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		svc:    svc,
		logger: logger,
	}
}

func (h *PostsHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := middleware.CallerFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or invalid credentials")
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		in := posts.CreateInput{
			Title:       r.FormValue("title"),
			Type:        r.FormValue("type"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Location:    r.FormValue("location"),
		}

		var upload *posts.ImageUpload
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			upload = &posts.ImageUpload{
				Body:        file,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			respondError(w, http.StatusBadRequest, "invalid image upload")
			return
		}

		post, err := h.svc.CreatePost(r.Context(), callerID, in, upload)
		if err != nil {
			h.respondServiceError(w, r, err, "create post failed")
			return
		}

		respondData(w, http.StatusCreated, "Post created successfully", post)
	}
}

func (h *PostsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := posts.Filter{
			Type:     q.Get("type"),
			Category: q.Get("category"),
			Location: q.Get("location"),
		}

		result, err := h.svc.ListPosts(r.Context(), filter)
		if err != nil {
			h.respondServiceError(w, r, err, "list posts failed")
			return
		}

		respondList(w, result, len(result))
	}
}

type UpdatePostRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Image       string `json:"image"`
}

func (h *PostsHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := middleware.CallerFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or invalid credentials")
			return
		}

		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			respondError(w, http.StatusNotFound, "Post not found")
			return
		}

		var req UpdatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		post, err := h.svc.UpdatePost(r.Context(), callerID, postID, posts.UpdateInput{
			Title:       req.Title,
			Type:        req.Type,
			Description: req.Description,
			Category:    req.Category,
			Location:    req.Location,
			Image:       req.Image,
		})
		if err != nil {
			h.respondServiceError(w, r, err, "update post failed")
			return
		}

		respondData(w, http.StatusOK, "Post updated successfully", post)
	}
}

func (h *PostsHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := middleware.CallerFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or invalid credentials")
			return
		}

		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			respondError(w, http.StatusNotFound, "Post not found")
			return
		}

		if err := h.svc.DeletePost(r.Context(), callerID, postID); err != nil {
			h.respondServiceError(w, r, err, "delete post failed")
			return
		}

		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Post deleted successfully"})
	}
}

func (h *PostsHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, posts.ErrMissingFields),
		errors.Is(err, posts.ErrInvalidType),
		errors.Is(err, posts.ErrMissingImage):
		respondError(w, http.StatusBadRequest, errMessage(err))
	case errors.Is(err, posts.ErrImageUpload):
		h.logger.Error(logMsg, "error", err, "request_id", middleware.GetRequestID(r.Context()))
		respondError(w, http.StatusInternalServerError, "Image upload failed")
	case errors.Is(err, posts.ErrNotFound):
		respondError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, posts.ErrForbidden):
		respondError(w, http.StatusForbidden, "Not authorized")
	default:
		h.logger.Error(logMsg, "error", err, "request_id", middleware.GetRequestID(r.Context()))
		respondError(w, http.StatusInternalServerError, "Server error. Please try again later.")
	}
}

func errMessage(err error) string {
	switch {
	case errors.Is(err, posts.ErrMissingFields):
		return "All fields are required"
	case errors.Is(err, posts.ErrInvalidType):
		return "Type must be either 'lost' or 'found'"
	case errors.Is(err, posts.ErrMissingImage):
		return "No image file uploaded"
	}
	return err.Error()
}
