package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/pocket"
)

const maxBodyBytes = 10 << 20 // 10 MB

// ItemPublisher is notified after an item is committed.
type ItemPublisher interface {
	PublishItemEvent(item *models.PocketItem, source string)
}

// Handler holds API route handlers.
type Handler struct {
	svc       *pocket.Service
	dbPath    string
	publisher ItemPublisher
}

// NewHandler creates a new Handler writing to the database at dbPath.
// publisher may be nil.
func NewHandler(svc *pocket.Service, dbPath string, publisher ItemPublisher) *Handler {
	return &Handler{svc: svc, dbPath: dbPath, publisher: publisher}
}

// AddItem handles POST /api/items.
//
//	@Summary		Add an item from text
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddItemRequest	true	"Item to add"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	item, err := h.svc.Add(r.Context(), models.AddCommand{
		ID:     itemID(req.ID),
		Text:   req.Text,
		Tags:   req.Tags,
		DBPath: h.dbPath,
	})
	h.respond(w, item, err)
}

// AddFile handles POST /api/items/file.
//
//	@Summary		Add an item from a file on the server
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddFileRequest	true	"File to add"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/file [post]
func (h *Handler) AddFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req AddFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.FilePath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("file_path is required"))
		return
	}
	item, err := h.svc.AddFile(r.Context(), models.AddFileCommand{
		ID:       itemID(req.ID),
		FilePath: req.FilePath,
		Tags:     req.Tags,
		DBPath:   h.dbPath,
	})
	h.respond(w, item, err)
}

func (h *Handler) respond(w http.ResponseWriter, item *models.PocketItem, err error) {
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("item already exists"))
		case errors.Is(err, apperr.ErrFileNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("file not found"))
		case errors.Is(err, apperr.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("add item failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if h.publisher != nil {
		h.publisher.PublishItemEvent(item, "api")
	}
	writeJSON(w, http.StatusCreated, item)
}

// itemID returns the caller's id, or a fresh UUID when none was given.
func itemID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
