package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codesync/codesync-server/internal/store"
)

// DocumentHandlers expose the room document store for bootstrap reads and
// debounced saves.
type DocumentHandlers struct {
	docs store.DocumentStore
	log  *zerolog.Logger
}

// NewDocumentHandlers creates a new document handlers instance.
func NewDocumentHandlers(docs store.DocumentStore, logger *zerolog.Logger) *DocumentHandlers {
	return &DocumentHandlers{docs: docs, log: logger}
}

// DocumentResponse represents a room document on the wire.
type DocumentResponse struct {
	Room      string    `json:"room"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveDocumentRequest represents the save request body. Saves always carry
// the full current state.
type SaveDocumentRequest struct {
	Content  string `json:"content"`
	Language string `json:"language" binding:"required"`
}

// Get returns the stored document for a room.
// GET /api/rooms/:room/document
func (h *DocumentHandlers) Get(c *gin.Context) {
	room := c.Param("room")

	doc, err := h.docs.GetDocument(c.Request.Context(), room)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no document for room"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to load document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		Room:      doc.Room,
		Content:   doc.Content,
		Language:  doc.Language,
		UpdatedAt: doc.UpdatedAt,
	})
}

// Save upserts the full document for a room.
// PUT /api/rooms/:room/document
func (h *DocumentHandlers) Save(c *gin.Context) {
	room := c.Param("room")

	var req SaveDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Str("room", room).Msg("invalid save request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	doc := &store.Document{
		Room:     room,
		Content:  req.Content,
		Language: req.Language,
	}
	if err := h.docs.SaveDocument(c.Request.Context(), doc); err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("failed to save document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
