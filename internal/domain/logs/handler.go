package logs

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/xycloo/multiuser-logging-service/pkg/response"
)

const defaultMaxBody = 1 << 20

// SerializedEncodingHeader marks a zstd-compressed serialized envelope.
const SerializedEncodingHeader = "X-Serialized-Encoding"

// Handler wires HTTP routes to the capture Service and, when configured, the PersistService.
type Handler struct {
	service *Service
	persist *PersistService
	archive ArchiveReader
	maxBody int64
}

// NewHandler returns a Handler. persist and archive may be nil; their routes are then not mounted.
func NewHandler(service *Service, persist *PersistService, archive ArchiveReader, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Handler{service: service, persist: persist, archive: archive, maxBody: maxBody}
}

// RegisterRoutes mounts capture and store routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.listUsers)

	user := rg.Group("/users/:user_id")
	{
		user.POST("/logs", h.write)
		user.POST("/logs/serialized", h.writeSerialized)
		user.GET("/logs", h.readUnified)
		user.GET("/logs/:severity", h.readSeverity)
		user.POST("/capture", h.enableCapture)
		user.DELETE("/capture", h.disableCapture)
		if h.archive != nil {
			user.GET("/archive", h.readArchive)
		}
	}

	if h.persist != nil {
		store := rg.Group("/store/users/:user_id")
		store.POST("/logs", h.persistWrite)
		store.GET("/logs", h.persistRead)
	}
}

func (h *Handler) write(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	n, err := h.service.Ingest(userID, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"accepted": n})
}

func (h *Handler) writeSerialized(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	var env Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		h.handleError(c, err)
		return
	}
	compressed := strings.EqualFold(c.GetHeader(SerializedEncodingHeader), "zstd")
	if _, err := h.service.IngestSerialized(userID, env, compressed); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"accepted": 1})
}

func (h *Handler) readUnified(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.ReadUnified(userID))
}

func (h *Handler) readSeverity(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	sev, err := ParseSeverity(c.Param("severity"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.ReadSeverity(userID, sev))
}

func (h *Handler) enableCapture(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	h.service.EnableCapture(userID)
	response.Success(c, http.StatusOK, nil)
}

func (h *Handler) disableCapture(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	h.service.DisableCapture(userID)
	response.Success(c, http.StatusOK, nil)
}

func (h *Handler) readArchive(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	archived, err := h.archive.Archived(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, archived)
}

func (h *Handler) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListUsers())
}

func (h *Handler) persistWrite(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	if _, err := h.persist.Ingest(c.Request.Context(), userID, body); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, nil)
}

func (h *Handler) persistRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	entries, err := h.persist.Read(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) userID(c *gin.Context) (int64, bool) {
	id, err := ParseUserID(c.Param("user_id"))
	if err != nil {
		h.handleError(c, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody))
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return body, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		response.PayloadTooLarge(c, tooLarge.Limit)
	case errors.Is(err, ErrInvalidUserID):
		response.BadRequest(c, "invalid_user_id", "user id must be a 64-bit integer")
	case errors.Is(err, ErrUnknownSeverity):
		response.BadRequest(c, "unknown_severity", err.Error())
	case errors.Is(err, ErrMalformedPayload):
		response.BadRequest(c, "malformed_payload", err.Error())
	case isDecodeError(err):
		response.ValidationError(c, err)
	default:
		response.InternalServerError(c, err)
	}
}

func isDecodeError(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		verr      validator.ValidationErrors
	)
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &verr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
