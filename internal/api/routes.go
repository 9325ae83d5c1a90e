package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
	"github.com/wras-dhh/server/internal/publish"
	"github.com/wras-dhh/server/usecase"
)

// maxUploadBytes bounds speech uploads; platform recordings are short.
const maxUploadBytes = 10 << 20

// Handlers bundles the services the HTTP surface exposes.
type Handlers struct {
	Announcements *usecase.AnnouncementService
	AudioFiles    *usecase.AudioFileService
	SignLanguage  *usecase.SignLanguageService
	Templates     repositories.TemplateRepository
	TemplateJobs  *usecase.TemplateService
	Publisher     *publish.Publisher
	Logger        *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handlers) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "wras-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/announcements/generate", h.generateAnnouncement)
	v1.GET("/announcements/progress/:key", h.announcementProgress)
	v1.GET("/announcements", h.listAnnouncements)
	v1.DELETE("/announcements", h.clearAnnouncements)

	v1.GET("/templates", h.listTemplates)
	v1.POST("/templates", h.createTemplate)
	v1.POST("/templates/:id/segments", h.harvestTemplateSegments)
	v1.DELETE("/templates/:id", h.deleteTemplate)

	v1.POST("/audio-files", h.createAudioFile)

	v1.POST("/isl/text", h.textToISL)
	v1.POST("/isl/speech", h.speechToISL)

	v1.POST("/publish/:flow", h.publishPage)
}

func (h *Handlers) generateAnnouncement(c echo.Context) error {
	var req GenerateAnnouncementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.TemplateID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "template_id is required",
		})
	}

	key, err := h.Announcements.Generate(c.Request().Context(), usecase.GenerateRequest{
		TemplateID: req.TemplateID,
		Bindings:   req.Bindings,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "template_not_found",
				Message: "No active template with that id",
			})
		case errors.Is(err, usecase.ErrQueueFull):
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "queue_full",
				Message: "Server is busy, try again later",
			})
		default:
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		}
	}

	return c.JSON(http.StatusAccepted, GenerateAnnouncementResponse{
		GenerationKey: key,
		Status:        "starting",
	})
}

func (h *Handlers) announcementProgress(c echo.Context) error {
	key := c.Param("key")
	job, ok := h.Announcements.Progress(key)
	if !ok {
		job, ok = h.AudioFiles.Progress(key)
	}
	if !ok {
		job, ok = h.TemplateJobs.Progress(key)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_key",
			Message: "No job with that generation key",
		})
	}
	return c.JSON(http.StatusOK, job)
}

func (h *Handlers) listAnnouncements(c echo.Context) error {
	files, err := h.Announcements.List()
	if err != nil {
		h.Logger.Error("failed to list announcements", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "listing_failed",
			Message: "Could not read the announcement directories",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

func (h *Handlers) clearAnnouncements(c echo.Context) error {
	removed := h.Announcements.Clear()
	return c.JSON(http.StatusOK, ClearResponse{Removed: removed})
}

func (h *Handlers) listTemplates(c echo.Context) error {
	templates, err := h.Templates.List(c.Request().Context())
	if err != nil {
		h.Logger.Error("failed to list templates", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "listing_failed",
			Message: "Could not read templates",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

func (h *Handlers) createTemplate(c echo.Context) error {
	var req CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	texts := make(map[entities.Language]string, len(req.Texts))
	for name, text := range req.Texts {
		lang, ok := entities.ParseLanguage(name)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_language",
				Message: "Unsupported language: " + name,
			})
		}
		texts[lang] = strings.TrimSpace(text)
	}
	if texts[entities.LanguageEnglish] == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "English template text is required",
		})
	}

	ctx := c.Request().Context()
	existing, err := h.Templates.FindByEnglishText(ctx, texts[entities.LanguageEnglish])
	if err != nil {
		h.Logger.Error("template duplicate check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failed",
			Message: "Could not check for duplicates",
		})
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_template",
			Message: "A template with that English text already exists",
		})
	}

	template := entities.NewAnnouncementTemplate(req.Category, req.Title, texts[entities.LanguageEnglish])
	for lang, text := range texts {
		if lang != entities.LanguageEnglish && text != "" {
			template.SetText(lang, text)
		}
	}
	if err := h.Templates.Insert(ctx, template); err != nil {
		h.Logger.Error("failed to insert template", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failed",
			Message: "Could not store the template",
		})
	}
	return c.JSON(http.StatusCreated, template)
}

func (h *Handlers) harvestTemplateSegments(c echo.Context) error {
	key, err := h.TemplateJobs.HarvestSegments(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "template_not_found",
				Message: "No active template with that id",
			})
		case errors.Is(err, usecase.ErrQueueFull):
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "queue_full",
				Message: "Server is busy, try again later",
			})
		default:
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		}
	}
	return c.JSON(http.StatusAccepted, GenerateAnnouncementResponse{
		GenerationKey: key,
		Status:        "starting",
	})
}

func (h *Handlers) deleteTemplate(c echo.Context) error {
	id := c.Param("id")
	removed, err := h.TemplateJobs.Delete(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "template_not_found",
				Message: "No active template with that id",
			})
		}
		h.Logger.Error("failed to delete template", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failed",
			Message: "Could not delete the template",
		})
	}
	return c.JSON(http.StatusOK, DeleteTemplateResponse{
		ID:                  id,
		SegmentsDeactivated: removed,
	})
}

func (h *Handlers) createAudioFile(c echo.Context) error {
	var req CreateAudioFileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	key, err := h.AudioFiles.Create(c.Request().Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDuplicate):
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_text",
				Message: err.Error(),
			})
		case errors.Is(err, usecase.ErrQueueFull):
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "queue_full",
				Message: "Server is busy, try again later",
			})
		default:
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		}
	}

	return c.JSON(http.StatusAccepted, GenerateAnnouncementResponse{
		GenerationKey: key,
		Status:        "starting",
	})
}

func (h *Handlers) textToISL(c echo.Context) error {
	var req TextToISLRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "text is required",
		})
	}

	result, err := h.SignLanguage.TextToISL(c.Request().Context(), req.Text)
	if err != nil {
		return h.islError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) speechToISL(c echo.Context) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "An 'audio' file upload is required",
		})
	}
	if fileHeader.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "upload_too_large",
			Message: "Audio upload exceeds the size limit",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_upload",
			Message: "Could not read the uploaded audio",
		})
	}
	defer file.Close()
	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_upload",
			Message: "Could not read the uploaded audio",
		})
	}

	result, err := h.SignLanguage.SpeechToISL(c.Request().Context(), audio, fileHeader.Filename)
	if err != nil {
		return h.islError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// islError maps sign-language pipeline failures to status codes: a text with
// no dataset coverage is a client problem, everything else is a pipeline
// failure.
func (h *Handlers) islError(c echo.Context, err error) error {
	var videoErr *domain.NoMatchingVideoError
	if errors.As(err, &videoErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      "no_matching_video",
			"message":    err.Error(),
			"vocabulary": videoErr.Vocabulary,
		})
	}
	h.Logger.Error("sign-language pipeline failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "pipeline_failed",
		Message: err.Error(),
	})
}

func (h *Handlers) publishPage(c echo.Context) error {
	flow := c.Param("flow")
	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.VideoURL == "" && req.AudioURL == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "At least one of video_url or audio_url is required",
		})
	}

	texts := make(map[entities.Language]string, len(req.Texts))
	for name, text := range req.Texts {
		if lang, ok := entities.ParseLanguage(name); ok {
			texts[lang] = text
		}
	}

	pageURL, err := h.Publisher.Publish(publish.Page{
		Flow:     flow,
		Title:    req.Title,
		VideoURL: req.VideoURL,
		AudioURL: req.AudioURL,
		Texts:    texts,
		NameHint: req.TrainNumber,
	})
	if err != nil {
		var storageErr *domain.StorageError
		if errors.As(err, &storageErr) {
			h.Logger.Error("no writable publish directory", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "storage_unavailable",
				Message: "No writable publish directory",
			})
		}
		h.Logger.Error("failed to publish page", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "publish_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, PublishResponse{PageURL: pageURL})
}
