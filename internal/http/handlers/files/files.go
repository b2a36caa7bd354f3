// Package files реализует обработчики загрузки, выдачи и удаления файлов.
package files

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/http/middlewarectx"
	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
	filesvc "github.com/magabrotheeeer/omniclass/internal/services/files"
	"github.com/magabrotheeeer/omniclass/internal/storage/filestore"
)

// multipartOverhead запас сверх лимита файла на заголовки и прочие поля формы.
const multipartOverhead = 1 << 20

// Service описывает файловый сервис.
type Service interface {
	Upload(ctx context.Context, userID string, in filesvc.Upload) (*models.UploadedFile, error)
	Get(ctx context.Context, id, userID string) (*models.UploadedFile, error)
	Open(ctx context.Context, fileName string, caller access.Caller) (*models.UploadedFile, *os.File, error)
	Delete(ctx context.Context, id, userID string) error
}

// Handler обрабатывает запросы /api/files/*.
type Handler struct {
	log      *slog.Logger
	service  Service
	maxBytes int64
	errs     response.Errors
}

// New создаёт Handler. maxBytes ограничивает размер загружаемого файла.
func New(log *slog.Logger, service Service, maxBytes int64, errs response.Errors) *Handler {
	return &Handler{log: log, service: service, maxBytes: maxBytes, errs: errs}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))
}

// Upload godoc
// @Summary Загрузка файла
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Файл"
// @Param context formData string false "Назначение файла"
// @Success 201 {object} response.Response{data=models.UploadedFile}
// @Failure 400 {object} response.ErrorResponse "Файл не передан"
// @Failure 413 {object} response.ErrorResponse "Файл слишком большой"
// @Router /files/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.files.Upload")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(w, r, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		log.Warn("no file in request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	uploaded, err := h.service.Upload(r.Context(), userID, filesvc.Upload{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Context:      r.FormValue("context"),
		Body:         file,
	})
	if err != nil {
		if errors.Is(err, filestore.ErrTooLarge) {
			response.Fail(w, r, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("file uploaded", slog.String("file_id", uploaded.ID), slog.Int64("size", uploaded.FileSize))
	response.Created(w, r, uploaded)
}

// Get godoc
// @Summary Метаданные файла
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Success 200 {object} response.Response{data=models.UploadedFile}
// @Failure 404 {object} response.ErrorResponse
// @Router /files/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.files.Get")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	f, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, f)
}

// Serve godoc
// @Summary Содержимое файла
// @Description Доступно владельцу и администратору.
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param filename path string true "Имя файла"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /files/serve/{filename} [get]
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.files.Serve")

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	meta, body, err := h.service.Open(r.Context(), chi.URLParam(r, "filename"), caller)
	if err != nil {
		if errors.Is(err, filestore.ErrInvalidName) {
			response.Fail(w, r, http.StatusNotFound, models.ErrNotFound.Error())
			return
		}
		h.errs.Write(w, r, log, err)
		return
	}
	defer body.Close()

	stat, err := body.Stat()
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	if meta.MimeType != "" {
		w.Header().Set("Content-Type", meta.MimeType)
	}
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("inline", map[string]string{"filename": meta.OriginalName}))
	http.ServeContent(w, r, meta.OriginalName, stat.ModTime(), body)
}

// Delete godoc
// @Summary Удаление файла
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /files/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.files.Delete")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("file deleted", slog.String("file_id", id))
	response.OK(w, r, map[string]string{"message": "File deleted"})
}
