// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: успешных ответов, ошибок
// и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки, в том числе для Swagger‑документации.
// Fields заполняется при ошибке валидации, Detail только вне production.
type ErrorResponse struct {
	Status string   `json:"status" example:"Error"`
	Error  string   `json:"error" example:"invalid request body"`
	Fields []string `json:"fields,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует ErrorResponse по ошибкам валидации:
// каждое нарушение превращается в человеко‑читаемый текст.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var msgs []string
	fields := make([]string, 0, len(errs))

	for _, err := range errs {
		fields = append(fields, err.Field())
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "uuid":
			msgs = append(msgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Fields: fields,
	}
}

// OK пишет успешный ответ с кодом 200.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, OKWithData(data))
}

// Created пишет успешный ответ с кодом 201.
func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, OKWithData(data))
}

// Fail пишет ответ с ошибкой и заданным кодом.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// Invalid пишет ответ 400 со списком полей, не прошедших валидацию.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ValidationError(verrs))
}

// Errors преобразует ошибки сервисов в HTTP‑ответы.
// При Detail=true в ответ 500 добавляется текст исходной ошибки.
type Errors struct {
	Detail bool
}

// Write подбирает код ответа по доменной ошибке и пишет её в ответ.
func (e Errors) Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := Classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Warn("request rejected", sl.Err(err), slog.Int("status", status))
	}

	body := Error(msg)
	if status == http.StatusInternalServerError && e.Detail {
		body.Detail = err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Classify возвращает HTTP‑код и сообщение для ошибки.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, models.ErrNotFound.Error()
	case errors.Is(err, models.ErrAgentNotConfigured):
		return http.StatusNotFound, models.ErrAgentNotConfigured.Error()
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict, models.ErrAlreadyExists.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, models.ErrInvalidCredentials.Error()
	case errors.Is(err, models.ErrInvalidToken):
		return http.StatusBadRequest, models.ErrInvalidToken.Error()
	case errors.Is(err, models.ErrUnsupportedMethod):
		return http.StatusBadRequest, models.ErrUnsupportedMethod.Error()
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, models.ErrInvalidAmount.Error()
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, models.ErrProvider):
		return http.StatusBadGateway, models.ErrProvider.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
