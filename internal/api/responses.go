package api

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/Artexxx/employee-service/internal/dto"
)

var (
	ErrEmployeeNotFound  = errors.New("сотрудник не найден")
	ErrEmployeesNotFound = errors.New("сотрудники не найдены")
	ErrEmailRequired     = errors.New("параметр email не передан")
	ErrUnauthorized      = errors.New("требуется аутентификация")
	ErrForbidden         = errors.New("недостаточно прав")
	ErrNotAcceptable     = errors.New("ожидается Accept: text/event-stream")
	ErrJournalDisabled   = errors.New("журнал событий не настроен")
	ErrShutdownDisabled  = errors.New("остановка через API не настроена")
	ErrInvalidPagination = errors.New("некорректные limit/offset")
	ErrRouteNotFound     = errors.New("путь не найден")
	ErrMethodNotAllowed  = errors.New("метод не поддерживается")
	ErrInternal          = errors.New("внутренняя ошибка сервера")
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type okResponse struct {
	Status string `json:"status" example:"ok"`
	Msg    string `json:"msg" example:"Готово"`
}

type errorResponse struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Violations []Violation `json:"violations,omitempty"`
}

type listResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, body any) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.SetStatusCode(statusCode)

	_ = json.NewEncoder(ctx).Encode(body)
}

func ok(ctx *fasthttp.RequestCtx, msg string) {
	writeJSON(ctx, fasthttp.StatusOK, okResponse{Status: "ok", Msg: msg})
}

func noContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusNoContent)
	ctx.ResetBody()
}

func writeError(ctx *fasthttp.RequestCtx, httpStatus int, err error) {
	writeJSON(ctx, httpStatus, errorResponse{Code: fasthttp.StatusMessage(httpStatus), Message: err.Error()})
}

func writeViolations(ctx *fasthttp.RequestCtx, verr *ValidationError) {
	writeJSON(ctx, fasthttp.StatusBadRequest, errorResponse{
		Code:       fasthttp.StatusMessage(fasthttp.StatusBadRequest),
		Message:    verr.Error(),
		Violations: verr.Violations,
	})
}

// writeBodyError отвечает на ошибку разбора тела: ошибки формата JSON, типов,
// навыков и дат - 400 с текстом ошибки, остальное - 500.
func writeBodyError(ctx *fasthttp.RequestCtx, err error) {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		skillErr  *dto.SkillDecodeError
		dateErr   *dto.DateDecodeError
	)

	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &skillErr), errors.As(err, &dateErr):
		writeError(ctx, fasthttp.StatusBadRequest, err)
	default:
		writeError(ctx, fasthttp.StatusInternalServerError, err)
	}
}

// parseLO читает limit и offset из query.
func parseLO(ctx *fasthttp.RequestCtx) (limit, offset int, err error) {
	limit, offset = defaultLimit, 0
	args := ctx.QueryArgs()

	if raw := args.Peek("limit"); len(raw) > 0 {
		limit, err = strconv.Atoi(string(raw))
		if err != nil || limit <= 0 {
			return 0, 0, ErrInvalidPagination
		}
		limit = min(limit, maxLimit)
	}

	if raw := args.Peek("offset"); len(raw) > 0 {
		offset, err = strconv.Atoi(string(raw))
		if err != nil || offset < 0 {
			return 0, 0, ErrInvalidPagination
		}
	}

	return limit, offset, nil
}
