package api

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Artexxx/employee-service/internal/dto"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"

	healthTimeout = 3 * time.Second
)

var actuatorEndpoints = []string{"health", "info", "mappings", "prometheus", "events", "dlq", "reset", "shutdown"}

type componentHealth struct {
	Status string `json:"status" example:"UP"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status" example:"UP"`
	Components map[string]componentHealth `json:"components,omitempty"`
}

type mappingsResponse struct {
	Routes map[string][]string `json:"routes"`
	Rules  []AccessRule        `json:"rules"`
}

// @Summary Список служебных эндпоинтов
// @Tags    Actuator
// @Produce json
// @Security BasicAuth
// @Router  /actuator [get]
func (s *Service) actuatorIndex(ctx *fasthttp.RequestCtx) {
	base := string(ctx.URI().Scheme()) + "://" + string(ctx.URI().Host()) + "/actuator"

	links := map[string]dto.Link{"self": {"href": base}}
	for _, name := range actuatorEndpoints {
		links[name] = dto.Link{"href": base + "/" + name}
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"_links": links})
}

// @Summary Состояние сервиса и его зависимостей
// @Tags    Actuator
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Security BasicAuth
// @Router  /actuator/health [get]
func (s *Service) healthHandler(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	resp := healthResponse{Status: statusUp}
	if len(s.health) > 0 {
		resp.Components = make(map[string]componentHealth, len(s.health))
	}

	for name, check := range s.health {
		if err := check(checkCtx); err != nil {
			resp.Status = statusDown
			resp.Components[name] = componentHealth{Status: statusDown, Error: err.Error()}
			continue
		}
		resp.Components[name] = componentHealth{Status: statusUp}
	}

	status := fasthttp.StatusOK
	if resp.Status == statusDown {
		status = fasthttp.StatusServiceUnavailable
	}

	writeJSON(ctx, status, resp)
}

// @Summary Информация о сборке
// @Tags    Actuator
// @Produce json
// @Security BasicAuth
// @Router  /actuator/info [get]
func (s *Service) infoHandler(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"app": map[string]string{
			"name":    s.name,
			"version": s.version,
			"profile": s.profile,
		},
		"runtime": map[string]string{
			"go":   runtime.Version(),
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
		},
	})
}

// @Summary Маршруты и таблица доступа
// @Tags    Actuator
// @Produce json
// @Success 200 {object} mappingsResponse
// @Security BasicAuth
// @Router  /actuator/mappings [get]
func (s *Service) mappingsHandler(ctx *fasthttp.RequestCtx) {
	registered := s.r.List()
	routes := make(map[string][]string, len(registered))
	for method, paths := range registered {
		routes[method] = slices.Sorted(slices.Values(paths))
	}

	writeJSON(ctx, fasthttp.StatusOK, mappingsResponse{Routes: routes, Rules: s.rules})
}

// @Summary Журнал событий сотрудников
// @Tags    Actuator
// @Produce json
// @Param   limit  query int false "Лимит"   default(50)
// @Param   offset query int false "Смещение" default(0)
// @Success 200 {object} listResponse
// @Failure 400 {object} errorResponse
// @Failure 501 {object} errorResponse "журнал не настроен"
// @Security BasicAuth
// @Router  /actuator/events [get]
func (s *Service) listEvents(ctx *fasthttp.RequestCtx) {
	if s.events == nil {
		writeError(ctx, fasthttp.StatusNotImplemented, ErrJournalDisabled)
		return
	}

	limit, offset, err := parseLO(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	rows, err := s.events.ListEvents(ctx, limit, offset)
	if err != nil {
		writeJournalError(ctx, fmt.Errorf("eventsRepository.ListEvents: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, listResponse{Items: rows, Limit: limit, Offset: offset})
}

// @Summary Сообщения, не попавшие в журнал (DLQ)
// @Tags    Actuator
// @Produce json
// @Param   limit  query int false "Лимит"   default(50)
// @Param   offset query int false "Смещение" default(0)
// @Success 200 {object} listResponse
// @Failure 400 {object} errorResponse
// @Failure 501 {object} errorResponse "журнал не настроен"
// @Security BasicAuth
// @Router  /actuator/dlq [get]
func (s *Service) listDLQ(ctx *fasthttp.RequestCtx) {
	if s.events == nil {
		writeError(ctx, fasthttp.StatusNotImplemented, ErrJournalDisabled)
		return
	}

	limit, offset, err := parseLO(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	rows, err := s.events.ListDLQ(ctx, limit, offset)
	if err != nil {
		writeJournalError(ctx, fmt.Errorf("eventsRepository.ListDLQ: %w", err))
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, listResponse{Items: rows, Limit: limit, Offset: offset})
}

// @Summary Очистить журнал событий и DLQ
// @Tags    Actuator
// @Success 200 {object} okResponse
// @Failure 501 {object} errorResponse "журнал не настроен"
// @Security BasicAuth
// @Router  /actuator/reset [post]
func (s *Service) resetHandler(ctx *fasthttp.RequestCtx) {
	if s.events == nil {
		writeError(ctx, fasthttp.StatusNotImplemented, ErrJournalDisabled)
		return
	}

	if err := s.events.ResetAll(ctx); err != nil {
		writeJournalError(ctx, fmt.Errorf("eventsRepository.ResetAll: %w", err))
		return
	}

	s.log.Info().Str("principal", principal(ctx)).Msg("journal reset")
	ok(ctx, "Журнал очищен")
}

// @Summary Остановить сервис
// @Tags    Actuator
// @Success 200 {object} okResponse
// @Failure 501 {object} errorResponse
// @Security BasicAuth
// @Router  /actuator/shutdown [post]
func (s *Service) shutdownHandler(ctx *fasthttp.RequestCtx) {
	if s.shutdown == nil {
		writeError(ctx, fasthttp.StatusNotImplemented, ErrShutdownDisabled)
		return
	}

	s.log.Warn().Str("principal", principal(ctx)).Msg("shutdown requested")
	ok(ctx, "Shutting down, bye...")

	s.shutdown()
}

func writeJournalError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, dto.ErrJournalDisabled) {
		writeError(ctx, fasthttp.StatusNotImplemented, ErrJournalDisabled)
		return
	}

	writeError(ctx, fasthttp.StatusInternalServerError, err)
}
