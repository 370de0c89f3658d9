package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/Artexxx/employee-service/internal/dto"
	"github.com/Artexxx/employee-service/internal/hateoas"
	"github.com/Artexxx/employee-service/internal/patcher"
)

// @Summary Поиск сотрудников по email или lastname, без параметров - все
// @Tags    Employees
// @Produce json
// @Param   email    query string false "Email"
// @Param   lastname query string false "Фамилия"
// @Success 200 {array}  dto.Employee
// @Failure 404 {object} errorResponse "сотрудники не найдены"
// @Security BasicAuth
// @Router  / [get]
func (s *Service) find(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "find")()

	query := make(map[string][]string)
	ctx.QueryArgs().VisitAll(func(k, v []byte) {
		query[string(k)] = append(query[string(k)], string(v))
	})

	employees, err := s.employees.Find(ctx, query)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.Find: %w", err))
		return
	}

	if len(employees) == 0 {
		writeError(ctx, fasthttp.StatusNotFound, ErrEmployeesNotFound)
		return
	}

	base := requestURI(ctx)
	for i := range employees {
		employees[i].ItemLinks = hateoas.ItemLinks(base, employees[i].ID)
	}

	writeJSON(ctx, fasthttp.StatusOK, employees)
}

// @Summary Сотрудник по идентификатору
// @Tags    Employees
// @Produce json
// @Param   id path string true "Идентификатор (UUID)"
// @Success 200 {object} dto.Employee
// @Failure 404 {object} errorResponse "сотрудник не найден"
// @Security BasicAuth
// @Router  /{id} [get]
func (s *Service) findByID(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "findByID")()

	id, valid := pathID(ctx)
	if !valid {
		writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
		return
	}

	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
			return
		}

		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.FindByID: %w", err))
		return
	}

	employee.SingleLinks = hateoas.SingleLinks(requestURI(ctx))

	writeJSON(ctx, fasthttp.StatusOK, employee)
}

// @Summary Создать сотрудника
// @Tags    Employees
// @Accept  json
// @Param   request body dto.Employee true "Сотрудник"
// @Success 201 "Location - URI нового сотрудника"
// @Failure 400 {object} errorResponse "ошибка разбора или валидации"
// @Router  / [post]
func (s *Service) create(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "create")()

	var req dto.Employee
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeBodyError(ctx, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if !s.validate(ctx, req) {
		return
	}

	created, err := s.employees.Create(ctx, req)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.Create: %w", err))
		return
	}

	s.publish(ctx, dto.EventCreated, *created)

	ctx.Response.Header.Set(fasthttp.HeaderLocation, requestURI(ctx)+created.ID)
	ctx.SetStatusCode(fasthttp.StatusCreated)
}

// @Summary Заменить данные сотрудника
// @Tags    Employees
// @Accept  json
// @Param   id path string true "Идентификатор (UUID)"
// @Param   request body dto.Employee true "Сотрудник"
// @Success 204
// @Failure 400 {object} errorResponse "ошибка разбора или валидации"
// @Failure 404 {object} errorResponse "сотрудник не найден"
// @Security BasicAuth
// @Router  /{id} [put]
func (s *Service) update(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "update")()

	id, valid := pathID(ctx)
	if !valid {
		writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
		return
	}

	var req dto.Employee
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeBodyError(ctx, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	if !s.validate(ctx, req) {
		return
	}

	s.store(ctx, dto.EventUpdated, req, id)
}

// @Summary Частично изменить сотрудника
// @Tags    Employees
// @Accept  json
// @Param   id path string true "Идентификатор (UUID)"
// @Param   request body []dto.PatchOperation true "Операции add, remove, replace"
// @Success 204
// @Failure 400 {object} errorResponse "ошибка разбора, валидации или неизвестный навык"
// @Failure 404 {object} errorResponse "сотрудник не найден"
// @Security BasicAuth
// @Router  /{id} [patch]
func (s *Service) patch(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "patch")()

	id, valid := pathID(ctx)
	if !valid {
		writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
		return
	}

	var ops []dto.PatchOperation
	if err := json.Unmarshal(ctx.PostBody(), &ops); err != nil {
		writeBodyError(ctx, fmt.Errorf("json.Unmarshal: %w", err))
		return
	}

	current, err := s.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
			return
		}

		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.FindByID: %w", err))
		return
	}

	patched, err := patcher.Apply(*current, ops)
	if err != nil {
		var skillErr *patcher.InvalidSkillError
		if errors.As(err, &skillErr) {
			writeError(ctx, fasthttp.StatusBadRequest, skillErr)
			return
		}

		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("patcher.Apply: %w", err))
		return
	}

	if !s.validate(ctx, patched) {
		return
	}

	if !s.store(ctx, dto.EventPatched, patched, id) {
		return
	}

	for _, op := range ops {
		s.metrics.patchOps.WithLabelValues(patchOpLabel(op.Op)).Inc()
	}
}

// patchOpLabel ограничивает значения метки op известными операциями.
func patchOpLabel(op string) string {
	switch op {
	case dto.OpAdd, dto.OpRemove, dto.OpReplace:
		return op
	default:
		return "unknown"
	}
}

// @Summary Удалить сотрудника по идентификатору
// @Tags    Employees
// @Param   id path string true "Идентификатор (UUID)"
// @Success 204
// @Security BasicAuth
// @Router  /{id} [delete]
func (s *Service) deleteByID(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "deleteByID")()

	id, valid := pathID(ctx)
	if !valid {
		writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
		return
	}

	if err := s.employees.DeleteByID(ctx, id); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.DeleteByID: %w", err))
		return
	}

	s.publish(ctx, dto.EventDeleted, dto.Employee{ID: id})
	noContent(ctx)
}

// @Summary Удалить сотрудника по email
// @Tags    Employees
// @Param   email query string true "Email"
// @Success 204
// @Failure 404 {object} errorResponse "параметр email не передан"
// @Security BasicAuth
// @Router  / [delete]
func (s *Service) deleteByEmail(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "deleteByEmail")()

	if !ctx.QueryArgs().Has("email") {
		writeError(ctx, fasthttp.StatusNotFound, ErrEmailRequired)
		return
	}
	email := string(ctx.QueryArgs().Peek("email"))

	if err := s.employees.DeleteByEmail(ctx, email); err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.DeleteByEmail: %w", err))
		return
	}

	s.publish(ctx, dto.EventDeleted, dto.Employee{Email: email})
	noContent(ctx)
}

// store сохраняет изменения существующего сотрудника: 204 или 404.
// Возвращает true, если сотрудник сохранён.
func (s *Service) store(ctx *fasthttp.RequestCtx, kind dto.EventKind, e dto.Employee, id string) bool {
	updated, err := s.employees.Update(ctx, e, id)
	if err != nil {
		if errors.Is(err, dto.ErrNotFound) {
			writeError(ctx, fasthttp.StatusNotFound, ErrEmployeeNotFound)
			return false
		}

		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.Update: %w", err))
		return false
	}

	s.publish(ctx, kind, *updated)
	noContent(ctx)

	return true
}

// validate отвечает 400 и возвращает false, если сотрудник не прошёл проверку.
func (s *Service) validate(ctx *fasthttp.RequestCtx, e dto.Employee) bool {
	err := s.validator.Validate(e)
	if err == nil {
		return true
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		s.log.Debug().Str("request_id", requestID(ctx)).Err(verr).Msg("employee rejected")
		writeViolations(ctx, verr)
		return false
	}

	writeError(ctx, fasthttp.StatusInternalServerError, err)
	return false
}

// publish отправляет событие об изменении. Ошибка публикации не влияет на ответ.
func (s *Service) publish(ctx *fasthttp.RequestCtx, kind dto.EventKind, e dto.Employee) {
	if err := s.publisher.Publish(ctx, kind, e); err != nil {
		s.log.Warn().
			Err(err).
			Str("request_id", requestID(ctx)).
			Str("kind", string(kind)).
			Str("employee_id", e.ID).
			Msg("failed to publish employee event")
		s.metrics.events.WithLabelValues(string(kind), "error").Inc()
		return
	}

	s.metrics.events.WithLabelValues(string(kind), "ok").Inc()
}

func pathID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	return id, dto.ValidID(id)
}

// requestURI - схема, хост и путь запроса без query.
func requestURI(ctx *fasthttp.RequestCtx) string {
	uri := ctx.URI()
	return string(uri.Scheme()) + "://" + string(uri.Host()) + string(uri.Path())
}
