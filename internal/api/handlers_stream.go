package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/Artexxx/employee-service/internal/hateoas"
)

const contentTypeEventStream = "text/event-stream"

// @Summary Поток всех сотрудников (Server-Sent Events)
// @Tags    Employees
// @Produce text/event-stream
// @Success 200 {string} string "data:<сотрудник в JSON>"
// @Failure 406 {object} errorResponse "Accept без text/event-stream"
// @Security BasicAuth
// @Router  /stream/ [get]
func (s *Service) stream(ctx *fasthttp.RequestCtx) {
	defer s.trace(ctx, "stream")()

	if !bytes.Contains(ctx.Request.Header.Peek(fasthttp.HeaderAccept), []byte(contentTypeEventStream)) {
		writeError(ctx, fasthttp.StatusNotAcceptable, ErrNotAcceptable)
		return
	}

	employees, err := s.employees.FindAll(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("employeeRepository.FindAll: %w", err))
		return
	}

	// ссылки элементов ведут на коллекцию "/", а не на "/stream/"
	base := string(ctx.URI().Scheme()) + "://" + string(ctx.URI().Host()) + "/"
	for i := range employees {
		employees[i].ItemLinks = hateoas.ItemLinks(base, employees[i].ID)
	}

	ctx.SetContentType(contentTypeEventStream)
	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "no-cache")
	ctx.Response.Header.Set(fasthttp.HeaderConnection, "keep-alive")
	ctx.SetStatusCode(fasthttp.StatusOK)

	id := requestID(ctx)
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for _, e := range employees {
			data, err := json.Marshal(e)
			if err != nil {
				s.log.Error().Err(err).Str("request_id", id).Msg("json.Marshal employee")
				return
			}

			if _, err := fmt.Fprintf(w, "data:%s\n\n", data); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				s.log.Debug().Err(err).Str("request_id", id).Msg("stream client gone")
				return
			}
		}
	})
}
