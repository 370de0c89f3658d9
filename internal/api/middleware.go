package api

import (
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	requestIDKey    = "request-id"
	requestIDHeader = "X-Request-Id"

	ProfileDev = "dev"
)

func (s *Service) RecoveryMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.log.Error().
					Interface("panic", rvr).
					Str("request_id", requestID(ctx)).
					Str("method", string(ctx.Method())).
					Str("url", ctx.URI().String()).
					Str("remote_addr", ctx.RemoteAddr().String()).
					Str("stack_trace", string(debug.Stack())).
					Msg("Recovered from panic")

				ctx.ResetBody()
				writeError(ctx, fasthttp.StatusInternalServerError, ErrInternal)
			}
		}()

		next(ctx)
	}
}

// LoggingMiddleware логирует каждый запрос с request_id и пользователем.
// В профиле dev дополнительно выводит query и заголовки на уровне debug.
func (s *Service) LoggingMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek(requestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		ctx.SetUserValue(requestIDKey, id)
		ctx.Response.Header.Set(requestIDHeader, id)

		if s.profile == ProfileDev && s.log.GetLevel() <= zerolog.DebugLevel {
			s.dumpRequest(ctx, id)
		}

		begin := time.Now()
		next(ctx)

		s.log.Info().
			Str("request_id", id).
			Bytes("method", ctx.Method()).
			Str("url", ctx.URI().String()).
			Str("principal", principal(ctx)).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(begin)).
			Msg("Completed request")
	}
}

func (s *Service) dumpRequest(ctx *fasthttp.RequestCtx, id string) {
	query := zerolog.Dict()
	ctx.QueryArgs().VisitAll(func(k, v []byte) {
		query.Bytes(string(k), v)
	})

	headers := zerolog.Dict()
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		if string(k) == fasthttp.HeaderAuthorization {
			v = []byte("***")
		}
		headers.Bytes(string(k), v)
	})

	s.log.Debug().
		Str("request_id", id).
		Bytes("method", ctx.Method()).
		Bytes("path", ctx.Path()).
		Dict("query", query).
		Dict("headers", headers).
		Msg("Incoming request")
}

// CORS middleware для обработки заголовков CORS
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, X-Request-Id")
		ctx.Response.Header.Set("Access-Control-Expose-Headers", "Location, X-Request-Id")

		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		next(ctx)
	}
}

func requestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(requestIDKey).(string)
	return id
}

// trace пишет BEGIN/END обработчика на уровне debug.
func (s *Service) trace(ctx *fasthttp.RequestCtx, op string) func() {
	l := s.log.With().Str("request_id", requestID(ctx)).Str("handler", op).Logger()
	l.Debug().Msg("BEGIN")

	return func() {
		l.Debug().Int("status", ctx.Response.StatusCode()).Msg("END")
	}
}
