package api

import (
	"context"
	"fmt"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/employee-service/internal/dto"
	"github.com/Artexxx/employee-service/internal/exchange/producer"
)

// @title           Employee Service
// @version         1.0
// @description     CRUD-сервис сотрудников: поиск, создание, изменение (PUT/PATCH), удаление,
// @description     поток Server-Sent Events, HATEOAS-ссылки. Доступ по HTTP Basic.
//
// @BasePath  /
// @schemes   http
// @accept    json
// @produce   json
// @securityDefinitions.basic BasicAuth

type EmployeeRepository interface {
	FindByID(ctx context.Context, id string) (*dto.Employee, error)
	Find(ctx context.Context, query map[string][]string) ([]dto.Employee, error)
	FindAll(ctx context.Context) ([]dto.Employee, error)
	Create(ctx context.Context, e dto.Employee) (*dto.Employee, error)
	Update(ctx context.Context, e dto.Employee, id string) (*dto.Employee, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByEmail(ctx context.Context, email string) error
}

type EventsRepository interface {
	ListEvents(ctx context.Context, limit, offset int) ([]dto.EmployeeEvent, error)
	ListDLQ(ctx context.Context, limit, offset int) ([]dto.EmployeeEventDLQ, error)
	ResetAll(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, kind dto.EventKind, employee dto.Employee) error
}

// HealthCheck проверяет зависимость сервиса, nil - зависимость доступна.
type HealthCheck func(ctx context.Context) error

type ServiceDeps struct {
	Port    int
	Name    string
	Version string
	Profile string
	Logger  zerolog.Logger

	Employees EmployeeRepository
	Events    EventsRepository // nil - журнал отключён, эндпоинты журнала отвечают 501
	Publisher Publisher        // nil - события не публикуются

	Users *Users
	Rules []AccessRule // nil - DefaultRules
	Realm string

	Registry *prometheus.Registry
	Health   map[string]HealthCheck
	Shutdown func() // вызывается из POST /actuator/shutdown
	Now      func() time.Time
}

type Service struct {
	r      *router.Router
	server *fasthttp.Server
	port   int

	name    string
	version string
	profile string
	log     zerolog.Logger

	employees EmployeeRepository
	events    EventsRepository
	publisher Publisher
	validator *EmployeeValidator

	users *Users
	rules []AccessRule
	realm string

	registry *prometheus.Registry
	metrics  *metrics
	health   map[string]HealthCheck
	shutdown func()
}

func NewService(d ServiceDeps) *Service {
	rt := router.New()
	rt.SaveMatchedRoutePath = true

	s := &Service{
		r:         rt,
		port:      d.Port,
		name:      d.Name,
		version:   d.Version,
		profile:   d.Profile,
		log:       d.Logger.With().Str("component", "api").Logger(),
		employees: d.Employees,
		events:    d.Events,
		publisher: d.Publisher,
		validator: NewEmployeeValidator(d.Now),
		users:     d.Users,
		rules:     d.Rules,
		realm:     d.Realm,
		registry:  d.Registry,
		health:    d.Health,
		shutdown:  d.Shutdown,
	}

	if s.publisher == nil {
		s.publisher = producer.Nop{}
	}
	if s.rules == nil {
		s.rules = DefaultRules()
	}
	if s.realm == "" {
		s.realm = DefaultRealm
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)

	s.mountRoutes()

	s.server = &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "employee-service",
		ReadTimeout:        10 * time.Second,
		MaxRequestBodySize: 2 << 20, // 2 MiB
	}

	return s
}

// Handler возвращает корневой обработчик со всеми middleware.
func (s *Service) Handler() fasthttp.RequestHandler {
	return s.RecoveryMiddleware(s.LoggingMiddleware(CORS(s.MetricsMiddleware(s.AuthMiddleware(s.r.Handler)))))
}

func (s *Service) Start(ctx context.Context) error {
	s.log.Info().Int("port", s.port).Str("profile", s.profile).Msg("Starting employee API")

	emergencyShutdown := make(chan error, 1)
	go func() {
		emergencyShutdown <- s.server.ListenAndServe(fmt.Sprintf(":%d", s.port))
	}()

	select {
	case <-ctx.Done():
		return s.server.Shutdown()
	case e := <-emergencyShutdown:
		return e
	}
}

func (s *Service) mountRoutes() {
	// Employees
	s.r.GET("/", s.find)
	s.r.GET("/{id}", s.findByID)
	s.r.POST("/", s.create)
	s.r.PUT("/{id}", s.update)
	s.r.PATCH("/{id}", s.patch)
	s.r.DELETE("/{id}", s.deleteByID)
	s.r.DELETE("/", s.deleteByEmail)
	s.r.GET("/stream/", s.stream)

	// Actuator
	s.r.GET("/actuator", s.actuatorIndex)
	s.r.GET("/actuator/health", s.healthHandler)
	s.r.GET("/actuator/info", s.infoHandler)
	s.r.GET("/actuator/mappings", s.mappingsHandler)
	s.r.GET("/actuator/prometheus", prometheusHandler(s.registry))
	s.r.GET("/actuator/events", s.listEvents)
	s.r.GET("/actuator/dlq", s.listDLQ)
	s.r.POST("/actuator/reset", s.resetHandler)
	s.r.POST("/actuator/shutdown", s.shutdownHandler)

	s.r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusNotFound, ErrRouteNotFound)
	}
	s.r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, ErrMethodNotAllowed)
	}
}
