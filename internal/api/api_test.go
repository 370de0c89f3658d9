package api

import (
	"context"
	"encoding/base64"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/Artexxx/employee-service/internal/dto"
	"github.com/Artexxx/employee-service/internal/repository/employee"
)

const (
	testHost  = "http://localhost:8080"
	testID    = "00000000-0000-0000-0000-000000000001"
	missingID = "f0000000-0000-0000-0000-000000000001"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type publishedEvent struct {
	kind     dto.EventKind
	employee dto.Employee
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, kind dto.EventKind, e dto.Employee) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, publishedEvent{kind: kind, employee: e})

	return p.err
}

func (p *fakePublisher) last(t *testing.T) publishedEvent {
	t.Helper()

	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)

	return p.events[len(p.events)-1]
}

type fakeJournal struct {
	events []dto.EmployeeEvent
	dlq    []dto.EmployeeEventDLQ
	err    error
	resets int

	limit, offset int
}

func (j *fakeJournal) ListEvents(_ context.Context, limit, offset int) ([]dto.EmployeeEvent, error) {
	j.limit, j.offset = limit, offset
	return j.events, j.err
}

func (j *fakeJournal) ListDLQ(_ context.Context, limit, offset int) ([]dto.EmployeeEventDLQ, error) {
	j.limit, j.offset = limit, offset
	return j.dlq, j.err
}

func (j *fakeJournal) ResetAll(_ context.Context) error {
	if j.err != nil {
		return j.err
	}
	j.resets++

	return nil
}

var (
	usersOnce sync.Once
	testUsers *Users
)

func users(t *testing.T) *Users {
	t.Helper()

	usersOnce.Do(func() {
		var err error
		testUsers, err = NewUsers(bcrypt.MinCost, DefaultAccounts("p", "p")...)
		require.NoError(t, err)
	})

	return testUsers
}

func newTestService(t *testing.T, modify ...func(*ServiceDeps)) (*Service, *fakePublisher) {
	t.Helper()

	pub := &fakePublisher{}
	now := func() time.Time { return fixedNow }

	deps := ServiceDeps{
		Port:      8080,
		Name:      "employee-service",
		Version:   "1.0",
		Profile:   ProfileDev,
		Logger:    zerolog.Nop(),
		Employees: employee.NewRepository(employee.Config{}, rand.New(rand.NewSource(42)), now, zerolog.Nop()),
		Publisher: pub,
		Users:     users(t),
		Now:       now,
	}
	for _, m := range modify {
		m(&deps)
	}

	return NewService(deps), pub
}

type requestOption func(req *fasthttp.Request)

func withAuth(name, password string) requestOption {
	return func(req *fasthttp.Request) {
		token := base64.StdEncoding.EncodeToString([]byte(name + ":" + password))
		req.Header.Set(fasthttp.HeaderAuthorization, "Basic "+token)
	}
}

var (
	asAdmin = withAuth("admin", "p")
	asAlpha = withAuth("alpha", "p")
)

func withHeader(key, value string) requestOption {
	return func(req *fasthttp.Request) {
		req.Header.Set(key, value)
	}
}

// serve прогоняет запрос через все middleware и маршрутизатор сервиса.
func serve(s *Service, method, path, body string, opts ...requestOption) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(testHost + path)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	for _, opt := range opts {
		opt(&req)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.Handler()(&ctx)

	return &ctx
}
