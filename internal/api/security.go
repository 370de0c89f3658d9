package api

import (
	"encoding/base64"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin         = "ADMIN"
	RoleEmployee      = "EMPLOYEE"
	RoleEndpointAdmin = "ENDPOINT_ADMIN"

	// PermitAll - правило без проверки учётных данных.
	PermitAll = ""

	DefaultRealm = "EMPLOYEE"

	principalKey = "principal"
)

// AccessRule - строка таблицы доступа. Пустой Method подходит для любого метода,
// Pattern сравнивается через path.Match, '*' соответствует одному сегменту пути.
type AccessRule struct {
	Method  string `json:"method,omitempty"`
	Pattern string `json:"pattern"`
	Role    string `json:"role"`
}

// DefaultRules - таблица доступа сервиса. Создание открыто всем, остальные
// операции с сотрудниками требуют ADMIN, служебные эндпоинты - ENDPOINT_ADMIN.
func DefaultRules() []AccessRule {
	return []AccessRule{
		{Method: fasthttp.MethodPost, Pattern: "/", Role: PermitAll},
		{Method: fasthttp.MethodGet, Pattern: "/", Role: RoleAdmin},
		{Method: fasthttp.MethodDelete, Pattern: "/", Role: RoleAdmin},
		{Method: fasthttp.MethodGet, Pattern: "/stream/", Role: RoleAdmin},
		{Pattern: "/actuator", Role: RoleEndpointAdmin},
		{Pattern: "/actuator/*", Role: RoleEndpointAdmin},
		{Method: fasthttp.MethodGet, Pattern: "/*", Role: RoleAdmin},
		{Method: fasthttp.MethodPut, Pattern: "/*", Role: RoleAdmin},
		{Method: fasthttp.MethodPatch, Pattern: "/*", Role: RoleAdmin},
		{Method: fasthttp.MethodDelete, Pattern: "/*", Role: RoleAdmin},
	}
}

// matchRule возвращает первое подходящее правило.
func matchRule(rules []AccessRule, method, requestPath string) (AccessRule, bool) {
	for _, rule := range rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}

		if ok, err := path.Match(rule.Pattern, requestPath); err == nil && ok {
			return rule, true
		}
	}

	return AccessRule{}, false
}

type Account struct {
	Name     string
	Password string
	Roles    []string
}

// DefaultAccounts - две учётные записи сервиса: admin и alpha.
func DefaultAccounts(adminPassword, alphaPassword string) []Account {
	return []Account{
		{Name: "admin", Password: adminPassword, Roles: []string{RoleAdmin, RoleEmployee, RoleEndpointAdmin}},
		{Name: "alpha", Password: alphaPassword, Roles: []string{RoleEmployee}},
	}
}

type User struct {
	Name  string
	Roles []string
	hash  []byte
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Users - учётные записи в памяти, пароли хранятся как bcrypt-хэши.
type Users struct {
	byName map[string]User
}

func NewUsers(cost int, accounts ...Account) (*Users, error) {
	users := &Users{byName: make(map[string]User, len(accounts))}

	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("bcrypt.GenerateFromPassword(%s): %w", a.Name, err)
		}

		users.byName[a.Name] = User{Name: a.Name, Roles: slices.Clone(a.Roles), hash: hash}
	}

	return users, nil
}

func (u *Users) Authenticate(name, password string) (User, bool) {
	if u == nil {
		return User{}, false
	}

	user, ok := u.byName[name]
	if !ok {
		return User{}, false
	}

	if bcrypt.CompareHashAndPassword(user.hash, []byte(password)) != nil {
		return User{}, false
	}

	return user, true
}

func basicAuth(ctx *fasthttp.RequestCtx) (name, password string, ok bool) {
	const prefix = "Basic "

	header := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	return strings.Cut(string(decoded), ":")
}

// AuthMiddleware проверяет HTTP Basic и роль по таблице правил. Запрос без
// подходящего правила доступен любому аутентифицированному пользователю.
func (s *Service) AuthMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		rule, matched := matchRule(s.rules, string(ctx.Method()), string(ctx.Path()))

		name, password, hasCredentials := basicAuth(ctx)
		var (
			user          User
			authenticated bool
		)
		if hasCredentials {
			user, authenticated = s.users.Authenticate(name, password)
		}
		if authenticated {
			ctx.SetUserValue(principalKey, user.Name)
		}

		if matched && rule.Role == PermitAll {
			next(ctx)
			return
		}

		if !authenticated {
			ctx.Response.Header.Set(fasthttp.HeaderWWWAuthenticate, fmt.Sprintf("Basic realm=%q", s.realm))
			writeError(ctx, fasthttp.StatusUnauthorized, ErrUnauthorized)
			return
		}

		if matched && !user.HasRole(rule.Role) {
			s.log.Warn().
				Str("principal", user.Name).
				Str("path", string(ctx.Path())).
				Str("role", rule.Role).
				Msg("access denied")
			writeError(ctx, fasthttp.StatusForbidden, ErrForbidden)
			return
		}

		next(ctx)
	}
}

func principal(ctx *fasthttp.RequestCtx) string {
	name, _ := ctx.UserValue(principalKey).(string)
	return name
}
