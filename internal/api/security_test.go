package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
)

func TestMatchRule(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		method  string
		path    string
		role    string
		matched bool
	}{
		{method: fasthttp.MethodPost, path: "/", role: PermitAll, matched: true},
		{method: fasthttp.MethodGet, path: "/", role: RoleAdmin, matched: true},
		{method: fasthttp.MethodDelete, path: "/", role: RoleAdmin, matched: true},
		{method: fasthttp.MethodGet, path: "/" + testID, role: RoleAdmin, matched: true},
		{method: fasthttp.MethodPut, path: "/" + testID, role: RoleAdmin, matched: true},
		{method: fasthttp.MethodPatch, path: "/" + testID, role: RoleAdmin, matched: true},
		{method: fasthttp.MethodDelete, path: "/" + testID, role: RoleAdmin, matched: true},
		{method: fasthttp.MethodGet, path: "/stream/", role: RoleAdmin, matched: true},
		{method: fasthttp.MethodGet, path: "/actuator", role: RoleEndpointAdmin, matched: true},
		{method: fasthttp.MethodPost, path: "/actuator/shutdown", role: RoleEndpointAdmin, matched: true},
		{method: fasthttp.MethodGet, path: "/actuator/health", role: RoleEndpointAdmin, matched: true},
		{method: fasthttp.MethodPost, path: "/" + testID},
		{method: fasthttp.MethodGet, path: "/a/b"},
	}

	for _, tt := range tests {
		rule, matched := matchRule(rules, tt.method, tt.path)
		assert.Equal(t, tt.matched, matched, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.role, rule.Role, "%s %s", tt.method, tt.path)
	}
}

func TestMatchRule_FirstMatchWins(t *testing.T) {
	rules := []AccessRule{
		{Pattern: "/*", Role: RoleEmployee},
		{Method: fasthttp.MethodGet, Pattern: "/*", Role: RoleAdmin},
	}

	rule, matched := matchRule(rules, fasthttp.MethodGet, "/x")
	require.True(t, matched)
	assert.Equal(t, RoleEmployee, rule.Role)
}

func TestUsers(t *testing.T) {
	u, err := NewUsers(bcrypt.MinCost, DefaultAccounts("secret", "alpha-pw")...)
	require.NoError(t, err)

	admin, ok := u.Authenticate("admin", "secret")
	require.True(t, ok)
	assert.True(t, admin.HasRole(RoleAdmin))
	assert.True(t, admin.HasRole(RoleEmployee))
	assert.True(t, admin.HasRole(RoleEndpointAdmin))

	alpha, ok := u.Authenticate("alpha", "alpha-pw")
	require.True(t, ok)
	assert.True(t, alpha.HasRole(RoleEmployee))
	assert.False(t, alpha.HasRole(RoleAdmin))

	_, ok = u.Authenticate("admin", "alpha-pw")
	assert.False(t, ok)
	_, ok = u.Authenticate("nobody", "secret")
	assert.False(t, ok)

	var none *Users
	_, ok = none.Authenticate("admin", "secret")
	assert.False(t, ok)
}

func TestNewUsers_BadCost(t *testing.T) {
	_, err := NewUsers(bcrypt.MaxCost+1, DefaultAccounts("p", "p")...)
	require.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestService(t)

	tests := []struct {
		name   string
		method string
		path   string
		opts   []requestOption
		status int
	}{
		{name: "no credentials", method: fasthttp.MethodGet, path: "/", status: fasthttp.StatusUnauthorized},
		{name: "wrong password", method: fasthttp.MethodGet, path: "/", opts: []requestOption{withAuth("admin", "x")}, status: fasthttp.StatusUnauthorized},
		{name: "malformed header", method: fasthttp.MethodGet, path: "/", opts: []requestOption{withHeader(fasthttp.HeaderAuthorization, "Basic !!!")}, status: fasthttp.StatusUnauthorized},
		{name: "employee role only", method: fasthttp.MethodGet, path: "/", opts: []requestOption{asAlpha}, status: fasthttp.StatusForbidden},
		{name: "employee on actuator", method: fasthttp.MethodGet, path: "/actuator/health", opts: []requestOption{asAlpha}, status: fasthttp.StatusForbidden},
		{name: "admin", method: fasthttp.MethodGet, path: "/actuator/health", opts: []requestOption{asAdmin}, status: fasthttp.StatusOK},
		{name: "create is open", method: fasthttp.MethodPost, path: "/", status: fasthttp.StatusBadRequest},
		{name: "unmatched needs authentication", method: fasthttp.MethodGet, path: "/a/b", status: fasthttp.StatusUnauthorized},
		{name: "unmatched authenticated", method: fasthttp.MethodGet, path: "/a/b", opts: []requestOption{asAlpha}, status: fasthttp.StatusNotFound},
		{name: "preflight", method: fasthttp.MethodOptions, path: "/", status: fasthttp.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := serve(s, tt.method, tt.path, "", tt.opts...)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())

			if tt.status == fasthttp.StatusUnauthorized {
				assert.Equal(t, `Basic realm="EMPLOYEE"`, string(ctx.Response.Header.Peek(fasthttp.HeaderWWWAuthenticate)))
			}
		})
	}
}

func TestAuthMiddleware_CustomRules(t *testing.T) {
	s, _ := newTestService(t, func(d *ServiceDeps) {
		d.Rules = []AccessRule{{Pattern: "/*", Role: PermitAll}}
		d.Realm = "TEST"
	})

	ctx := serve(s, fasthttp.MethodGet, "/"+testID, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = serve(s, fasthttp.MethodGet, "/stream/", "")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, `Basic realm="TEST"`, string(ctx.Response.Header.Peek(fasthttp.HeaderWWWAuthenticate)))
}
