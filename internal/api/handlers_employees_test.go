package api

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/employee-service/internal/dto"
)

const validBody = `{"lastname":"Müller","birthday":"1990-05-17","skills":["J","a"],"email":"mueller@firma.de"}`

func decodeError(t *testing.T, ctx *fasthttp.RequestCtx) errorResponse {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))

	return resp
}

func violationFields(resp errorResponse) []string {
	fields := make([]string, 0, len(resp.Violations))
	for _, v := range resp.Violations {
		fields = append(fields, v.Field)
	}

	return fields
}

func TestFind_All(t *testing.T) {
	s, _ := newTestService(t)

	ctx := serve(s, fasthttp.MethodGet, "/", "", asAdmin)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var employees []dto.Employee
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &employees))
	require.Len(t, employees, 8)

	for _, e := range employees {
		assert.True(t, dto.ValidID(e.ID))
		assert.Equal(t, []dto.Link{{"rel": "self"}, {"href": testHost + "/" + e.ID}}, e.ItemLinks)
		assert.Nil(t, e.SingleLinks)
	}
}

func TestFind_Query(t *testing.T) {
	s, _ := newTestService(t)

	ctx := serve(s, fasthttp.MethodGet, "/?email=wer@firma.de", "", asAdmin)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var employees []dto.Employee
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &employees))
	require.Len(t, employees, 1)
	assert.Equal(t, "wer@firma.de", employees[0].Email)
	assert.Equal(t, testHost+"/"+employees[0].ID, employees[0].ItemLinks[1]["href"])

	ctx = serve(s, fasthttp.MethodGet, "/?lastname=Ogbe", "", asAdmin)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &employees))
	assert.Len(t, employees, 4)
}

func TestFind_Empty(t *testing.T) {
	s, _ := newTestService(t)

	for _, path := range []string{"/?lastname=Zorro", "/?unknown=1", "/?email=a@b.de&email=c@d.de"} {
		ctx := serve(s, fasthttp.MethodGet, path, "", asAdmin)
		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), path)
	}
}

func TestFindByID(t *testing.T) {
	s, _ := newTestService(t)

	ctx := serve(s, fasthttp.MethodGet, "/"+testID, "", asAdmin)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var got dto.Employee
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
	assert.Equal(t, testID, got.ID)
	assert.Nil(t, got.ItemLinks)
	assert.Equal(t, map[string]dto.Link{
		"self":   {"href": testHost + "/" + testID},
		"list":   {"href": testHost},
		"add":    {"href": testHost},
		"update": {"href": testHost + "/" + testID},
		"remove": {"href": testHost + "/" + testID},
	}, got.SingleLinks)
}

func TestFindByID_NotFound(t *testing.T) {
	s, _ := newTestService(t)

	for _, id := range []string{missingID, "F0000000-0000-0000-0000-000000000001", "not-a-uuid", "12345"} {
		ctx := serve(s, fasthttp.MethodGet, "/"+id, "", asAdmin)
		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), id)
	}
}

func TestCreate(t *testing.T) {
	s, pub := newTestService(t)

	ctx := serve(s, fasthttp.MethodPost, "/", validBody)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	location := string(ctx.Response.Header.Peek(fasthttp.HeaderLocation))
	require.True(t, strings.HasPrefix(location, testHost+"/"), location)
	id := strings.TrimPrefix(location, testHost+"/")
	assert.True(t, dto.ValidID(id), id)

	event := pub.last(t)
	assert.Equal(t, dto.EventCreated, event.kind)
	assert.Equal(t, id, event.employee.ID)
	assert.Equal(t, []dto.Skill{dto.SkillJava, dto.SkillApacheCassandra}, event.employee.Skills)
}

func TestCreate_BadBody(t *testing.T) {
	s, pub := newTestService(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: "unexpected end of JSON input"},
		{name: "syntax", body: `{"lastname":`, want: "json.Unmarshal"},
		{name: "type", body: `{"lastname":42}`, want: "lastname"},
		{name: "skill", body: `{"lastname":"Müller","email":"m@firma.de","skills":["X"]}`, want: `"X"`},
		{name: "date", body: `{"lastname":"Müller","email":"m@firma.de","birthday":"17.05.1990"}`, want: "17.05.1990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := serve(s, fasthttp.MethodPost, "/", tt.body)
			require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
			assert.Contains(t, decodeError(t, ctx).Message, tt.want)
		})
	}

	assert.Empty(t, pub.events)
}

func TestCreate_Invalid(t *testing.T) {
	s, _ := newTestService(t)

	body := `{"id":"42","lastname":"mueller","birthday":"2030-01-01","skills":["J","JAVA"],"email":"nope"}`
	ctx := serve(s, fasthttp.MethodPost, "/", body)
	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	resp := decodeError(t, ctx)
	assert.ElementsMatch(t, []string{"id", "lastname", "birthday", "skills", "email"}, violationFields(resp))
	assert.Empty(t, ctx.Response.Header.Peek(fasthttp.HeaderLocation))
}

func TestUpdate(t *testing.T) {
	s, pub := newTestService(t)

	ctx := serve(s, fasthttp.MethodPut, "/"+testID, validBody, asAdmin)
	require.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.Empty(t, ctx.Response.Body())

	event := pub.last(t)
	assert.Equal(t, dto.EventUpdated, event.kind)
	assert.Equal(t, testID, event.employee.ID)
	assert.Equal(t, "mueller@firma.de", event.employee.Email)
}

func TestUpdate_Errors(t *testing.T) {
	s, pub := newTestService(t)

	ctx := serve(s, fasthttp.MethodPut, "/"+missingID, validBody, asAdmin)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx = serve(s, fasthttp.MethodPut, "/"+testID, `{"lastname":"Müller"}`, asAdmin)
	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, []string{"email"}, violationFields(decodeError(t, ctx)))

	ctx = serve(s, fasthttp.MethodPut, "/"+testID, `[`, asAdmin)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	assert.Empty(t, pub.events)
}

func TestPatch(t *testing.T) {
	s, pub := newTestService(t)

	ops := `[
		{"op":"add","path":"/skills","value":"kotlin"},
		{"op":"remove","path":"/skills","value":"A"},
		{"op":"replace","path":"/nachname","value":"Schmidt"},
		{"op":"replace","path":"/email","value":"schmidt@firma.de"}
	]`

	ctx := serve(s, fasthttp.MethodPatch, "/"+testID, ops, asAdmin)
	require.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	event := pub.last(t)
	assert.Equal(t, dto.EventPatched, event.kind)
	assert.Equal(t, testID, event.employee.ID)
	assert.Equal(t, "Schmidt", event.employee.Lastname)
	assert.Equal(t, "schmidt@firma.de", event.employee.Email)
	assert.Equal(t, []dto.Skill{dto.SkillJava, dto.SkillKotlin}, event.employee.Skills)
}

func TestPatch_Errors(t *testing.T) {
	s, pub := newTestService(t)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
		want   string
	}{
		{name: "not found", id: missingID, body: `[]`, status: fasthttp.StatusNotFound},
		{name: "malformed id", id: "abc", body: `[]`, status: fasthttp.StatusNotFound},
		{name: "bad json", id: testID, body: `{"op":"add"}`, status: fasthttp.StatusBadRequest},
		{name: "invalid skill", id: testID, body: `[{"op":"add","path":"/skills","value":"X"}]`, status: fasthttp.StatusBadRequest, want: "X is not a valid skill"},
		{name: "duplicate skill", id: testID, body: `[{"op":"add","path":"/skills","value":"J"}]`, status: fasthttp.StatusBadRequest, want: "skills"},
		{name: "invalid email", id: testID, body: `[{"op":"replace","path":"/email","value":"nope"}]`, status: fasthttp.StatusBadRequest, want: "email"},
		{name: "invalid lastname", id: testID, body: `[{"op":"replace","path":"/nachname","value":"x"}]`, status: fasthttp.StatusBadRequest, want: "lastname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := serve(s, fasthttp.MethodPatch, "/"+tt.id, tt.body, asAdmin)
			require.Equal(t, tt.status, ctx.Response.StatusCode())
			if tt.want != "" {
				assert.Contains(t, string(ctx.Response.Body()), tt.want)
			}
		})
	}

	assert.Empty(t, pub.events)
}

func TestDelete(t *testing.T) {
	s, pub := newTestService(t)

	ctx := serve(s, fasthttp.MethodDelete, "/"+testID, "", asAdmin)
	require.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, publishedEvent{kind: dto.EventDeleted, employee: dto.Employee{ID: testID}}, pub.last(t))

	// удаление идемпотентно
	ctx = serve(s, fasthttp.MethodDelete, "/"+missingID, "", asAdmin)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())

	ctx = serve(s, fasthttp.MethodDelete, "/?email=ulrich@firma.de", "", asAdmin)
	require.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, publishedEvent{kind: dto.EventDeleted, employee: dto.Employee{Email: "ulrich@firma.de"}}, pub.last(t))

	ctx = serve(s, fasthttp.MethodDelete, "/", "", asAdmin)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	s, pub := newTestService(t)
	pub.err = errors.New("kafka down")

	ctx := serve(s, fasthttp.MethodDelete, "/"+testID, "", asAdmin)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())

	ctx = serve(s, fasthttp.MethodGet, "/actuator/prometheus", "", asAdmin)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `employee_service_events_published_total{kind="deleted",outcome="error"} 1`)
}

func TestStream(t *testing.T) {
	s, _ := newTestService(t)

	ctx := serve(s, fasthttp.MethodGet, "/stream/", "", asAdmin, withHeader(fasthttp.HeaderAccept, "text/event-stream"))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/event-stream", string(ctx.Response.Header.ContentType()))

	body := string(ctx.Response.Body())
	events := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, events, 8)

	for _, ev := range events {
		require.True(t, strings.HasPrefix(ev, "data:"), ev)

		var e dto.Employee
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(ev, "data:")), &e))
		assert.Equal(t, testHost+"/"+e.ID, e.ItemLinks[1]["href"])
	}
}

func TestStream_NotAcceptable(t *testing.T) {
	s, _ := newTestService(t)

	ctx := serve(s, fasthttp.MethodGet, "/stream/", "", asAdmin, withHeader(fasthttp.HeaderAccept, "application/json"))
	assert.Equal(t, fasthttp.StatusNotAcceptable, ctx.Response.StatusCode())
}
