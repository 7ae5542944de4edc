package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-oneshot-console/internal/dto"
	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/internal/pkg/serverutils"
	"ai-oneshot-console/internal/repository/memory"
	"ai-oneshot-console/internal/service"
	"ai-oneshot-console/pkg/ask"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type fixedClient struct {
	resp *ask.Response
	err  error
}

func (c *fixedClient) Submit(ctx context.Context, req ask.Request) (*ask.Response, error) {
	return c.resp, c.err
}

func setupApp(client ask.AnswerClient) *fiber.App {
	repo := memory.NewSessionRepository(time.Hour, time.Hour)
	svc := service.NewSessionService(repo, client, nil, logger.NewNopLogger(), time.Second)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewSessionController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func doJSON[T any](t *testing.T, app *fiber.App, method, path, body string) (int, envelope[T]) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, res := doJSON[dto.SessionView](t, app, http.MethodPost, "/api/oneshot/v1/sessions", "")
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, res.Data.Id)
	return res.Data.Id
}

func TestGetOptions(t *testing.T) {
	app := setupApp(&fixedClient{})

	status, res := doJSON[dto.OptionsResponse](t, app, http.MethodGet, "/api/oneshot/v1/options", "")

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.Success)
	assert.Len(t, res.Data.Approaches, 4)
	assert.Len(t, res.Data.Examples, 3)
}

func TestAskFlow(t *testing.T) {
	app := setupApp(&fixedClient{resp: &ask.Response{
		Answer:     "Submit the leave form [hr.pdf].",
		DataPoints: []json.RawMessage{json.RawMessage(`{"id":"hr.pdf"}`)},
	}})
	id := createSession(t, app)

	status, res := doJSON[dto.SessionView](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/ask", `{"question":"How do I take leave?"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.Data.ShowAnswer)
	assert.Equal(t, "How do I take leave?", res.Data.LastQuestion)
	require.NotNil(t, res.Data.Answer)
	assert.Equal(t, "Submit the leave form [hr.pdf].", res.Data.Answer.Answer)

	status, res = doJSON[dto.SessionView](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/citation", `{"citation":"hr.pdf"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/content/hr.pdf", res.Data.CitationPath)
}

func TestAskFailureIsNotHTTPError(t *testing.T) {
	app := setupApp(&fixedClient{err: &ask.ServiceError{StatusCode: 400, Message: "bad request"}})
	id := createSession(t, app)

	status, res := doJSON[dto.SessionView](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/ask", `{"question":"q"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bad request", res.Data.Error)
	assert.False(t, res.Data.ShowAnswer)
}

func TestAskValidation(t *testing.T) {
	app := setupApp(&fixedClient{})
	id := createSession(t, app)

	status, res := doJSON[any](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/ask", `{"question":""}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUnknownSessionIs404(t *testing.T) {
	app := setupApp(&fixedClient{})

	status, res := doJSON[any](t, app, http.MethodGet, "/api/oneshot/v1/sessions/nope", "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, res.Success)
}

func TestRetryWithoutQuestionIs409(t *testing.T) {
	app := setupApp(&fixedClient{})
	id := createSession(t, app)

	status, _ := doJSON[any](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/retry", "")

	assert.Equal(t, http.StatusConflict, status)
}

func TestUpdateConfiguration(t *testing.T) {
	app := setupApp(&fixedClient{})
	id := createSession(t, app)

	status, res := doJSON[dto.SessionView](t, app, http.MethodPatch, "/api/oneshot/v1/sessions/"+id+"/config",
		`{"search_option":"VectorSemantic","use_semantic_captions":true,"retrieve_count":5}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, ask.SearchOptionVectorSemanticHybrid, res.Data.Configuration.SearchOption)
	assert.True(t, res.Data.Configuration.UseSemanticCaptions)
	assert.Equal(t, 5, res.Data.Configuration.RetrieveCount)

	status, _ = doJSON[any](t, app, http.MethodPatch, "/api/oneshot/v1/sessions/"+id+"/config", `{"retrieve_count":51}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON[any](t, app, http.MethodPatch, "/api/oneshot/v1/sessions/"+id+"/config", `{"search_option":"Fuzzy"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestToggleTabValidation(t *testing.T) {
	app := setupApp(&fixedClient{})
	id := createSession(t, app)

	status, _ := doJSON[any](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/tab", `{"tab":"history"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, res := doJSON[dto.SessionView](t, app, http.MethodPost, "/api/oneshot/v1/sessions/"+id+"/tab", `{"tab":"monitoring"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "monitoring", string(res.Data.ActiveTab))
}

func TestDeleteSession(t *testing.T) {
	app := setupApp(&fixedClient{})
	id := createSession(t, app)

	status, res := doJSON[any](t, app, http.MethodDelete, "/api/oneshot/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.Success)

	status, _ = doJSON[any](t, app, http.MethodGet, "/api/oneshot/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
}
