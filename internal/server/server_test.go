package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/config"
	"onyxAgent/internal/database"
	"onyxAgent/internal/executor"
	"onyxAgent/internal/llm"
	"onyxAgent/internal/logger"
)

// gatedModel ждёт сигнала перед каждым ответом.
type gatedModel struct {
	gate  chan struct{}
	reply string
}

func (m *gatedModel) Complete(ctx context.Context, _ []llm.Message) (string, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, nil
}

type pageActor struct{}

func (pageActor) Execute(_ context.Context, cmd llm.Command) executor.Outcome {
	return executor.Outcome{Kind: executor.KindOK, Text: "did " + string(cmd.Tool)}
}

func (pageActor) ReadPage(context.Context) (string, error) { return "PAGE", nil }

func newTestServer(t *testing.T, model llm.Completer) (*Server, *database.TaskRepository) {
	t.Helper()
	db, err := database.New(&config.Cfg{Database: config.Database{Driver: "sqlite", SQLitePath: ":memory:"}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger.Nop()) })

	repo := database.NewTaskRepository(db.DB)
	a := agent.New(model, pageActor{}, logger.Nop(), agent.Config{MaxSteps: 3})
	return New(config.Server{}, logger.Nop(), repo, agent.NewTaskRunner(a, repo, logger.Nop())), repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &gatedModel{reply: "{}"})
	w := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","busy":false}`, w.Body.String())
}

func TestTasksCRUD(t *testing.T) {
	s, _ := newTestServer(t, &gatedModel{reply: "{}"})
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/tasks", `{"goal":"find the weather"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created database.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "find the weather", created.Goal)
	assert.Equal(t, database.StatusPending, created.Status)

	w = do(t, h, http.MethodPost, "/api/tasks", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []database.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1)

	w = do(t, h, http.MethodGet, "/api/tasks/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/tasks/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunTask(t *testing.T) {
	s, repo := newTestServer(t, &gatedModel{reply: `{"tool":"answer","params":{"text":"sunny"}}`})
	h := s.Handler()
	require.NoError(t, repo.CreateTask(&database.Task{Goal: "weather"}))

	w := do(t, h, http.MethodPost, "/api/tasks/1/run", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		task, err := repo.GetTaskByID(1)
		return err == nil && task.Status == database.StatusCompleted && !s.runner.Busy()
	}, 2*time.Second, 10*time.Millisecond)

	w = do(t, h, http.MethodGet, "/api/tasks/1/steps", "")
	require.Equal(t, http.StatusOK, w.Code)
	var steps []database.AgentStep
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "answer", steps[0].ActionType)

	w = do(t, h, http.MethodPost, "/api/tasks/7/run", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunTask_ConflictAndStop(t *testing.T) {
	model := &gatedModel{gate: make(chan struct{}), reply: `{"tool":"scroll","params":{}}`}
	s, repo := newTestServer(t, model)
	h := s.Handler()
	require.NoError(t, repo.CreateTask(&database.Task{Goal: "first"}))
	require.NoError(t, repo.CreateTask(&database.Task{Goal: "second"}))

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/tasks/1/run", "").Code)

	w := do(t, h, http.MethodPost, "/api/tasks/2/run", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stopped":true}`, w.Body.String())
	close(model.gate)

	require.Eventually(t, func() bool {
		task, err := repo.GetTaskByID(1)
		return err == nil && task.Status == database.StatusFailed && !s.runner.Busy()
	}, 2*time.Second, 10*time.Millisecond)

	w = do(t, h, http.MethodPost, "/api/stop", "")
	assert.JSONEq(t, `{"stopped":false}`, w.Body.String())

	task, err := repo.GetTaskByID(2)
	require.NoError(t, err)
	assert.Equal(t, database.StatusPending, task.Status)
}
