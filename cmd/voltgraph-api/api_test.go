package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/voltgraph/pkg/channels/gochannel"
	"github.com/dukex/voltgraph/pkg/eventbus"
	"github.com/dukex/voltgraph/pkg/events"
	"github.com/dukex/voltgraph/pkg/persistence/file"
	"github.com/dukex/voltgraph/pkg/registry"
	"github.com/dukex/voltgraph/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAPI(t *testing.T, bus eventbus.EventBus) *API {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	reg := registry.NewDefaultRegistry()

	opts := []services.ProjectOption{services.WithRegistry(reg)}
	if bus != nil {
		opts = append(opts, services.WithPublisher(bus))
	}

	projectService := services.NewProject(logger, file.NewPersistence(t.TempDir()), opts...)

	return NewAPI(logger, projectService, reg, bus)
}

func send(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestAPI(t, nil).App()

	resp, body := send(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "voltgraph API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestAPI(t, nil).App()

	resp, body := send(t, app, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, _ = send(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Templates(t *testing.T) {
	app := setupTestAPI(t, nil).App()

	resp, body := send(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var templates []map[string]any
	require.NoError(t, json.Unmarshal(body, &templates))
	assert.Len(t, templates, 5)
}

func TestAPI_WatchReceivesEvaluationEvents(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	api := setupTestAPI(t, bus)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	received := make(chan *events.EvaluationCompleted, 1)

	require.NoError(t, api.Watch(ctx))
	require.NoError(t, bus.Handle(events.EvaluationCompletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.EvaluationCompleted)

		return nil
	}))

	app := api.App()

	resp, body := send(t, app, http.MethodPost, "/projects", map[string]any{"name": "Office"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var project struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &project))

	resp, _ = send(t, app, http.MethodPost, "/projects/"+project.ID+"/nodes", map[string]any{"kind": "power_source"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = send(t, app, http.MethodPost, "/projects/"+project.ID+"/evaluate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case event := <-received:
		assert.Equal(t, project.ID, event.ProjectID)
		assert.Equal(t, 1, event.Evaluated)
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation.completed was not delivered")
	}
}
