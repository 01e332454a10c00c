package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"todolists/internal/adapter/database/memory"
	"todolists/internal/adapter/database/sqlite"
	api "todolists/internal/adapter/http"
	"todolists/internal/adapter/http/routes"
	"todolists/internal/core/telemetry"
	"todolists/pkg/config"
	"todolists/pkg/test"
)

type fixture struct {
	DB        *sqlite.DB
	Container *api.Container
	Router    *gin.Engine
}

func newFixture(deviceKeyHash string) *fixture {
	db := test.InitTestDB()

	cfg := config.GetDefaultConfig()
	cfg.Auth.ActionSecret = "test-secret"
	cfg.Auth.CursorSecret = "cursor-secret"

	metrics := telemetry.NewAppMetrics(prometheus.NewRegistry())
	container := api.NewContainer(cfg, db, memory.NewMemoryRepository(), metrics, nil, config.NewNopLogger())

	return &fixture{
		DB:        db,
		Container: container,
		Router:    routes.SetupRouterForTests(container.Handlers, deviceKeyHash),
	}
}

func (f *fixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var payload bytes.Buffer

	if body != nil {
		json.NewEncoder(&payload).Encode(body)
	}

	req, _ := http.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.Router.ServeHTTP(w, req)

	return w
}

// stream serves a server-sent events request until ctx ends.
func (f *fixture) stream(ctx context.Context, path string) string {
	req, _ := http.NewRequestWithContext(ctx, "GET", path, nil)

	w := &closeNotifyingRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool, 1),
	}

	f.Router.ServeHTTP(w, req)

	return w.Body.String()
}

type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   struct {
		Code   string `json:"code"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

func decode[T any](w *httptest.ResponseRecorder) (T, envelope) {
	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)

	var data T
	json.Unmarshal(env.Data, &data)

	return data, env
}

// start runs the dispatcher and the job runner until the returned function is
// called.
func (f *fixture) start() func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		f.Container.Dispatcher.Run(ctx)
	}()

	f.Container.Runner.Start(ctx)

	return func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()

		f.Container.Runner.Stop(stopCtx)
		cancel()
		<-done
		f.Container.Alarms.Stop()
	}
}

func decodeInto(w *httptest.ResponseRecorder, target any) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}
