// Package handlertest drives gin handlers in tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/middleware"
	"github.com/jwalitptl/clinic-desk/pkg/validator"
)

const DeskSession = "desk-test"

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func (r Response) IsSuccess() bool {
	return r.Status == "success"
}

// Decode unmarshals Data into v.
func (r Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

// NewEngine mounts the routes registered by register behind the error and
// desk session middleware.
func NewEngine(t *testing.T, register func(gin.IRouter)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterGin())

	engine := gin.New()
	engine.Use(
		middleware.RequestID(zerolog.Nop()),
		middleware.ErrorHandler(),
		middleware.DeskSession(),
	)
	register(engine)
	return engine
}

// Do sends a request with a JSON body and the test desk session.
func Do(engine http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderDeskSession, DeskSession)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// Parse reads the JSON envelope from w.
func Parse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}
