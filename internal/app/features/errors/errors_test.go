package errors

import (
	"net/http"
	"testing"

	"github.com/dalemusser/clinica/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound_Page(t *testing.T) {
	rr := &testutil.RecordingRenderer{}
	h := NewHandler(rr)

	rec := testutil.NewRecorder()
	h.NotFound(rec, testutil.NewRequest(http.MethodGet, "/nada"))

	rec.AssertStatus(t, http.StatusNotFound)
	call := rr.Last()
	assert.Equal(t, "error_page", call.Name)
	data, ok := call.Data.(pageData)
	require.True(t, ok)
	assert.Equal(t, "Página no encontrada", data.Title)
}

func TestNotFound_API(t *testing.T) {
	rr := &testutil.RecordingRenderer{}
	h := NewHandler(rr)

	rec := testutil.NewRecorder()
	h.NotFound(rec, testutil.NewRequest(http.MethodGet, "/api/nada"))

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, `"status":"error"`)
	assert.Empty(t, rr.Calls)
}

func TestMethodNotAllowed(t *testing.T) {
	rr := &testutil.RecordingRenderer{}
	h := NewHandler(rr)

	rec := testutil.NewRecorder()
	h.MethodNotAllowed(rec, testutil.NewRequest(http.MethodPatch, "/api/turnos"))
	rec.AssertStatus(t, http.StatusMethodNotAllowed)

	rec = testutil.NewRecorder()
	h.MethodNotAllowed(rec, testutil.NewRequest(http.MethodPost, "/pacientes"))
	rec.AssertStatus(t, http.StatusMethodNotAllowed)
	assert.Len(t, rr.Calls, 1)
}
