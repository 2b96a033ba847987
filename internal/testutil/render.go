package testutil

import (
	"fmt"
	"net/http"
	"sync"
)

// RenderCall is one recorded template render.
type RenderCall struct {
	Name string
	Data any
}

// RecordingRenderer captures template renders instead of executing templates.
// It writes a 200 with the template name so status assertions still work.
type RecordingRenderer struct {
	mu    sync.Mutex
	Calls []RenderCall
}

// Render implements render.Renderer.
func (rr *RecordingRenderer) Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	rr.mu.Lock()
	rr.Calls = append(rr.Calls, RenderCall{Name: name, Data: data})
	rr.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<!-- %s -->", name)
}

// Last returns the most recent render, or a zero RenderCall.
func (rr *RecordingRenderer) Last() RenderCall {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if len(rr.Calls) == 0 {
		return RenderCall{}
	}
	return rr.Calls[len(rr.Calls)-1]
}
