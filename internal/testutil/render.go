package testutil

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
)

// Rendered records template renders made through a captured viewdata.Render.
type Rendered struct {
	mu    sync.Mutex
	names []string
	data  []any
}

// CaptureRender returns a recorder and a Render func that writes a small
// marker body instead of executing templates.
func CaptureRender() (*Rendered, viewdata.Render) {
	rd := &Rendered{}
	return rd, func(w http.ResponseWriter, r *http.Request, name string, data any) {
		rd.mu.Lock()
		rd.names = append(rd.names, name)
		rd.data = append(rd.data, data)
		rd.mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!-- template:%s -->", name)
	}
}

// Count is the number of renders so far.
func (rd *Rendered) Count() int {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return len(rd.names)
}

// Name is the last rendered template name, or "".
func (rd *Rendered) Name() string {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	if len(rd.names) == 0 {
		return ""
	}
	return rd.names[len(rd.names)-1]
}

// Data is the last rendered view model, or nil.
func (rd *Rendered) Data() any {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	if len(rd.data) == 0 {
		return nil
	}
	return rd.data[len(rd.data)-1]
}

// LastData returns the last view model asserted to T, failing the test if
// nothing was rendered or the type differs.
func LastData[T any](t interface {
	Helper()
	Fatalf(string, ...any)
}, rd *Rendered) T {
	t.Helper()
	v, ok := rd.Data().(T)
	if !ok {
		var zero T
		t.Fatalf("rendered %q with %T, want %T", rd.Name(), rd.Data(), zero)
		return zero
	}
	return v
}
