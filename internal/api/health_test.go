package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{errors.New("database is locked"), http.StatusServiceUnavailable},
	} {
		r := chi.NewRouter()
		NewHealthHandler(fakePinger{tc.err}).RegisterHealth(r)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if w.Code != tc.want {
			t.Errorf("ping err %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}
