package main

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDebugRouter(t *testing.T) {
	sut := debugRouter("v1.2.3")

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/readyz", http.StatusOK, "ok"},
		{"/version", http.StatusOK, "v1.2.3"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		sut.ServeHTTP(w, r)

		if got := w.Result().StatusCode; got != tt.wantStatus {
			t.Errorf("(%s): got status %d, want %d", tt.path, got, tt.wantStatus)
		}
		if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
			t.Errorf("(%s): got body %q, want %q", tt.path, got, tt.wantBody)
		}
	}
}

func TestInitTracing(t *testing.T) {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)

	tp, err := initTracing(log.WithContext(context.Background()), "  ", "web-gateway", 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if tp != nil {
		t.Error("expected no tracer provider without a collector uri")
	}
}
