package handler

import (
	"net/http"
	"strings"
	"testing"
)

func TestClampDimension(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"600", 600, true},
		{"5000", 2000, true},
		{"10", 16, true},
		{"-4", 16, true},
		{"99.9", 99, true},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := clampDimension(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("clampDimension(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/placeholder/5000/10", "", "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	svg := rec.Body.String()
	for _, want := range []string{`width="2000"`, `height="16"`, ">2000x16</text>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q:\n%s", want, svg)
		}
	}

	rec = e.do(t, http.MethodGet, "/api/placeholder/600/400?text=%3Cb%3EOak%3C%2Fb%3E", "", "")
	expectStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); !strings.Contains(body, "&lt;b&gt;Oak&lt;/b&gt;") || strings.Contains(body, "<b>") {
		t.Errorf("label not escaped:\n%s", body)
	}

	expectStatus(t, e.do(t, http.MethodGet, "/api/placeholder/wide/400", "", ""), http.StatusBadRequest)
}
