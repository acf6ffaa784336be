package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecognition(t *testing.T) {
	e := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "cat.jpg")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("\xff\xd8\xff fake jpeg"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tools/recognition", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	got := decode[struct {
		Data []Prediction `json:"data"`
	}](t, rec)
	if len(got.Data) != 3 || got.Data[0].Species != "Panthera leo" || got.Data[0].Confidence != 0.93 {
		t.Fatalf("predictions = %+v", got.Data)
	}
	for _, p := range got.Data {
		if p.Image != "/api/placeholder/600/400" {
			t.Errorf("image = %q", p.Image)
		}
	}

	expectStatus(t, e.do(t, http.MethodPost, "/api/tools/recognition", `{}`, ""), http.StatusBadRequest)
}

func TestArticles(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/articles", "", "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[struct {
		Data []Article `json:"data"`
	}](t, rec)
	if len(got.Data) != 4 || got.Data[0].ID != "a1" {
		t.Errorf("articles = %+v", got.Data)
	}
}
