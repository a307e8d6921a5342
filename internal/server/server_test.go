package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/rag"
	"docqa/internal/session"
	"docqa/internal/vectorstore"
)

type stubEmbedder struct{ dimension int }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, s.dimension)
		for j, r := range t {
			vec[j%s.dimension] += float32(r % 7)
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return s.dimension }

type stubLLM struct{ responses []string }

func (s *stubLLM) Complete(_ context.Context, _, _ string) (string, error) {
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func newTestServer(t *testing.T, llm *stubLLM, withSessions bool) *Server {
	t.Helper()
	store, err := vectorstore.New(4)
	require.NoError(t, err)
	pipeline := rag.New(&stubEmbedder{dimension: 4}, store, llm, nil, rag.Config{})

	var sessions *session.Store
	if withSessions {
		sessions, err = session.Open(filepath.Join(t.TempDir(), "sessions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { sessions.Close() })
	}
	return New(pipeline, sessions, nil)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	srv := newTestServer(t, &stubLLM{}, false)
	h := srv.Handler()

	rec := doUpload(t, h, "notes.txt", "First fact here. Second fact here.")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "notes.txt", resp.Source)
	assert.Greater(t, resp.ChunksAdded, 0)
}

func TestUpload_UnsupportedType(t *testing.T) {
	srv := newTestServer(t, &stubLLM{}, false)

	rec := doUpload(t, srv.Handler(), "image.png", "not really a png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t, &stubLLM{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_EmptyStore(t *testing.T) {
	srv := newTestServer(t, &stubLLM{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"question":"anything?"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Answer, "No documents")
	assert.Zero(t, resp.Confidence)
}

func TestQuery_FullFlowWithSession(t *testing.T) {
	llm := &stubLLM{responses: []string{
		`{"analysis_type":"general_qa","needs_numeric":false,"retrieval_focus":"facts"}`,
		`{"answer":"The answer.","confidence":"high","sources_used":1}`,
	}}
	srv := newTestServer(t, llm, true)
	h := srv.Handler()

	rec := doUpload(t, h, "notes.txt", "A useful fact. Another useful fact.")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"question":"what is the fact?"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The answer.", resp.Answer)
	assert.Equal(t, []string{"notes.txt"}, resp.Sources)
	assert.Equal(t, 0.92, resp.Confidence)
	require.NotEmpty(t, resp.SessionID)

	turns, err := srv.sessions.History(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "what is the fact?", turns[0].UserQuery)
	assert.Equal(t, "The answer.", turns[0].SystemResponse)
}

func TestQuery_UnknownSession(t *testing.T) {
	llm := &stubLLM{responses: []string{
		`{"analysis_type":"general_qa","needs_numeric":false,"retrieval_focus":"facts"}`,
		`{"answer":"ok","confidence":"low","sources_used":0}`,
	}}
	srv := newTestServer(t, llm, true)
	h := srv.Handler()

	rec := doUpload(t, h, "notes.txt", "A fact.")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"question":"q","session_id":"bogus"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_MissingQuestion(t *testing.T) {
	srv := newTestServer(t, &stubLLM{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubLLM{}, false)
	h := srv.Handler()

	rec := doUpload(t, h, "notes.txt", "A fact.")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"notes.txt"}, resp.UploadedFiles)
	assert.Greater(t, resp.TotalChunks, 0)
}
