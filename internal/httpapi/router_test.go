package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/focusbot/internal/ai"
	"github.com/suPer8Hu/focusbot/internal/auth"
	"github.com/suPer8Hu/focusbot/internal/db"
	"github.com/suPer8Hu/focusbot/internal/history"
	"github.com/suPer8Hu/focusbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/focusbot/internal/relay"
	"github.com/suPer8Hu/focusbot/internal/subject"
	"go.uber.org/zap"
)

type fakeProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]ai.Message
}

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, messages)
	return p.reply, p.err
}

type testServer struct {
	engine   *gin.Engine
	provider *fakeProvider
	history  *history.Service
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	prov := &fakeProvider{reply: "A derivative measures..."}
	hist := history.NewService(history.NewRepo(gdb))
	h := handlers.NewHandler(
		gdb,
		auth.NewService(gdb, "test-secret", time.Hour),
		subject.NewService(subject.NewRepo(gdb), nil),
		hist,
		relay.NewService(prov, hist, history.SyncRecorder{Svc: hist}, 20, nil),
		nil,
	)
	return &testServer{engine: NewRouter(h, opts, zap.NewNop()), provider: prov, history: hist}
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w, out := s.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": email, "password": "pw123456"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tok, _ := out["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestChat_GuestRelayNotPersisted(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w, out := s.do(t, http.MethodPost, "/api/chat", "", gin.H{
		"message": "What is a derivative?", "subject": "Math", "user": "guest", "conversation_started": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "A derivative measures...", out["reply"])

	entries, err := s.history.List(context.Background(), relay.Guest, "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChat_Errors(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w, out := s.do(t, http.MethodPost, "/api/chat", "", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Both message and subject are required.", out["error"])

	s.provider.err = errors.New("upstream: invalid api key sk-123")
	w, out = s.do(t, http.MethodPost, "/api/chat", "", gin.H{"message": "hi", "subject": "Math"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to get a response from the AI model.", out["error"])
	assert.NotContains(t, w.Body.String(), "sk-123")

	// claiming someone else's identity
	w, out = s.do(t, http.MethodPost, "/api/chat", "", gin.H{"message": "hi", "subject": "Math", "user": "ada@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not allowed.", out["error"])
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.signup(t, "Ada@Example.com")

	w, out := s.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": "ada@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered.", out["detail"])

	w, out = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, out["token"])

	w, out = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password.", out["detail"])

	w, _ = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func subjectsOf(t *testing.T, out map[string]any) []string {
	t.Helper()
	raw, ok := out["subjects"].([]any)
	require.True(t, ok, "subjects missing: %v", out)
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		names = append(names, v.(string))
	}
	return names
}

func TestSubjects(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w, out := s.do(t, http.MethodGet, "/api/subjects?user=guest", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, subject.Defaults, subjectsOf(t, out))

	w, out = s.do(t, http.MethodPost, "/api/subjects", "", gin.H{"subject": "Physics", "user": "guest"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authenticated.", out["detail"])

	tok := s.signup(t, "ada@example.com")
	w, _ = s.do(t, http.MethodPost, "/api/subjects", tok, gin.H{"subject": "  Physics ", "user": "ada@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, out = s.do(t, http.MethodGet, "/api/subjects?user=ada@example.com", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Math", "History", "Science", "Literature", "Physics"}, subjectsOf(t, out))

	w, out = s.do(t, http.MethodPost, "/api/subjects", tok, gin.H{"subject": "Physics", "user": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Subject already exists.", out["detail"])

	w, out = s.do(t, http.MethodDelete, "/api/subjects/Math?user=ada@example.com", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete default subjects.", out["detail"])

	w, out = s.do(t, http.MethodDelete, "/api/subjects/Chemistry?user=ada@example.com", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Subject not found.", out["detail"])

	w, _ = s.do(t, http.MethodDelete, "/api/subjects/Physics?user=ada@example.com", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, out = s.do(t, http.MethodGet, "/api/subjects?user=bob@example.com", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not allowed.", out["detail"])
}

func TestHistory_PersistListDelete(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	tok := s.signup(t, "ada@example.com")

	w, _ := s.do(t, http.MethodGet, "/api/history?user=ada@example.com", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.provider.reply = "Hi, I'm your Math tutor."
	w, _ = s.do(t, http.MethodPost, "/api/chat", tok, gin.H{
		"message": "hello", "subject": "Math", "user": "ada@example.com", "conversation_started": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	s.provider.reply = "2+2 is 4."
	w, _ = s.do(t, http.MethodPost, "/api/chat", tok, gin.H{
		"message": "what is 2+2?", "subject": "Math", "user": "ada@example.com", "conversation_started": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// the continued call carried the first exchange as context
	last := s.provider.calls[len(s.provider.calls)-1]
	require.Len(t, last, 4)
	assert.Equal(t, "hello", last[1].Content)
	assert.Equal(t, "Hi, I'm your Math tutor.", last[2].Content)

	w, out := s.do(t, http.MethodGet, "/api/history?user=ada@example.com", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries, ok := out["history"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "Math", entry["subject"])
	assert.Equal(t, "hello", entry["message"])
	assert.Len(t, entry["conversation"], 4)
	assert.NotEmpty(t, entry["formatted_time"])
	id := entry["id"].(string)

	w, _ = s.do(t, http.MethodDelete, "/api/history/"+id+"?user=bob@example.com", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/history/"+id+"?user=ada@example.com", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, out = s.do(t, http.MethodDelete, "/api/history/"+id+"?user=ada@example.com", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Chat not found.", out["detail"])
}

func TestHistory_Clear(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	tok := s.signup(t, "ada@example.com")
	s.provider.reply = "Fine."
	for _, subj := range []string{"Math", "Science"} {
		w, _ := s.do(t, http.MethodPost, "/api/chat", tok, gin.H{"message": "hello", "subject": subj})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, out := s.do(t, http.MethodGet, "/api/history?subject=Science", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["history"], 1)

	w, out = s.do(t, http.MethodDelete, "/api/history", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, out["deleted"])
}

func TestInvalidToken(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	w, out := s.do(t, http.MethodGet, "/api/subjects", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token.", out["detail"])
}

func TestRouting(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w, out := s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", out["detail"])

	w, _ = s.do(t, http.MethodGet, "/api/chat", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w, out = s.do(t, http.MethodGet, "/api", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FocusBot API is live", out["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, out = s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["ok"])
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.engine.GET("/api/boom", func(c *gin.Context) { panic("boom") })

	w, out := s.do(t, http.MethodGet, "/api/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", out["detail"])
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>focusbot</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	s := newTestServer(t, RouterOptions{BuildDir: dir})

	w, _ := s.do(t, http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w, _ = s.do(t, http.MethodGet, "/history/some-client-route", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "focusbot")

	w, _ = s.do(t, http.MethodGet, "/api/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
