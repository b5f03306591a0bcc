package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/session"
	"github.com/adalundhe/llcguide/core/transcript"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type registry map[string]conversation.Agent

func (r registry) Get(name string) (conversation.Agent, bool) {
	a, ok := r[name]
	return a, ok
}

func newRegistry(failing string) registry {
	reg := registry{}
	for _, name := range conversation.DefaultFlowTable().AgentNames() {
		reply := name + " reply"
		if name == failing {
			reg[name] = conversation.AgentFunc(func(context.Context, string, conversation.Info) (*conversation.AgentResponse, error) {
				return nil, errors.New("upstream unavailable")
			})
			continue
		}
		reg[name] = conversation.AgentFunc(func(context.Context, string, conversation.Info) (*conversation.AgentResponse, error) {
			return &conversation.AgentResponse{Message: reply}, nil
		})
	}
	return reg
}

type stubTranscripts struct {
	turns []transcript.Turn
	err   error
}

func (s stubTranscripts) List(context.Context, string) ([]transcript.Turn, error) {
	return s.turns, s.err
}

func newTestServer(t *testing.T, failing string, transcripts TranscriptLister) (*Server, *session.Manager) {
	t.Helper()
	engine, err := conversation.NewEngine(conversation.Config{Registry: newRegistry(failing)})
	require.NoError(t, err)
	mgr, err := session.NewManager(session.ManagerConfig{Engine: engine})
	require.NoError(t, err)
	srv, err := New(Config{Sessions: mgr, Transcripts: transcripts})
	require.NoError(t, err)
	return srv, mgr
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INITIAL", resp.Stage)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestNew_RequiresSessions(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	createSession(t, srv)

	w := do(t, srv, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"])
}

func TestSendMessage_Advances(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	id := createSession(t, srv)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+id+"/messages", MessageRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp conversation.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BUSINESS_INFO", resp.NextStage)
	assert.Equal(t, conversation.AgentBusinessConsultant, resp.DelegateTo)

	w = do(t, srv, http.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, id, snap["session_id"])
	assert.Equal(t, "BUSINESS_INFO", snap["stage"])
	assert.Equal(t, float64(1), snap["turns"])
}

func TestSendMessage_ContextIsMerged(t *testing.T) {
	srv, mgr := newTestServer(t, "", nil)
	id := createSession(t, srv)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+id+"/messages", MessageRequest{
		Message: "status",
		Context: conversation.Info{"business_name": "Blue Fern"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	s, err := mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Blue Fern", s.Snapshot().CollectedInfo["business_name"])
}

func TestSendMessage_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	id := createSession(t, srv)

	tests := []struct {
		name string
		body any
	}{
		{"empty message", MessageRequest{Message: "   "}},
		{"malformed json", "{not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/v1/sessions/"+id+"/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSendMessage_UnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	w := do(t, srv, http.MethodPost, "/v1/sessions/nope/messages", MessageRequest{Message: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_AgentFailure(t *testing.T) {
	srv, _ := newTestServer(t, conversation.AgentBusinessConsultant, nil)
	id := createSession(t, srv)

	w := do(t, srv, http.MethodPost, "/v1/sessions/"+id+"/messages", MessageRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost, "/v1/sessions/"+id+"/messages", MessageRequest{Message: "we sell candles"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "upstream unavailable")

	w = do(t, srv, http.MethodGet, "/v1/sessions/"+id, nil)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "BUSINESS_INFO", snap["stage"])
}

func TestCloseSession(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	id := createSession(t, srv)

	w := do(t, srv, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShutdownManager(t *testing.T) {
	srv, mgr := newTestServer(t, "", nil)
	mgr.Shutdown()

	w := do(t, srv, http.MethodPost, "/v1/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetTranscript(t *testing.T) {
	turns := []transcript.Turn{{ID: 1, SessionID: "s1", Input: "hi", StageBefore: "INITIAL", StageAfter: "BUSINESS_INFO"}}
	srv, _ := newTestServer(t, "", stubTranscripts{turns: turns})

	w := do(t, srv, http.MethodGet, "/v1/sessions/s1/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TranscriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, "hi", resp.Turns[0].Input)
}

func TestGetTranscript_StoreError(t *testing.T) {
	srv, _ := newTestServer(t, "", stubTranscripts{err: errors.New("db locked")})

	w := do(t, srv, http.MethodGet, "/v1/sessions/s1/transcript", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTranscriptRouteNeedsStore(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	w := do(t, srv, http.MethodGet, "/v1/sessions/s1/transcript", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRoutes(t *testing.T) {
	srv, _ := newTestServer(t, "", stubTranscripts{})

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/v1/health"},
		{"POST", "/v1/sessions"},
		{"GET", "/v1/sessions/:sessionId"},
		{"DELETE", "/v1/sessions/:sessionId"},
		{"POST", "/v1/sessions/:sessionId/messages"},
		{"GET", "/v1/sessions/:sessionId/transcript"},
	}

	routes := srv.router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", want.method, want.path)
		}
	}
}
