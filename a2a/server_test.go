package a2a_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/opsmesh/a2a"
	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler is a minimal TaskHandler backed by an in-memory store.
type echoHandler struct {
	store task.Store
}

func (h *echoHandler) OnSendTask(_ context.Context, params a2a.TaskSendParams) (*core.Task, error) {
	t, err := h.store.Upsert(params.ID, params.SessionID, a2a.FromWire(params.Message))
	if err != nil {
		return nil, err
	}
	if err := h.store.AppendMessage(t.ID, core.NewAgentMessage("echo: "+params.Message.Text())); err != nil {
		return nil, err
	}
	if err := h.store.SetState(t.ID, core.TaskStateCompleted); err != nil {
		return nil, err
	}
	return h.store.Get(t.ID)
}

func (h *echoHandler) OnGetTask(_ context.Context, id string) (*core.Task, error) {
	return h.store.Get(id)
}

func rpcCall(t *testing.T, url, method string, params any) a2a.Response {
	t.Helper()

	rawParams, err := json.Marshal(params)
	require.NoError(t, err)

	body, err := json.Marshal(a2a.Request{JSONRPC: "2.0", ID: "req-1", Method: method, Params: rawParams})
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var rpcResp a2a.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return rpcResp
}

func TestServer_SendTaskRoundTrip(t *testing.T) {
	server := a2a.NewServer(
		a2a.AgentCard{Name: "HostAgent", Version: "1.0.0"},
		&echoHandler{store: task.NewInMemoryStore()},
	)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	rpcResp := rpcCall(t, srv.URL, a2a.MethodTasksSend, a2a.TaskSendParams{
		ID:        "t1",
		SessionID: "sess-1",
		Message:   a2a.Message{Role: "user", Parts: []a2a.Part{{Type: "text", Text: "ping"}}},
	})
	require.Nil(t, rpcResp.Error)

	var remote a2a.Task
	require.NoError(t, json.Unmarshal(rpcResp.Result, &remote))

	assert.Equal(t, "t1", remote.ID)
	assert.Equal(t, "completed", remote.Status.State)
	require.Len(t, remote.History, 2)
	assert.Equal(t, "ping", remote.History[0].Text())
	assert.Equal(t, "echo: ping", remote.History[1].Text())
}

func TestServer_GetTask(t *testing.T) {
	handler := &echoHandler{store: task.NewInMemoryStore()}
	server := a2a.NewServer(a2a.AgentCard{Name: "HostAgent"}, handler)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	_ = rpcCall(t, srv.URL, a2a.MethodTasksSend, a2a.TaskSendParams{
		ID:      "t1",
		Message: a2a.Message{Role: "user", Parts: []a2a.Part{{Type: "text", Text: "ping"}}},
	})

	rpcResp := rpcCall(t, srv.URL, a2a.MethodTasksGet, a2a.TaskQueryParams{ID: "t1"})
	require.Nil(t, rpcResp.Error)

	var remote a2a.Task
	require.NoError(t, json.Unmarshal(rpcResp.Result, &remote))
	assert.Len(t, remote.History, 2)

	// Unknown id maps to invalid params
	rpcResp = rpcCall(t, srv.URL, a2a.MethodTasksGet, a2a.TaskQueryParams{ID: "missing"})
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, a2a.CodeInvalidParams, rpcResp.Error.Code)
}

func TestServer_EmptyTaskID(t *testing.T) {
	server := a2a.NewServer(a2a.AgentCard{Name: "HostAgent"}, &echoHandler{store: task.NewInMemoryStore()})
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	rpcResp := rpcCall(t, srv.URL, a2a.MethodTasksSend, a2a.TaskSendParams{
		ID:      "",
		Message: a2a.Message{Role: "user", Parts: []a2a.Part{{Type: "text", Text: "ping"}}},
	})
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, a2a.CodeInvalidParams, rpcResp.Error.Code)
}

func TestServer_MethodNotFound(t *testing.T) {
	server := a2a.NewServer(a2a.AgentCard{Name: "HostAgent"}, &echoHandler{store: task.NewInMemoryStore()})
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	rpcResp := rpcCall(t, srv.URL, "tasks/unknown", struct{}{})
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, a2a.CodeMethodNotFound, rpcResp.Error.Code)
}

func TestServer_ServesCard(t *testing.T) {
	server := a2a.NewServer(a2a.AgentCard{Name: "HostAgent", URL: "http://localhost:10000", Version: "1.0.0"}, &echoHandler{store: task.NewInMemoryStore()})
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + a2a.WellKnownPath)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.Equal(t, "HostAgent", card.Name)
	assert.Equal(t, "1.0.0", card.Version)
}
