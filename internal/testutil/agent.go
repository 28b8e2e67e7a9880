package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/hupe1980/opsmesh/a2a"
)

// StartAgent starts a wire-compatible fake agent that serves its card on the
// well-known path and answers tasks/send with reply(messageText). The caller
// owns the returned server and must Close it.
func StartAgent(name string, reply func(message string) string) *httptest.Server {
	var srv *httptest.Server

	mux := http.NewServeMux()

	mux.HandleFunc("GET "+a2a.WellKnownPath, func(w http.ResponseWriter, _ *http.Request) {
		card := a2a.AgentCard{
			Name:    name,
			URL:     srv.URL,
			Version: "1.0.0",
			Skills:  []a2a.AgentSkill{{ID: name + "-default", Name: name}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(card)
	})

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		var req a2a.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var params a2a.TaskSendParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		remote := a2a.Task{
			ID:        params.ID,
			SessionID: params.SessionID,
			Status:    a2a.TaskStatus{State: "completed"},
			History: []a2a.Message{
				params.Message,
				{Role: "agent", Parts: []a2a.Part{{Type: "text", Text: reply(params.Message.Text())}}},
			},
		}

		raw, _ := json.Marshal(remote)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a2a.Response{JSONRPC: "2.0", ID: req.ID, Result: raw})
	})

	srv = httptest.NewServer(mux)
	return srv
}

// StartSilentAgent starts a fake agent whose tasks/send response contains no
// reply beyond the original message. Used to exercise the no-response
// sentinel path.
func StartSilentAgent(name string) *httptest.Server {
	var srv *httptest.Server

	mux := http.NewServeMux()

	mux.HandleFunc("GET "+a2a.WellKnownPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a2a.AgentCard{Name: name, URL: srv.URL, Version: "1.0.0"})
	})

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		var req a2a.Request
		_ = json.NewDecoder(r.Body).Decode(&req)

		var params a2a.TaskSendParams
		_ = json.Unmarshal(req.Params, &params)

		remote := a2a.Task{
			ID:      params.ID,
			Status:  a2a.TaskStatus{State: "completed"},
			History: []a2a.Message{params.Message},
		}

		raw, _ := json.Marshal(remote)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a2a.Response{JSONRPC: "2.0", ID: req.ID, Result: raw})
	})

	srv = httptest.NewServer(mux)
	return srv
}
