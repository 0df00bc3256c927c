package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usestring/xui-mcp/internal/cache"
	"github.com/usestring/xui-mcp/internal/config"
	"github.com/usestring/xui-mcp/internal/query"
	"github.com/usestring/xui-mcp/pkg/client"
)

const inboundsBody = `{
	"success": true,
	"msg": "",
	"obj": [
		{"id": 1, "up": 10, "down": 20, "total": 0, "remark": "de-443", "enable": true, "expiryTime": 0,
		 "port": 443, "protocol": "vless", "tag": "inbound-443",
		 "settings": "{\"clients\":[{\"email\":\"a@x\",\"id\":\"uuid-a\"},{\"email\":\"b@x\",\"id\":\"uuid-b\"},{\"email\":\"c@x\",\"id\":\"uuid-c\"}]}",
		 "streamSettings": "{\"network\":\"tcp\"}", "sniffing": "{}",
		 "clientStats": [{"id": 1, "inboundId": 1, "enable": true, "email": "a@x", "up": 1, "down": 2, "expiryTime": 0, "total": 0}]},
		{"id": 2, "up": 0, "down": 0, "total": 0, "remark": "nl-8443", "enable": false, "expiryTime": 0,
		 "port": 8443, "protocol": "trojan", "tag": "inbound-8443",
		 "settings": "{\"clients\":[]}", "streamSettings": "{}", "sniffing": "{}", "clientStats": null}
	]
}`

// testPanel is an in-process 3X-UI panel with a fixed data set.
type testPanel struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int

	backupStatus int
	failList     bool
}

func newTestPanel(t *testing.T) *testPanel {
	t.Helper()
	p := &testPanel{hits: make(map[string]int), backupStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "3x-ui", Value: "token", Path: "/", MaxAge: 3600})
		writeBody(w, http.StatusOK, `{"success":true,"msg":"Login Successfully"}`)
	})
	mux.HandleFunc("GET /panel/api/inbounds/list", p.authed(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		fail := p.failList
		p.mu.Unlock()
		if fail {
			writeBody(w, http.StatusInternalServerError, `{"success":false,"msg":"database is locked"}`)
			return
		}
		writeBody(w, http.StatusOK, inboundsBody)
	}))
	mux.HandleFunc("GET /panel/api/inbounds/get/{id}", p.authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			writeBody(w, http.StatusOK, `{"success":true,"msg":"","obj":{"id":1,"remark":"de-443","port":443,"protocol":"vless","settings":"{\"clients\":[]}"}}`)
		default:
			writeBody(w, http.StatusOK, `{"success":false,"msg":"Obtain Failed: record not found","obj":null}`)
		}
	}))
	mux.HandleFunc("GET /panel/api/inbounds/getClientTraffics/{email}", p.authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("email") {
		case "a@x":
			writeBody(w, http.StatusOK, `{"success":true,"msg":"","obj":{"id":1,"inboundId":1,"enable":true,"email":"a@x","up":1,"down":2,"expiryTime":0,"total":0}}`)
		case "broken@x":
			writeBody(w, http.StatusInternalServerError, `{"success":false,"msg":"database is locked"}`)
		default:
			writeBody(w, http.StatusOK, `{"success":true,"msg":"","obj":null}`)
		}
	}))
	mux.HandleFunc("GET /panel/api/inbounds/getClientTrafficsById/{uuid}", p.authed(func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"success":true,"msg":"","obj":[{"id":2,"inboundId":1,"enable":true,"email":"b@x","up":3,"down":4,"expiryTime":0,"total":0}]}`)
	}))
	mux.HandleFunc("GET /panel/api/inbounds/createbackup", p.authed(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		status := p.backupStatus
		p.mu.Unlock()
		w.WriteHeader(status)
	}))

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func (p *testPanel) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.hits[r.URL.Path]++
		p.mu.Unlock()
		if c, err := r.Cookie("3x-ui"); err != nil || c.Value != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func (p *testPanel) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *testPanel) setBackupStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backupStatus = status
}

func (p *testPanel) setFailList(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failList = fail
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// newTestDeps returns deps wired to a logged-in client for p.
func newTestDeps(t *testing.T, p *testPanel) *Deps {
	t.Helper()
	c, err := client.New(p.URL + "/")
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), "admin", "admin"))

	cfg := &config.Config{
		CacheTTL:               time.Minute,
		CacheMaxItems:          16,
		TrafficFetchWorkers:    4,
		QueryMaxResultsDefault: config.DefaultQueryMaxResults,
		CompactMaxArrayItems:   2,
		CompactMaxStringLen:    300,
	}
	return &Deps{
		Client: c,
		Cache:  cache.NewResponseCache(cfg.CacheMaxItems, cfg.CacheTTL),
		Config: cfg,
		Query:  query.NewEngine(),
	}
}

// newUnauthenticatedClient returns a client for p that never logged in.
func newUnauthenticatedClient(t *testing.T, p *testPanel) *client.Client {
	t.Helper()
	c, err := client.New(p.URL + "/")
	require.NoError(t, err)
	return c
}
