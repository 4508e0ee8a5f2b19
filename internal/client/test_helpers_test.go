package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	testUserID     = "USER_ID"
	testPassword   = "PASSWORD"
	testClientCode = "CLIENT_CODE"
	testToken      = "session-token"
)

// fakeAPI serves the system endpoints and routes everything else to the
// handlers registered per test. Authenticated routes require testToken.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	logons atomic.Int32
	times  atomic.Int32
	other  atomic.Int32

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/1.0/", api.serve)

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

// baseURL returns the API root with its trailing slash.
func (a *fakeAPI) baseURL() string {
	return a.server.URL + "/api/1.0/"
}

// handle registers a handler for "METHOD path", path relative to the API root.
func (a *fakeAPI) handle(method, path string, handler http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handlers[method+" "+path] = handler
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/1.0/")

	switch path {
	case "logon":
		a.serveLogon(w, r)

		return
	case "time":
		a.times.Add(1)
		writeJSON(w, http.StatusOK, systemTimeBody(time.Now()))

		return
	case "ping":
		_, _ = w.Write([]byte("pong!"))

		return
	}

	a.other.Add(1)

	assert.Equal(a.t, "Bearer "+testToken, r.Header.Get("Authorization"))

	a.mu.Lock()
	handler, ok := a.handlers[r.Method+" "+path]
	a.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"statusCode": 404,
			"title":      "Not Found",
			"detail":     "no route for " + r.Method + " " + path,
		})

		return
	}

	handler(w, r)
}

func (a *fakeAPI) serveLogon(w http.ResponseWriter, r *http.Request) {
	a.logons.Add(1)

	assert.Equal(a.t, http.MethodPost, r.Method)
	assert.Empty(a.t, r.Header.Get("Authorization"))

	var credentials map[string]string

	err := json.NewDecoder(r.Body).Decode(&credentials)
	assert.NoError(a.t, err)

	if credentials["userid"] != testUserID || credentials["password"] != testPassword || credentials["clientcode"] != testClientCode {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"statusCode": 401,
			"title":      "Unauthorized",
			"detail":     "Invalid credentials",
		})

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": testToken})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func systemTimeBody(now time.Time) map[string]string {
	eastern := time.FixedZone("EST", -5*3600)

	return map[string]string{
		"utc_datetime":        now.UTC().Format(time.RFC3339),
		"roi_system_datetime": now.In(eastern).Format(time.RFC3339),
	}
}

func donorBody(roiFamilyID, nameLast string) map[string]interface{} {
	return map[string]interface{}{
		"roi_family_id":      roiFamilyID,
		"roi_id":             "R" + roiFamilyID,
		"origination_vendor": "VENDOR1234",
		"account_status":     "A",
		"do_not_contact":     "N",
		"account_added_date": "2023-08-18T10:15:00.000-04:00",
		"name_first":         "Jane",
		"name_last":          nameLast,
		"links": []map[string]string{
			{"rel": "self", "href": "https://secure2.roisolutions.net/api/1.0/donors/" + roiFamilyID},
		},
	}
}

// pageBody builds a list envelope for page of a collection with total
// records and a page size of limit.
func pageBody(endpoint string, page, limit, total int, item func(i int) interface{}) map[string]interface{} {
	totalPages := (total + limit - 1) / limit

	items := []interface{}{}
	for i := (page - 1) * limit; i < min(page*limit, total); i++ {
		items = append(items, item(i))
	}

	links := []map[string]string{
		{"rel": "self", "href": fmt.Sprintf("%s?page=%d", endpoint, page)},
	}

	if page < totalPages {
		links = append(links, map[string]string{"rel": "next", "href": fmt.Sprintf("%s?page=%d", endpoint, page+1)})
	}

	return map[string]interface{}{
		"page":          page,
		"limit":         limit,
		"total_pages":   totalPages,
		"total_records": total,
		"links":         links,
		"items":         items,
	}
}

func queryPage(query url.Values) int {
	page := 1
	if raw := query.Get("page"); raw != "" {
		_, _ = fmt.Sscanf(raw, "%d", &page)
	}

	return page
}
