package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetPassthroughEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","status_code":200,"data":{"id":"p1"},"meta":{"timestamp":"2024-01-01T00:00:00Z","version":"v0.3"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Get(context.Background(), "/v0/prompts/p1", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Kind != KindSuccess {
		t.Fatalf("Kind = %s, want success", env.Kind)
	}
	if env.StatusCode != 200 {
		t.Fatalf("StatusCode = %d", env.StatusCode)
	}
	if string(env.Data) != `{"id":"p1"}` {
		t.Fatalf("Data = %s", env.Data)
	}
	if env.Meta.Version != "v0.3" {
		t.Fatalf("server meta version lost: %+v", env.Meta)
	}
	if env.Meta.Timestamp == "2024-01-01T00:00:00Z" || env.Meta.Timestamp == "" {
		t.Fatalf("timestamp not freshly stamped: %q", env.Meta.Timestamp)
	}
	if _, perr := time.Parse(time.RFC3339, env.Meta.Timestamp); perr != nil {
		t.Fatalf("timestamp not ISO-8601: %v", perr)
	}
}

func TestGetLegacySuccessShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"hostingType":"multi"},"message":"ok"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Get(context.Background(), "/v0/config", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Kind != KindSuccess {
		t.Fatalf("Kind = %s, want success", env.Kind)
	}
	if string(env.Data) != `{"hostingType":"multi"}` {
		t.Fatalf("Data = %s", env.Data)
	}
	if env.Message != "ok" {
		t.Fatalf("Message = %q", env.Message)
	}
}

func TestGetLegacyFailureShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Invalid Prompt","error":"template is empty"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Get(context.Background(), "/v0/prompts/x", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Kind != KindError {
		t.Fatalf("Kind = %s, want error", env.Kind)
	}
	if env.StatusCode != 400 {
		t.Fatalf("StatusCode = %d", env.StatusCode)
	}
	if env.Title != "Invalid Prompt" || env.Detail != "template is empty" {
		t.Fatalf("title/detail = %q / %q", env.Title, env.Detail)
	}
}

func TestPostServerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"title":"Server Error","detail":"db down"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Post(context.Background(), "/v0/auth/login/github", nil, nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if env.Kind != KindError {
		t.Fatalf("Kind = %s, want error", env.Kind)
	}
	if env.StatusCode != 500 {
		t.Fatalf("StatusCode = %d", env.StatusCode)
	}
	if env.Title != "Server Error" || env.Detail != "db down" {
		t.Fatalf("title/detail = %q / %q", env.Title, env.Detail)
	}
}

func TestInvalidJSONBodyNeverThrows(t *testing.T) {
	for _, status := range []int{200, 502} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte("<html>bad gateway</html>"))
		}))

		c := New(Config{BaseURL: srv.URL})
		env, err := c.Get(context.Background(), "/v0/config", nil)
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: Get: %v", status, err)
		}
		if env.Kind != KindError {
			t.Fatalf("status %d: Kind = %s, want error", status, env.Kind)
		}
		want := httpTypeURI(status)
		if env.Type != want {
			t.Fatalf("status %d: Type = %q, want %q", status, env.Type, want)
		}
	}
}

func TestTimeoutAbortsRequest(t *testing.T) {
	aborted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(aborted)
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	env, err := c.Get(context.Background(), "/v0/config", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Kind != KindError || env.Type != TypeTimeout {
		t.Fatalf("Type = %q, want %q", env.Type, TypeTimeout)
	}
	if env.Title != "Request Timeout" {
		t.Fatalf("Title = %q", env.Title)
	}
	if env.Detail != "The request timed out. Please try again." {
		t.Fatalf("Detail = %q", env.Detail)
	}
	if env.StatusCode != 0 {
		t.Fatalf("StatusCode = %d, want 0", env.StatusCode)
	}

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatalf("underlying transport request was not aborted")
	}
}

func TestNetworkFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	base := srv.URL
	srv.Close() // connection refused from here on

	c := New(Config{BaseURL: base})
	env, err := c.Get(context.Background(), "/v0/config", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Kind != KindError || env.Type != TypeNetwork {
		t.Fatalf("Type = %q, want %q", env.Type, TypeNetwork)
	}
	if env.Title != "Network Error" || env.Detail == "" {
		t.Fatalf("title/detail = %q / %q", env.Title, env.Detail)
	}
}

func TestAuthInjectionRule(t *testing.T) {
	var sameOriginAuth, thirdPartyAuth, unmarkedAuth string

	base := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			unmarkedAuth = r.Header.Get("Authorization")
		default:
			sameOriginAuth = r.Header.Get("Authorization")
		}
		w.Write([]byte(`{}`))
	}))
	defer base.Close()

	third := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		thirdPartyAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer third.Close()

	c := New(Config{BaseURL: base.URL})
	c.SetAuthToken("tok-123")

	if _, err := c.Get(context.Background(), "/v0/repos", nil); err != nil {
		t.Fatalf("same-origin Get: %v", err)
	}
	if sameOriginAuth != "Bearer tok-123" {
		t.Fatalf("same-origin Authorization = %q", sameOriginAuth)
	}

	if _, err := c.Get(context.Background(), third.URL+"/oauth/authorize", nil); err != nil {
		t.Fatalf("third-party Get: %v", err)
	}
	if thirdPartyAuth != "" {
		t.Fatalf("credential leaked to third-party URL: %q", thirdPartyAuth)
	}

	if _, err := c.Get(context.Background(), base.URL+"/health", nil); err != nil {
		t.Fatalf("unmarked Get: %v", err)
	}
	if unmarkedAuth != "" {
		t.Fatalf("credential attached to path without API marker: %q", unmarkedAuth)
	}

	c.ClearAuthToken()
	sameOriginAuth = "unset"
	if _, err := c.Get(context.Background(), "/v0/repos", nil); err != nil {
		t.Fatalf("post-clear Get: %v", err)
	}
	if sameOriginAuth != "" {
		t.Fatalf("Authorization after ClearAuthToken = %q", sameOriginAuth)
	}
}

func TestUpdateConfigAppliesToLaterRequests(t *testing.T) {
	hits := map[string]int{}
	newBackend := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits[name]++
			w.Write([]byte(`{}`))
		}))
	}
	first := newBackend("first")
	defer first.Close()
	second := newBackend("second")
	defer second.Close()

	c := New(Config{BaseURL: first.URL})
	if _, err := c.Get(context.Background(), "/v0/config", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	c.UpdateConfig(Config{BaseURL: second.URL})
	if _, err := c.Get(context.Background(), "/v0/config", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if hits["first"] != 1 || hits["second"] != 1 {
		t.Fatalf("hits = %v", hits)
	}
}

func TestIdempotentGets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"hostingType":"individual"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	first, err := c.Get(context.Background(), "/v0/config", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := c.Get(context.Background(), "/v0/config", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// structural equality modulo metadata
	first.Meta, second.Meta = Meta{}, Meta{}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("envelopes differ: %s vs %s", a, b)
	}
}

func TestHostingConfigEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/config" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"hostingType":"individual"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Get(context.Background(), "/v0/config", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Status != "success" || env.StatusCode != 200 {
		t.Fatalf("status = %q / %d", env.Status, env.StatusCode)
	}
	if string(env.Data) != `{"hostingType":"individual"}` {
		t.Fatalf("Data = %s", env.Data)
	}
	if env.Meta.Timestamp == "" {
		t.Fatalf("meta timestamp missing")
	}
}

func TestEndpointNormalization(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	for _, endpoint := range []string{"/v0/config", "/api/v0/config", "config"} {
		if _, err := c.Get(context.Background(), endpoint, nil); err != nil {
			t.Fatalf("Get(%q): %v", endpoint, err)
		}
	}

	for i, p := range paths {
		if p != "/api/v0/config" {
			t.Fatalf("paths[%d] = %s", i, p)
		}
	}
}

func TestRequestIDEchoedIntoMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Get(context.Background(), "/v0/config", &RequestOptions{
		Headers: map[string]string{
			"X-Request-ID":     "req-7",
			"X-Correlation-ID": "corr-9",
		},
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Meta.RequestID != "req-7" || env.Meta.CorrelationID != "corr-9" {
		t.Fatalf("meta = %+v", env.Meta)
	}
}

func TestPaginatedPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"success","status_code":200,"data":[{"id":"r1"},{"id":"r2"}],` +
			`"pagination":{"page":1,"page_size":2,"total_items":5,"total_pages":3,"has_next":true,"has_previous":false},` +
			`"meta":{"timestamp":"2024-01-01T00:00:00Z"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	env, err := c.Get(context.Background(), "/v0/repos?page=1&page_size=2", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.Kind != KindPaginated {
		t.Fatalf("Kind = %s, want paginated", env.Kind)
	}
	if env.Pagination == nil || !env.Pagination.HasNext || env.Pagination.TotalPages != 3 {
		t.Fatalf("pagination = %+v", env.Pagination)
	}
}
