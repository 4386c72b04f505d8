package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"], "path": r.URL.Path})
	}))
	defer ts.Close()

	c, err := New(ts.URL+"/", time.Second, WithHeader("X-Api-Key", "k"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var out map[string]string
	if err := c.DoJSON(context.Background(), http.MethodPost, "v1/echo", nil, map[string]string{"msg": "hi"}, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if out["echo"] != "hi" || out["path"] != "/v1/echo" {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestDoJSON_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	c, _ := New(ts.URL, time.Second)
	err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	if StatusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 HTTPError, got %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	c, _ := New("", time.Second)
	if _, err := c.resolveURL("/relative"); err == nil {
		t.Fatalf("relative path without base url must fail")
	}
	if got, _ := c.resolveURL("https://odin.local/v1"); got != "https://odin.local/v1" {
		t.Fatalf("absolute url must pass through, got %q", got)
	}
	if _, err := New("::not a url", time.Second); err == nil {
		t.Fatalf("expected invalid base url")
	}
}
