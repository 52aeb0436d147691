package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNewClientAppendsAPIPrefix(t *testing.T) {
	c := NewClient("http://localhost:8080/", "tok")
	if c.BaseURL != "http://localhost:8080/api" {
		t.Errorf("expected base URL with /api suffix, got %q", c.BaseURL)
	}
	if c.HTTPClient == nil || c.HTTPClient.Timeout == 0 {
		t.Error("expected an HTTP client with a timeout")
	}
}

func TestClientSendsTokenAndDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sl_token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected Accept header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"p1","title":"Groceries","is_creator":true,"can_edit":true}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "sl_token")
	var resp Response[[]Page]
	if err := c.Get("/pages", nil, &resp); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 || resp.Data[0].Title != "Groceries" || !resp.Data[0].IsCreator {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestClientEncodesJSONBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected Content-Type %q", got)
		}
		var body struct {
			Positions []PositionUpdate `json:"positions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if len(body.Positions) != 2 || body.Positions[1].ID != "b" || body.Positions[1].Position != 0 {
			t.Errorf("unexpected body %+v", body)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	payload := map[string]interface{}{"positions": []PositionUpdate{{ID: "a", Position: 1}, {ID: "b", Position: 0}}}
	if err := c.Put("/pages/p1/lists/reorder", payload, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestClientReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"validation failed","fields":[{"field":"title","message":"title is required"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	err := c.Post("/pages", map[string]string{"title": ""}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "validation failed" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if len(apiErr.Fields) != 1 || apiErr.Fields[0].Field != "title" {
		t.Errorf("expected title field error, got %+v", apiErr.Fields)
	}
	if !strings.Contains(err.Error(), "title: title is required") {
		t.Errorf("expected field details in message, got %q", err.Error())
	}
}

func TestClientPlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewClient(server.URL, "").Get("/pages", nil, nil)
	if err == nil || err.Error() != "api: 502: bad gateway" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestClientDeleteWithParamsAndNoContent(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	var out Response[map[string]interface{}]
	if err := c.Delete("/settings/api-keys/k1", url.Values{"hard": {"true"}}, &out); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotQuery.Get("hard") != "true" {
		t.Errorf("expected hard=true, got %v", gotQuery)
	}
	if out.Success {
		t.Error("expected the output to be left untouched")
	}
}

func TestClientPatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/lists/l1/items/i1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"i1","content":"Milk","checked":true}}`))
	}))
	defer server.Close()

	var resp Response[Item]
	if err := NewClient(server.URL, "tok").Patch("/lists/l1/items/i1", map[string]bool{"checked": true}, &resp); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !resp.Data.Checked || resp.Data.Content != "Milk" {
		t.Errorf("unexpected item %+v", resp.Data)
	}
}
