package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kurbezz/shared-lists/internal/config"
)

func TestNewMinIOClient(t *testing.T) {
	t.Run("builds a client without contacting the server", func(t *testing.T) {
		client, err := NewMinIOClient(config.MinIOConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "access",
			SecretKey: "secret",
			Bucket:    "audit",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Bucket() != "audit" {
			t.Fatalf("expected bucket audit, got %s", client.Bucket())
		}
	})

	t.Run("rejects an endpoint with a scheme", func(t *testing.T) {
		if _, err := NewMinIOClient(config.MinIOConfig{Endpoint: "http://localhost:9000"}); err == nil {
			t.Fatal("expected error for endpoint with scheme")
		}
	})
}

// s3Stub answers the handful of S3 calls the audit exporter makes.
type s3Stub struct {
	mu           sync.Mutex
	buckets      map[string]bool
	objects      map[string][]byte
	contentTypes map[string]string
}

func newS3Stub(t *testing.T) (*s3Stub, *httptest.Server) {
	t.Helper()
	stub := &s3Stub{buckets: map[string]bool{}, objects: map[string][]byte{}, contentTypes: map[string]string{}}
	server := httptest.NewServer(http.HandlerFunc(stub.serve))
	t.Cleanup(server.Close)
	return stub, server
}

func (s *s3Stub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := r.URL.Query()["location"]; ok {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`))
		return
	}

	bucket, object, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && object == "":
		if !s.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && object == "":
		s.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && strings.HasPrefix(object, "denied/"):
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied.</Message></Error>`))
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.objects[bucket+"/"+object] = body
		s.contentTypes[bucket+"/"+object] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func newStubbedClient(t *testing.T, server *httptest.Server) *MinIOClient {
	t.Helper()
	client, err := NewMinIOClient(config.MinIOConfig{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "audit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestEnsureBucket(t *testing.T) {
	stub, server := newS3Stub(t)
	client := newStubbedClient(t, server)

	for i := 0; i < 2; i++ {
		if err := client.EnsureBucket(context.Background()); err != nil {
			t.Fatalf("EnsureBucket call %d failed: %v", i+1, err)
		}
	}
	if !stub.buckets["audit"] {
		t.Fatal("expected the audit bucket to be created")
	}
}

func TestUpload(t *testing.T) {
	stub, server := newS3Stub(t)
	client := newStubbedClient(t, server)

	payload := []byte(`{"action":"page.create"}` + "\n" + `{"action":"list.create"}` + "\n")
	name := "audit-logs/2026/05/01/12-00-00.ndjson"
	if err := client.Upload(context.Background(), name, bytes.NewReader(payload), int64(len(payload)), "application/x-ndjson"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	stored, ok := stub.objects["audit/"+name]
	if !ok {
		t.Fatalf("expected object %s to be stored, got %v", name, stub.objects)
	}
	if !bytes.Contains(stored, payload) {
		t.Fatalf("stored body does not contain the payload: %q", stored)
	}
	if got := stub.contentTypes["audit/"+name]; got != "application/x-ndjson" {
		t.Fatalf("expected content type application/x-ndjson, got %q", got)
	}
}

func TestUploadReportsServerErrors(t *testing.T) {
	_, server := newS3Stub(t)
	client := newStubbedClient(t, server)

	payload := []byte("{}\n")
	err := client.Upload(context.Background(), "denied/export.ndjson", bytes.NewReader(payload), int64(len(payload)), "application/x-ndjson")
	if err == nil {
		t.Fatal("expected an error for a rejected upload")
	}
}
