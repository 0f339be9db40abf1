package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/adverant/ocrservice/internal/model"
)

func TestDeliverPostsPayload(t *testing.T) {
	var mu sync.Mutex
	var received Payload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := New(5 * time.Second)
	sink.Deliver(context.Background(), server.URL, Payload{
		JobID:  "job-123",
		Status: model.StatusCompleted,
	})

	mu.Lock()
	defer mu.Unlock()
	if received.JobID != "job-123" {
		t.Errorf("expected job ID job-123 to be delivered, got %q", received.JobID)
	}
}

func TestDeliverSwallowsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := New(5 * time.Second)
	// Deliver has no return value; this test only asserts it does not
	// panic or block when the receiving server errors out.
	sink.Deliver(context.Background(), server.URL, Payload{JobID: "job-456", Status: model.StatusFailed})
}

func TestDeliverSwallowsUnreachableHost(t *testing.T) {
	sink := New(1 * time.Second)
	sink.Deliver(context.Background(), "http://127.0.0.1:1", Payload{JobID: "job-789"})
}
