package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/pomokan/internal/domain"
)

func TestNormalizeURLs(t *testing.T) {
	got := NormalizeURLs([]string{
		" http://example.com/hook/ ",
		"http://example.com/hook",
		"ftp://example.com/hook",
		"",
		"https://other.example.com/{event}",
		"not a url",
		"http://",
	})
	assert.Equal(t, []string{
		"http://example.com/hook",
		"https://other.example.com/{event}",
	}, got)
	assert.Nil(t, NormalizeURLs(nil))
}

type recorder struct {
	mu     sync.Mutex
	paths  []string
	bodies []Payload
}

func (r *recorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var p Payload
		if err := json.Unmarshal(data, &p); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if ct := req.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		r.mu.Lock()
		r.paths = append(r.paths, req.URL.Path)
		r.bodies = append(r.bodies, p)
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestNotifier_Notify(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	n := New([]string{srv.URL + "/a", srv.URL + "/a/", srv.URL + "/reload/{event}"})
	require.Len(t, n.Targets(), 2)

	payload := NewPayload(EventImported, "sha256:abc", domain.Counts{Boards: 1, Lists: 2, Cards: 3, Records: 4, Moves: 5})
	n.Notify(payload)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.ElementsMatch(t, []string{"/a", "/reload/imported"}, rec.paths)
	require.Len(t, rec.bodies, 2)
	assert.Equal(t, payload, rec.bodies[0])
	assert.Equal(t, 3, rec.bodies[1].Cards)
}

func TestNotifier_ManyTargets(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	var urls []string
	for _, p := range []string{"/1", "/2", "/3", "/4", "/5", "/6", "/7"} {
		urls = append(urls, srv.URL+p)
	}
	New(urls).Notify(NewPayload(EventMerged, "sha256:x", domain.Counts{}))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.paths, 7)
}

func TestNotifier_FailuresDoNotBlock(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer slow.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	start := time.Now()
	New([]string{slow.URL, failing.URL}).Notify(NewPayload(EventReplaced, "", domain.Counts{}))
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
}

func TestNotifier_NilAndEmpty(t *testing.T) {
	var n *Notifier
	n.Notify(Payload{})
	New(nil).Notify(Payload{})
}
