// Package notify tells interested processes that the stored dataset changed.
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lherron/pomokan/internal/domain"
)

const (
	defaultTimeout     = 500 * time.Millisecond
	defaultConcurrency = 4
)

// Event names
const (
	EventImported = "imported"
	EventReplaced = "replaced"
	EventMerged   = "merged"
)

// Payload is the reload notification body.
type Payload struct {
	Event       string `json:"event"`
	SnapshotRev string `json:"snapshot_rev"`
	Boards      int    `json:"boards"`
	Lists       int    `json:"lists"`
	Cards       int    `json:"cards"`
	Records     int    `json:"records"`
	Moves       int    `json:"moves"`
}

// NewPayload builds a payload from the counts of the committed dataset.
func NewPayload(event, snapshotRev string, counts domain.Counts) Payload {
	return Payload{
		Event:       event,
		SnapshotRev: snapshotRev,
		Boards:      counts.Boards,
		Lists:       counts.Lists,
		Cards:       counts.Cards,
		Records:     counts.Records,
		Moves:       counts.Moves,
	}
}

// Notifier posts reload payloads to a fixed set of URLs.
type Notifier struct {
	urls    []string
	client  *http.Client
	workers int
}

// New returns a notifier for the given raw URLs. Blank, invalid and duplicate
// entries are dropped.
func New(rawURLs []string) *Notifier {
	return &Notifier{
		urls:    NormalizeURLs(rawURLs),
		client:  &http.Client{Timeout: defaultTimeout},
		workers: defaultConcurrency,
	}
}

// Targets returns the normalized destination URLs.
func (n *Notifier) Targets() []string {
	return n.urls
}

// Notify posts payload to every target and waits for all requests to finish.
// Failures are logged, never returned.
func (n *Notifier) Notify(payload Payload) {
	if n == nil || len(n.urls) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to encode payload: %v", err)
		return
	}

	targets := make([]string, 0, len(n.urls))
	for _, u := range n.urls {
		targets = append(targets, applyTemplate(u, payload))
	}

	workers := n.workers
	if len(targets) < workers {
		workers = len(targets)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for endpoint := range jobs {
				n.send(endpoint, body)
			}
		}()
	}

	for _, endpoint := range targets {
		jobs <- endpoint
	}
	close(jobs)
	wg.Wait()
}

// NormalizeURLs trims, validates and de-dupes webhook URLs, keeping first
// occurrence order.
func NormalizeURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(urls))
	var normalized []string

	for _, raw := range urls {
		trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
		if trimmed == "" {
			continue
		}
		if !isValidURL(trimmed) {
			log.Printf("notify: skipping invalid url %q", trimmed)
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}

	return normalized
}

// applyTemplate substitutes {event} in a target URL.
func applyTemplate(raw string, payload Payload) string {
	return strings.ReplaceAll(raw, "{event}", url.PathEscape(payload.Event))
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

func (n *Notifier) send(endpoint string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: build request %q failed: %v", endpoint, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("notify: request to %q failed: %v", endpoint, err)
		return
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("notify: %q responded %s", endpoint, resp.Status)
	}
}
