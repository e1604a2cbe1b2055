package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

var knownNames = map[int]string{
	1:  "Luke Skywalker",
	2:  "C-3PO",
	3:  "R2-D2",
	4:  "Darth Vader",
	5:  "Leia Organa",
	10: "Obi-Wan Kenobi",
	20: "Yoda",
}

// Dataset emulates the remote character API over a sparse ID space.
type Dataset struct {
	Server *httptest.Server

	mu      sync.Mutex
	max     int
	absent  map[int]bool
	down    atomic.Bool
	hits    atomic.Int64
	allHits atomic.Int64
}

// NewDataset starts a fake dataset serving ids 1..max except absent.
func NewDataset(t *testing.T, max int, absent ...int) *Dataset {
	t.Helper()
	d := &Dataset{max: max, absent: map[int]bool{}}
	for _, id := range absent {
		d.absent[id] = true
	}
	d.Server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.Server.Close)
	return d
}

// URL is the base URL to configure the dataset client with.
func (d *Dataset) URL() string {
	return d.Server.URL + "/api"
}

// SetAbsent marks ids as missing.
func (d *Dataset) SetAbsent(ids ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.absent[id] = true
	}
}

// SetDown makes every request fail with 503.
func (d *Dataset) SetDown(down bool) {
	d.down.Store(down)
}

// Hits counts per-id requests.
func (d *Dataset) Hits() int64 {
	return d.hits.Load()
}

// CollectionHits counts whole-collection requests.
func (d *Dataset) CollectionHits() int64 {
	return d.allHits.Load()
}

// Name returns the name served for id.
func Name(id int) string {
	if name, ok := knownNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Character %d", id)
}

func (d *Dataset) serve(w http.ResponseWriter, r *http.Request) {
	if d.down.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case path == "/all.json":
		d.allHits.Add(1)
		d.writeJSON(w, d.all())
	case strings.HasPrefix(path, "/id/") && strings.HasSuffix(path, ".json"):
		d.hits.Add(1)
		id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(path, "/id/"), ".json"))
		if err != nil || !d.present(id) {
			http.NotFound(w, r)
			return
		}
		d.writeJSON(w, record(id))
	default:
		http.NotFound(w, r)
	}
}

func (d *Dataset) present(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return id >= 1 && id <= d.max && !d.absent[id]
}

func (d *Dataset) all() []map[string]any {
	out := []map[string]any{}
	for id := 1; id <= d.max; id++ {
		if d.present(id) {
			out = append(out, record(id))
		}
	}
	return out
}

func record(id int) map[string]any {
	return map[string]any{
		"id":        id,
		"name":      Name(id),
		"height":    1.5 + float64(id)/100,
		"homeworld": "tatooine",
		"species":   "human",
		"image":     fmt.Sprintf("https://example.invalid/%d.jpg", id),
		"eyeColor":  "blue",
	}
}

func (d *Dataset) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
