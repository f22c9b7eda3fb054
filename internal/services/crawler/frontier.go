package crawler

import (
	"container/heap"
	"sync"

	"github.com/ternarybob/sideline/internal/models"
)

// Item is one frontier entry
type Item struct {
	URL      string
	Depth    int
	Score    float64
	Source   models.SiteSource
	Bonus    int
	Reseeded bool // True when the autonomous feedback loop enqueued it
}

type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

// Higher relevance first; ties go to the shallowest depth
func (h itemHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score > h[j].Score
	}
	return h[i].Depth < h[j].Depth
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Frontier is the shared priority queue of URLs to visit. The seen-set is
// check-and-insert atomic with the push, so a URL is enqueued at most
// once per cycle. Canonical URLs are the keys.
type Frontier struct {
	mu     sync.Mutex
	items  itemHeap
	seen   map[string]bool
	canon  func(string) string
	pushed int
}

// NewFrontier creates an empty frontier keyed by canon(url)
func NewFrontier(canon func(string) string) *Frontier {
	f := &Frontier{
		seen:  make(map[string]bool),
		canon: canon,
	}
	heap.Init(&f.items)
	return f
}

// Push enqueues an item unless its canonical URL was already seen.
// Returns true when the item was accepted.
func (f *Frontier) Push(item *Item) bool {
	key := f.canon(item.URL)
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	item.URL = key
	heap.Push(&f.items, item)
	f.pushed++
	return true
}

// ForcePush enqueues an item even if its URL was seen. The feedback loop
// uses this to re-seed admitted URLs; the caller guards re-seed frequency.
func (f *Frontier) ForcePush(item *Item) {
	key := f.canon(item.URL)
	if key == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seen[key] = true
	item.URL = key
	heap.Push(&f.items, item)
	f.pushed++
}

// Pop removes the best item, or returns nil when the frontier is empty
func (f *Frontier) Pop() *Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.items.Len() == 0 {
		return nil
	}
	return heap.Pop(&f.items).(*Item)
}

// Seen reports whether a URL was ever enqueued this cycle
func (f *Frontier) Seen(url string) bool {
	key := f.canon(url)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key]
}

// Len returns the number of queued items
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items.Len()
}

// Pushed returns the total number of accepted enqueues
func (f *Frontier) Pushed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushed
}
