package queue

// Queue holds detail-page URLs in discovery order and refuses duplicates.
// It is owned by a single goroutine.
type Queue struct {
	urls []string
	seen map[string]bool
}

// New creates a new Queue instance
func New() *Queue {
	return &Queue{
		urls: make([]string, 0),
		seen: make(map[string]bool),
	}
}

// Add appends a URL unless it was added before
func (q *Queue) Add(url string) bool {
	if q.seen[url] {
		return false
	}
	q.seen[url] = true
	q.urls = append(q.urls, url)
	return true
}

// Contains reports whether a URL was already added
func (q *Queue) Contains(url string) bool {
	return q.seen[url]
}

// Filter keeps only the URLs for which keep returns true
func (q *Queue) Filter(keep func(string) bool) {
	kept := q.urls[:0]
	for _, u := range q.urls {
		if keep(u) {
			kept = append(kept, u)
		}
	}
	q.urls = kept
}

// Truncate keeps the first n URLs; n <= 0 keeps everything
func (q *Queue) Truncate(n int) {
	if n > 0 && len(q.urls) > n {
		q.urls = q.urls[:n]
	}
}

// Items returns a copy of the queued URLs
func (q *Queue) Items() []string {
	out := make([]string, len(q.urls))
	copy(out, q.urls)
	return out
}

// Len returns the current length of the queue
func (q *Queue) Len() int {
	return len(q.urls)
}
