package tagger

import "sync"

// Corpus counts, per stem, how many processed documents contained it. It
// only grows until Clear is called.
type Corpus struct {
	mu        sync.RWMutex
	docFreq   map[string]int
	totalDocs int
}

func newCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add records one document's distinct stems.
func (c *Corpus) Add(stems map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalDocs++
	for s := range stems {
		c.docFreq[s]++
	}
}

// snapshot returns the document count and the frequencies of stems under
// a single read lock.
func (c *Corpus) snapshot(stems map[string]int) (total int, freq map[string]int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	freq = make(map[string]int, len(stems))
	for s := range stems {
		freq[s] = c.docFreq[s]
	}
	return c.totalDocs, freq
}

// Size returns the document count and the number of distinct stems.
func (c *Corpus) Size() (docs, terms int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalDocs, len(c.docFreq)
}

// Clear forgets everything.
func (c *Corpus) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docFreq = make(map[string]int)
	c.totalDocs = 0
}
