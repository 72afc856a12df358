package app

import (
	"sort"
	"sync"
	"time"
)

// closeTimeout bounds how long Close waits for watchers to return.
const closeTimeout = 10 * time.Second

// background runs the workspace's long-lived goroutines under a name so a
// stuck one can be reported when the workspace closes.
type background struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]int
	stopped bool
}

func newBackground() *background {
	return &background{running: make(map[string]int)}
}

// start runs fn unless the workspace is closing.
func (b *background) start(name string, fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	b.running[name]++
	b.wg.Add(1)
	go func() {
		defer b.finish(name)
		fn()
	}()
	return true
}

func (b *background) finish(name string) {
	b.mu.Lock()
	if b.running[name]--; b.running[name] <= 0 {
		delete(b.running, name)
	}
	b.mu.Unlock()
	b.wg.Done()
}

// stop refuses new work and waits up to timeout. It returns the names of
// the goroutines still running.
func (b *background) stop(timeout time.Duration) []string {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.running))
	for name := range b.running {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
