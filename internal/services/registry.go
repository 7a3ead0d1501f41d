package services

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Registry manages named health checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry creates a new service registry. Each check is bounded by
// timeout; zero means no extra bound beyond the caller's context.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Unregister removes a checker from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// List returns all registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll pings every registered service concurrently. The result is
// sorted by name and ok is false if any check failed.
func (r *Registry) CheckAll(ctx context.Context) (statuses []Status, ok bool) {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	statuses = make([]Status, 0, len(checkers))
	for name, c := range checkers {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			st := Status{Name: name, Healthy: true}
			if err := c.Ping(ctx); err != nil {
				st.Healthy = false
				st.Error = err.Error()
			}
			mu.Lock()
			statuses = append(statuses, st)
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	ok = true
	for _, st := range statuses {
		ok = ok && st.Healthy
	}
	return statuses, ok
}
