package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InvokeFunc runs a handler's algorithm against a decoded request payload
// and returns the raw response payload to persist. The caller (cmd/worker)
// is responsible for timing the call and for encoding/decoding at the
// Container boundary; InvokeFunc itself only transforms bytes to bytes.
type InvokeFunc func(ctx context.Context, request []byte) ([]byte, error)

// Descriptor names one registered handler: its required input fields, the
// shape of the response it produces, and the function that runs it. Both
// RequiredFields and ResultShape exist purely for the AVAILABLE_HANDLERS
// reply; they are not validated against the request bytes by this package.
type Descriptor struct {
	Name           string
	RequiredFields []string
	ResultShape    string
	Invoke         InvokeFunc
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Descriptor)
)

// Register adds a descriptor to the process-wide registry. It panics on a
// duplicate name: all registration happens from init functions, so a
// duplicate is a programming error discovered at startup, not a runtime
// condition callers should have to check for.
func Register(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[d.Name]; exists {
		panic(fmt.Sprintf("handler: second registration of handler %q attempted", d.Name))
	}
	registry[d.Name] = d
}

// Get looks up a handler by name. The boolean result reports whether it was
// found; callers treat a miss as apperr.InvalidRequest at the dispatch site.
func Get(name string) (Descriptor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// List returns every registered descriptor, sorted by name, for the
// AVAILABLE_HANDLERS reply.
func List() []Descriptor {
	mu.RLock()
	defer mu.RUnlock()
	ret := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		ret = append(ret, d)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}
