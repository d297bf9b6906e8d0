// Package registry maps asset names to submission capabilities.
//
// The registry is filled once at startup and frozen. It does no business
// logic: what a capability does (stub, native transfer, contract transfer)
// is up to the capability.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicateAsset = errors.New("asset already registered")
	ErrFrozen         = errors.New("registry is frozen")
	ErrMissingField   = errors.New("missing 'name' or 'receiver' field")
)

// Capability submits the mint of an asset to a receiver and returns the tx hash.
// It must fail instead of returning an empty hash.
type Capability interface {
	Submit(ctx context.Context, name string, receiver string) (string, error)
}

// SubmitFunc adapts a plain function to Capability.
type SubmitFunc func(ctx context.Context, name string, receiver string) (string, error)

func (f SubmitFunc) Submit(ctx context.Context, name string, receiver string) (string, error) {
	return f(ctx, name, receiver)
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Capability
	frozen   bool
}

func New() *Registry {
	return &Registry{handlers: make(map[string]Capability)}
}

func (r *Registry) Register(name string, c Capability) error {
	if name == "" || c == nil {
		return fmt.Errorf("cannot register asset %q without a capability", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAsset, name)
	}
	r.handlers[name] = c
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Lookup(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.handlers[name]
	return c, ok
}

// Names returns the registered asset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
