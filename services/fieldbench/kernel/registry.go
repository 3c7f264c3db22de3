// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kernel

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps kernel names to kernels.
//
// Description:
//
//	Registry order is ascending by name. List and All both follow it, and
//	the benchmark suite measures kernels in that order.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]Kernel
}

// NewRegistry creates a new empty registry.
//
// Example:
//
//	registry := kernel.NewRegistry()
//	registry.MustRegister(myKernel)
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

// Register adds a kernel under its Name().
//
// Outputs:
//   - error: ErrNilKernel if k is nil, ErrInvalidName if the name is empty,
//     ErrAlreadyRegistered if the name is taken. Collisions are rejected,
//     never overwritten.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Register(k Kernel) error {
	if k == nil {
		return ErrNilKernel
	}
	name := k.Name()
	if name == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kernels[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.kernels[name] = k
	return nil
}

// MustRegister registers a kernel and panics on error.
//
// Should only be used during startup and in tests.
func (r *Registry) MustRegister(k Kernel) {
	if err := r.Register(k); err != nil {
		panic(fmt.Sprintf("kernel: failed to register: %v", err))
	}
}

// Get retrieves a kernel by name.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Get(name string) (Kernel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kernels[name]
	return k, ok
}

// Find is Get with an error suitable for returning to a user.
//
// Outputs:
//   - Kernel: The kernel.
//   - error: ErrNotFound wrapped with the requested name.
func (r *Registry) Find(name string) (Kernel, error) {
	k, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return k, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all registered names in registry order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered kernels in registry order.
func (r *Registry) All() []Kernel {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kernel, 0, len(names))
	for _, name := range names {
		if k, ok := r.kernels[name]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Count returns the number of registered kernels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kernels)
}
