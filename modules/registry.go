// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package modules

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/iolog/internal/base"
)

// Registry maps module identifiers to the modules that handle them. Segments
// of modules that are not registered are ignored by consumers of the
// registry.
type Registry struct {
	mods [base.MaxModules]Module
}

// NewRegistry returns a registry holding the given modules.
func NewRegistry(mods ...Module) (*Registry, error) {
	r := &Registry{}
	for _, m := range mods {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry holding the POSIX, MPI-IO and STDIO
// modules.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(POSIX, MPIIO, STDIO)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a module to the registry.
func (r *Registry) Register(m Module) error {
	id := m.ID()
	if id >= base.MaxModules {
		return errors.Newf("module %s: identifier %s out of range", m.Name(), id)
	}
	if existing := r.mods[id]; existing != nil {
		return errors.Newf("module %s: identifier %s already registered to %s", m.Name(), id, existing.Name())
	}
	r.mods[id] = m
	return nil
}

// Lookup returns the module registered for id.
func (r *Registry) Lookup(id base.ModuleID) (Module, bool) {
	if id >= base.MaxModules {
		return nil, false
	}
	m := r.mods[id]
	return m, m != nil
}

// Modules returns the registered modules in increasing identifier order.
func (r *Registry) Modules() []Module {
	var mods []Module
	for _, m := range r.mods {
		if m != nil {
			mods = append(mods, m)
		}
	}
	return mods
}

// Subset returns a registry holding the named modules of r. Names are
// matched case-insensitively.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := &Registry{}
	for _, name := range names {
		var found Module
		for _, m := range r.mods {
			if m != nil && strings.EqualFold(m.Name(), name) {
				found = m
				break
			}
		}
		if found == nil {
			return nil, errors.Newf("unknown module %q", name)
		}
		if err := sub.Register(found); err != nil {
			return nil, err
		}
	}
	return sub, nil
}
