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
	"path"
	"strings"
)

// kernelSuffix is stripped from file names when deriving kernel names, so
// both "clip.go" and "clip_kernel.go" define "clip".
const kernelSuffix = "_kernel"

// Discover loads every kernel definition into a new registry.
//
// Description:
//
//	Marker sources (see IsMarker) are skipped. Every remaining source must
//	define both Setup and Process and must derive a name no other source
//	derives. The first malformed or colliding source aborts discovery and
//	no registry is returned, so no partial benchmark can run.
//
// Inputs:
//   - sources: Compiled-in kernel definitions.
//
// Outputs:
//   - *Registry: One entry per kernel source.
//   - error: *DiscoveryError describing the first bad source.
//
// Example:
//
//	registry, err := kernel.Discover(kernels.Sources())
//	if err != nil {
//	    return err // fatal, nothing is benchmarked
//	}
func Discover(sources []Source) (*Registry, error) {
	registry := NewRegistry()
	for _, src := range sources {
		if IsMarker(src.Origin) {
			continue
		}
		k, err := Define(src)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(k); err != nil {
			return nil, &DiscoveryError{Origin: src.Origin, Name: k.Name(), Err: err}
		}
	}
	return registry, nil
}

// Define validates a single source and turns it into a Kernel.
//
// Outputs:
//   - Kernel: Implements Runner too when src.Run is set.
//   - error: *DiscoveryError wrapping ErrInvalidName, ErrMissingSetup or
//     ErrMissingProcess.
func Define(src Source) (Kernel, error) {
	name := NameFromOrigin(src.Origin)
	if name == "" {
		return nil, &DiscoveryError{Origin: src.Origin, Err: ErrInvalidName}
	}
	if src.Setup == nil {
		return nil, &DiscoveryError{Origin: src.Origin, Name: name, Err: ErrMissingSetup}
	}
	if src.Process == nil {
		return nil, &DiscoveryError{Origin: src.Origin, Name: name, Err: ErrMissingProcess}
	}

	def := definition{name: name, setup: src.Setup, process: src.Process}
	if src.Run != nil {
		return &runnableDefinition{definition: def, run: src.Run}, nil
	}
	return &def, nil
}

// NameFromOrigin derives a kernel name from its defining file.
//
// "path/to/nested_loop.go" and "nested_loop_kernel.go" both yield
// "nested_loop". An empty or extensionless origin yields "".
func NameFromOrigin(origin string) string {
	base := path.Base(slashed(origin))
	if !strings.HasSuffix(base, ".go") {
		return ""
	}
	name := strings.TrimSuffix(base, ".go")
	name = strings.TrimSuffix(name, kernelSuffix)
	return name
}

// IsMarker reports whether origin is a non-kernel file in a kernel
// directory: doc.go, test files, and the file named after the package
// directory itself (e.g. kernels/kernels.go).
func IsMarker(origin string) bool {
	p := slashed(origin)
	base := path.Base(p)
	if base == "doc.go" || strings.HasSuffix(base, "_test.go") {
		return true
	}
	dir := path.Base(path.Dir(p))
	return dir != "." && dir != "/" && base == dir+".go"
}

// slashed normalizes Windows separators. runtime.Caller already reports
// forward slashes on every platform.
func slashed(origin string) string {
	return strings.ReplaceAll(origin, `\`, "/")
}
