// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merge

// Convert rewrites input into output, translating the records of every
// registered module to the module's current format version and compressing
// the output with opts.Compression. Segments of unregistered modules are
// dropped. Shared-record reduction is never applied. As with Merge, an input
// carrying the shutdown sentinel is refused and a failed conversion leaves
// no output behind.
func Convert(output, input string, opts *Options) (*Summary, error) {
	opts = opts.EnsureDefaults()
	s := &session{
		opts:    opts,
		output:  output,
		inputs:  []string{input},
		upgrade: true,
	}
	return s.run()
}
