// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package decoder

import "fmt"

// InputError signals malformed hex, a truncated buffer, or an odd-length
// input string.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return fmt.Sprintf("decoder input error: %s", e.Reason) }

// SchemaError signals an unknown type/transform/mapping name, or a
// segment-size mismatch the registry could not resolve.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("decoder schema error: %s", e.Reason) }
