// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import (
	"fmt"
	"strings"
)

// ErrRoleNotAllowed is returned by CheckRole when the caller's roles
// don't include any of the allowed set.
type ErrRoleNotAllowed struct {
	Allowed []string
}

func (e *ErrRoleNotAllowed) Error() string {
	return fmt.Sprintf("bridgesvc: caller role not in allowed set %v", e.Allowed)
}

// CheckRole inspects the X-User-Roles header value (a comma-separated
// list, as the external admin surface sends it) and returns an error
// unless at least one role is a member of allowed. This is the only
// boundary this component has with the out-of-scope admin/auth
// collaborator (§4.11): it never issues or validates tokens itself.
func CheckRole(header string, allowed ...string) error {
	if header == "" {
		return &ErrRoleNotAllowed{Allowed: allowed}
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}

	for _, role := range strings.Split(header, ",") {
		if allowedSet[strings.TrimSpace(role)] {
			return nil
		}
	}
	return &ErrRoleNotAllowed{Allowed: allowed}
}
