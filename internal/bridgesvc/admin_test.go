// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package bridgesvc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckRoleAllowsMatchingRole(t *testing.T) {
	err := CheckRole("viewer, admin", "admin", "operator")
	require.NoError(t, err)
}

func TestCheckRoleRejectsMissingRole(t *testing.T) {
	err := CheckRole("viewer", "admin", "operator")
	require.Error(t, err)
	var target *ErrRoleNotAllowed
	require.ErrorAs(t, err, &target)
}

func TestCheckRoleRejectsEmptyHeader(t *testing.T) {
	err := CheckRole("", "admin")
	require.Error(t, err)
}
