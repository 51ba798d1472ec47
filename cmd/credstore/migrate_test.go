// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/credstore/pkg/errutil"
)

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
		wantErrCode string
	}{
		{
			name:        "valid integer",
			input:       "3",
			wantVersion: 3,
		},
		{
			name:        "zero is valid",
			input:       "0",
			wantVersion: 0,
		},
		{
			name:        "non-numeric returns error",
			input:       "abc",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "float parses as integer (Sscanf stops at dot)",
			input:       "1.5",
			wantVersion: 1,
		},
		{
			name:        "negative parses; Force rejects it",
			input:       "-1",
			wantVersion: -1,
		},
		{
			name:        "empty string returns error",
			input:       "",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "whitespace only returns error",
			input:       "   ",
			wantErr:     true,
			wantErrCode: "INVALID_VERSION",
		},
		{
			name:        "leading whitespace is handled",
			input:       "  2",
			wantVersion: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseForceVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, v)
		})
	}
}

func TestMigrateCommands_SQLite(t *testing.T) {
	db := testDB(t)
	migrate := func(args ...string) (string, error) {
		return run(t, append(append([]string{}, db...), append([]string{"migrate"}, args...)...)...)
	}

	out, err := migrate("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 0")
	assert.Contains(t, out, "Pending: 2")

	out, err = migrate("up")
	require.NoError(t, err)
	assert.Contains(t, out, "Applying 2 migration(s)...")
	assert.Contains(t, out, "Migrations completed successfully")

	out, err = migrate("up")
	require.NoError(t, err)
	assert.Equal(t, "No pending migrations\n", out)

	out, err = migrate("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 2")
	assert.Contains(t, out, "Dirty: false")

	_, err = migrate("down")
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")

	_, err = migrate("down", "--yes", "--steps", "0")
	errutil.AssertErrorCode(t, err, "INVALID_STEPS")

	_, err = migrate("down", "--yes", "--steps", "1")
	require.NoError(t, err)
	out, err = migrate("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 1")

	out, err = migrate("force", "2")
	require.NoError(t, err)
	assert.Equal(t, "Forced version 2\n", out)

	_, err = migrate("force", "abc")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")

	_, err = migrate("down", "--yes")
	require.NoError(t, err)
	out, err = migrate("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 0")

	// -1 is the nil version; "--" keeps cobra from reading it as a flag.
	out, err = migrate("force", "--", "-1")
	require.NoError(t, err)
	assert.Equal(t, "Forced version -1\n", out)
	out, err = migrate("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 0")
	assert.Contains(t, out, "Dirty: false")
}
