// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/credstore/internal/credential"
	"github.com/holomush/credstore/pkg/errutil"
)

func TestPlayerCommands_Lifecycle(t *testing.T) {
	db := testDB(t)
	player := func(args ...string) (string, error) {
		return run(t, append(append([]string{}, db...), append([]string{"player"}, args...)...)...)
	}

	out, err := player("register", "Steve", "hunter22", "--ip", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Registered Steve ("+credential.OfflineUUID("Steve").String()+")\n", out)

	out, err = player("info", "steve")
	require.NoError(t, err)
	assert.Contains(t, out, "Nickname:")
	assert.Contains(t, out, "Steve")
	assert.Contains(t, out, "10.0.0.1")
	assert.NotContains(t, out, "$2a$", "hash must not be printed")

	out, err = player("check", "STEVE", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Password matches\n", out)

	_, err = player("passwd", "steve", "correct-horse", "--old", "wrong")
	errutil.AssertErrorCode(t, err, "ACCOUNT_WRONG_PASSWORD")

	_, err = player("passwd", "steve", "correct-horse", "--old", "hunter22")
	require.NoError(t, err)

	_, err = player("check", "steve", "hunter22")
	errutil.AssertErrorCode(t, err, "ACCOUNT_WRONG_PASSWORD")

	_, err = player("passwd", "steve", "battery-staple", "--force")
	require.NoError(t, err)
	_, err = player("check", "steve", "battery-staple")
	require.NoError(t, err)

	_, err = player("login", "steve", "10.0.0.9")
	require.NoError(t, err)

	out, err = player("by-ip", "10.0.0.1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "NICKNAME"))
	assert.True(t, strings.HasPrefix(lines[1], "Steve"))

	out, err = player("totp", "steve", "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.Equal(t, "TOTP enabled for steve\n", out)

	out, err = player("info", "steve", "--json")
	require.NoError(t, err)
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Steve", view["nickname"])
	assert.Equal(t, true, view["has_password"])
	assert.Equal(t, true, view["totp_enabled"])
	assert.Equal(t, "10.0.0.9", view["last_login_ip"])
	assert.NotContains(t, out, "JBSWY3DPEHPK3PXP", "secret must not be printed")

	_, err = player("totp", "steve", "--clear")
	require.NoError(t, err)

	out, err = run(t, append(append([]string{}, db...), "count")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = player("unregister", "steve")
	require.NoError(t, err)
	assert.Equal(t, "Unregistered steve\n", out)

	_, err = player("info", "steve")
	errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_REGISTERED")
}

func TestPlayerRegister_Taken(t *testing.T) {
	db := testDB(t)
	_, err := run(t, append(append([]string{}, db...), "player", "register", "Alex", "pw1")...)
	require.NoError(t, err)

	_, err = run(t, append(append([]string{}, db...), "player", "register", "ALEX", "pw2")...)
	errutil.AssertErrorCode(t, err, "ACCOUNT_NICKNAME_TAKEN")
}

func TestPlayerRegister_InvalidNickname(t *testing.T) {
	_, err := run(t, append(testDB(t), "player", "register", "", "pw")...)
	require.Error(t, err)
}

func TestPlayerByUUID_Empty(t *testing.T) {
	out, err := run(t, append(testDB(t), "player", "by-uuid", "0d5c8b2e-0000-4000-8000-000000000000", "--json")...)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestPlayerTOTP_Arguments(t *testing.T) {
	db := testDB(t)
	for _, args := range [][]string{
		{"player", "totp", "steve"},
		{"player", "totp", "steve", "SECRET", "--clear"},
	} {
		_, err := run(t, append(append([]string{}, db...), args...)...)
		errutil.AssertErrorCode(t, err, "INVALID_ARGUMENTS")
	}
}

func TestPlayerView_OmitsUnsetTimes(t *testing.T) {
	v := newPlayerView(credential.Record{Nickname: "Notch", LowercaseNickname: "notch"})
	assert.False(t, v.HasPassword)
	assert.True(t, v.RegisteredAt.IsZero())
	assert.True(t, v.LastLoginAt.IsZero())
	assert.Equal(t, "-", formatTime(v.LastLoginAt))
	assert.Equal(t, "-", orDash(""))
}
