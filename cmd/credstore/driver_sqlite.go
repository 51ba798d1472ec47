// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !no_sqlite

package main

// SQLite support. Build with -tags no_sqlite to leave the driver out.
import _ "github.com/holomush/credstore/internal/driver/sqlitedriver"
