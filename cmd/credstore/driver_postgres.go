// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !no_postgres

package main

// PostgreSQL support. Build with -tags no_postgres to leave the driver out.
import _ "github.com/holomush/credstore/internal/driver/pgxdriver"
