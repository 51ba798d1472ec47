// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !no_cockroach

package main

// CockroachDB support. Build with -tags no_cockroach to leave the driver out.
import _ "github.com/holomush/credstore/internal/driver/pqdriver"
