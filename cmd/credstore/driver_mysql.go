// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !no_mysql

package main

// MySQL and MariaDB support. Build with -tags no_mysql to leave the driver out.
import _ "github.com/holomush/credstore/internal/driver/mysqldriver"
