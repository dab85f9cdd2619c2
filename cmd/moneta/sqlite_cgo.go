//go:build cgo

package main

// Registers the "sqlite3" driver for data sources with driver: sqlite3.
import _ "github.com/mattn/go-sqlite3"
