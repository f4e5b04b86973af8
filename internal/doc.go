// Package internal contains shared types and utilities for pgspawn.
//
// It provides configuration parsing, session labels, cleanup orchestration,
// and the Writer used as the diagnostic channel by the command, postgres and
// docker packages.
package internal
