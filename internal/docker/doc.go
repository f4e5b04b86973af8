// Package docker gives pgspawn a read-mostly view of the Docker daemon API.
//
// Launching and tearing down databases goes through the runtime CLI (see
// package command). This package is for everything around that: checking
// whether a container still exists after teardown, and finding and removing
// containers that earlier runs leaked. The Client type is the main entry point.
package docker
