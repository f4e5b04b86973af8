// Package command runs external programs on behalf of pgspawn.
//
// The Gateway executes a single whitespace-tokenized command line, discards the
// program's error stream and returns its standard output as trimmed text. It
// is the only place pgspawn talks to the container runtime CLI.
package command
