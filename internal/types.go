package internal

// ContainerID is the opaque identity token the container runtime prints for a
// started container.
type ContainerID string

// ImageName represents a Docker image name.
type ImageName string

// CommandLine is a single whitespace-separated command line. Tokens are taken
// as-is; there is no quoting or escaping.
type CommandLine string

// Command represents a program and its arguments to run against the database.
type Command []string

// Environment represents extra environment variables for the database container.
type Environment []string
