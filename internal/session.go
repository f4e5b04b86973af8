package internal

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// ManagedLabelKey marks containers started by pgspawn. Its value names the
	// kind of resource, which is always "postgres".
	ManagedLabelKey = "pgspawn.managed"

	// SessionLabelKey carries the session identifier of the launch that started
	// the container.
	SessionLabelKey = "pgspawn.session"
)

type Session struct {
	id uuid.UUID
}

// GenerateSession creates a new session with a random identifier. The session
// is attached to every container it launches as a label so leaked containers
// can be traced back and pruned.
func GenerateSession() Session {
	return Session{id: uuid.New()}
}

// ParseSession parses a session identifier as printed by ID. The "pgspawn-"
// prefix may be omitted.
func ParseSession(value string) (Session, error) {
	id, err := uuid.Parse(strings.TrimPrefix(value, "pgspawn-"))
	if err != nil {
		return Session{}, fmt.Errorf("invalid session %q: %w\nUse an id such as pgspawn-%s", value, err, uuid.Nil)
	}
	return Session{id: id}, nil
}

// String returns the string representation of the session, equivalent to calling ID().
func (s Session) String() string {
	return s.ID()
}

// ID returns the session identifier in the format "pgspawn-<uuid>".
func (s Session) ID() string {
	return fmt.Sprintf("pgspawn-%s", s.id)
}

// Labels returns the container labels for this session.
func (s Session) Labels() map[string]string {
	return map[string]string{
		ManagedLabelKey: "postgres",
		SessionLabelKey: s.ID(),
	}
}
