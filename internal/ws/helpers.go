package ws

import "github.com/google/uuid"

// newConnID labels a connection for log and trace correlation.
func newConnID() string {
	return uuid.NewString()
}
