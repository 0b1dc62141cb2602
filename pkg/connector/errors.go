package connector

import "fmt"

// NotFoundError reports a connector id absent from the registry.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Connector not found: %s", e.ID)
}
