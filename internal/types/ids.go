package types

import (
	"fmt"
	"strings"
)

// Graph IDs make every node unique within a project database. Entities use
// "{repository}:{branch}:{logicalID}"; the Repository node itself uses
// "{repository}:{branch}". Logical IDs may contain colons, so parsing takes
// the first two segments and re-joins the remainder.

// GraphID returns the three-segment node ID for an entity.
func GraphID(repository, branch, logicalID string) string {
	return repository + ":" + branch + ":" + logicalID
}

// RepositoryNodeID returns the two-segment node ID of a Repository.
func RepositoryNodeID(repository, branch string) string {
	return repository + ":" + branch
}

// ParseGraphID splits a three-segment graph ID back into its parts.
func ParseGraphID(id string) (repository, branch, logicalID string, err error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("malformed graph id: %q", id)
	}
	return parts[0], parts[1], parts[2], nil
}
