//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies the machine and account raising an alert.
type Actor struct {
	// Hostname is the machine name, used as the default room.
	Hostname string
	// Username is the logged-in account, used as the default teacher.
	Username string
}

// DetectActor gathers host and user information used as alert defaults.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	username := currentUser.Name
	if username == "" {
		username = currentUser.Username
	}

	return &Actor{
		Hostname: hostname,
		Username: username,
	}, nil
}
