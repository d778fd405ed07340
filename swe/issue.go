package swe

import (
	"errors"
	"strings"
)

// Issue is one bug report to fix.
type Issue struct {
	InstanceID string
	// RepoName is "owner/repo".
	RepoName    string
	Description string
	TestCommand string
	BaseCommit  string
}

// RepoShortName is the part of RepoName after the last slash.
func (i Issue) RepoShortName() string {
	if idx := strings.LastIndex(i.RepoName, "/"); idx >= 0 {
		return i.RepoName[idx+1:]
	}
	return i.RepoName
}

func (i Issue) Validate() error {
	var err error
	if strings.TrimSpace(i.RepoName) == "" || i.RepoShortName() == "" {
		err = errors.Join(err, errors.New("repo name is required"))
	}
	if strings.TrimSpace(i.Description) == "" {
		err = errors.Join(err, errors.New("issue description is required"))
	}
	return err
}
