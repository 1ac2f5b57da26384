package domain

import "strings"

// Repository identifies the repository a push targets.
type Repository struct {
	// Name is the server-side repository name, possibly carrying a
	// trailing ".git".
	Name string
	// Personal marks a user-owned repository. Personal repositories are
	// not posted unless explicitly enabled.
	Personal bool
}

// DisplayName is the repository name with any trailing ".git" stripped.
func (r Repository) DisplayName() string {
	return StripDotGit(r.Name)
}

// StripDotGit removes one trailing ".git" suffix from a repository name.
func StripDotGit(name string) string {
	return strings.TrimSuffix(name, ".git")
}
