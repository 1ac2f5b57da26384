// Package services holds the routing, formatting and hook logic sitting
// between the push-acceptance path and the chat session.
package services

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkBuilder renders the web-view links embedded in notifications:
// summary, log, commit and compare views keyed by repository name and
// zero to two object ids.
type LinkBuilder struct {
	base string
}

func NewLinkBuilder(canonicalURL string) LinkBuilder {
	return LinkBuilder{base: strings.TrimRight(canonicalURL, "/")}
}

func (b LinkBuilder) Summary(repo string) string {
	return fmt.Sprintf("%s/summary?r=%s", b.base, url.QueryEscape(repo))
}

func (b LinkBuilder) Log(repo, ref string) string {
	return fmt.Sprintf("%s/log?r=%s&h=%s", b.base, url.QueryEscape(repo), url.QueryEscape(ref))
}

func (b LinkBuilder) Commit(repo, id string) string {
	return fmt.Sprintf("%s/commit?r=%s&h=%s", b.base, url.QueryEscape(repo), url.QueryEscape(id))
}

func (b LinkBuilder) Compare(repo, oldID, newID string) string {
	return fmt.Sprintf("%s/compare?r=%s&h=%s..%s", b.base, url.QueryEscape(repo), url.QueryEscape(oldID), url.QueryEscape(newID))
}
