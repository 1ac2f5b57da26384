package services

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"jabber-relay/domain"
	"jabber-relay/internal"
)

const xhtmlBodyOpen = `<body xmlns="http://www.w3.org/1999/xhtml">`

// MessageBuilder turns ref-update events into chat messages. All methods
// are pure: they read only the event, the push context and the injected
// truncation parameters. User-controlled strings (actor, commit messages,
// ref and repository names) are HTML-escaped before entering the rich
// body so a commit message cannot inject markup.
type MessageBuilder struct {
	links       LinkBuilder
	shortIDLen  int
	maxCommits  int
	maxShortLog int
}

func NewMessageBuilder(cfg internal.Config) MessageBuilder {
	return MessageBuilder{
		links:       NewLinkBuilder(cfg.CanonicalURL),
		shortIDLen:  cfg.ShortIDLength,
		maxCommits:  cfg.MaxCommitsShown,
		maxShortLog: cfg.MaxShortLogLength,
	}
}

// Create formats a branch or tag creation. Plain text only.
func (b MessageBuilder) Create(actor string, repo domain.Repository, cmd domain.RefUpdate) domain.Message {
	shortRef := cmd.ShortRef()
	body := fmt.Sprintf("%s has created %s %s %s in %s %s",
		actor, cmd.Kind(), b.links.Log(repo.Name, shortRef), shortRef,
		b.links.Summary(repo.Name), repo.DisplayName())
	return domain.Text(body)
}

// Delete formats a branch or tag deletion. Plain text only; the ref is
// gone, so no link targets it.
func (b MessageBuilder) Delete(actor string, repo domain.Repository, cmd domain.RefUpdate) domain.Message {
	body := fmt.Sprintf("%s has deleted %s %s from %s %s",
		actor, cmd.Kind(), cmd.ShortRef(), b.links.Summary(repo.Name), repo.DisplayName())
	return domain.Text(body)
}

// Update formats a branch or tag update as plain text plus an XHTML
// alternate. Fast-forward branch updates enumerate the pushed commits,
// capped at the configured maximum with a trailing compare link. A
// non-fast-forward update is labelled REWRITTEN and lists nothing: after
// a rewrite the old tip may no longer be an ancestor, so enumeration is
// meaningless. A tag move links the commit view of the new tip instead of
// the log view.
func (b MessageBuilder) Update(actor string, repo domain.Repository, cmd domain.RefUpdate, commits []domain.Commit, fastForward bool) domain.Message {
	shortRef := cmd.ShortRef()
	repoURL := b.links.Summary(repo.Name)

	var action, refURL string
	var listed []domain.Commit
	if cmd.Kind() == domain.RefTag {
		action = "MOVED tag"
		refURL = b.links.Commit(repo.Name, shortRef)
	} else {
		refURL = b.links.Log(repo.Name, shortRef)
		switch {
		case !fastForward:
			action = "REWRITTEN"
		case len(commits) == 1:
			action = "pushed 1 commit to"
			listed = commits
		default:
			action = fmt.Sprintf("pushed %d commits to", len(commits))
			listed = commits
		}
	}

	var plain, rich strings.Builder
	rich.WriteString(xhtmlBodyOpen)

	plain.WriteString(fmt.Sprintf("%s has %s %s %s in %s %s",
		actor, action, refURL, shortRef, repoURL, repo.DisplayName()))
	rich.WriteString(fmt.Sprintf(`<b>%s</b> has %s <a href="%s">%s</a> in <a href="%s">%s</a>`,
		html.EscapeString(actor), action, html.EscapeString(refURL), html.EscapeString(shortRef),
		html.EscapeString(repoURL), html.EscapeString(repo.DisplayName())))

	if len(listed) > 0 {
		shown := listed
		if len(shown) > b.maxCommits {
			shown = shown[:b.maxCommits]
		}

		plain.WriteString("\n")
		rich.WriteString("<br/><ol>")
		rows := lo.Map(shown, func(c domain.Commit, _ int) string {
			return fmt.Sprintf("%s %s %s\n",
				b.links.Commit(repo.Name, c.ID), c.ShortID(b.shortIDLen), trimShortLog(c.ShortMessage, b.maxShortLog))
		})
		plain.WriteString(strings.Join(rows, ""))
		for _, c := range shown {
			rich.WriteString(fmt.Sprintf("<li><a href=\"%s\">%s</a> %s</li>\n",
				html.EscapeString(b.links.Commit(repo.Name, c.ID)), c.ShortID(b.shortIDLen),
				html.EscapeString(trimShortLog(c.ShortMessage, b.maxShortLog))))
		}
		rich.WriteString("</ol>")

		if len(listed) > 1 {
			compareURL := b.links.Compare(repo.Name, cmd.OldID, cmd.NewID)
			compareText := b.compareText(len(listed))
			plain.WriteString(fmt.Sprintf("%s %s", compareURL, compareText))
			rich.WriteString(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(compareURL), compareText))
		}
	}

	rich.WriteString("</body>")
	return domain.Rich(plain.String(), rich.String())
}

// TestMessage is the literal message posted by the administrative test
// command.
func (b MessageBuilder) TestMessage() domain.Message {
	return domain.Text("Test message sent from jabber-relay")
}

func (b MessageBuilder) compareText(total int) string {
	if total > b.maxCommits {
		diff := total - b.maxCommits
		if diff == 1 {
			return "1 more commit"
		}
		return fmt.Sprintf("%d more commits", diff)
	}
	return fmt.Sprintf("view comparison of these %d commits", total)
}

// trimShortLog truncates a commit message first line, marking the cut
// with an ellipsis. The cut never splits a multi-byte character: the
// bodies end up inside XML stanzas, where invalid UTF-8 is fatal to the
// stream.
func trimShortLog(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "..."
}
