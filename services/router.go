package services

import (
	"log/slog"

	"jabber-relay/domain"
	"jabber-relay/internal"
)

// RoomRouter decides which room a message targets and whether a
// repository's events are posted at all. Both decisions are pure lookups
// against the injected configuration; calling them twice yields the same
// answer.
type RoomRouter struct {
	log               *slog.Logger
	useProjectRooms   bool
	defaultRoom       string
	projectRooms      map[string]string
	postPersonalRepos bool
}

func NewRoomRouter(cfg internal.Config, log *slog.Logger) *RoomRouter {
	return &RoomRouter{
		log:               log,
		useProjectRooms:   cfg.UseProjectRooms,
		defaultRoom:       cfg.DefaultRoom,
		projectRooms:      cfg.ProjectRooms,
		postPersonalRepos: cfg.PostPersonalRepos,
	}
}

// ShallPost reports whether events for the repository are posted. Only a
// personal repository with personal-repo posting disabled is suppressed.
// Evaluated once per push, before any message is built.
func (r *RoomRouter) ShallPost(repo domain.Repository) bool {
	return !(repo.Personal && !r.postPersonalRepos)
}

// Route returns a copy of the message with its destination room set.
// With project rooms disabled the room is left empty and the session's
// default room applies at delivery time. With project rooms enabled the
// repository name, trailing ".git" stripped, keys a per-project override,
// falling back to the default room.
func (r *RoomRouter) Route(repo domain.Repository, msg domain.Message) domain.Message {
	if !r.useProjectRooms || repo.Name == "" {
		return msg
	}

	key := domain.StripDotGit(repo.Name)
	if room, ok := r.projectRooms[key]; ok && room != "" {
		r.log.Debug("Routing to project room", "repository", repo.Name, "room", room)
		return msg.WithRoom(room)
	}
	return msg.WithRoom(r.defaultRoom)
}
