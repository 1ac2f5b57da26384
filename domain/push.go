package domain

// Push is everything the relay learns from one post-receive invocation:
// who pushed, where, and the list of ref mutations.
type Push struct {
	// Actor is the display name of the pushing user.
	Actor      string
	Repository Repository
	Commands   []RefUpdate
}
