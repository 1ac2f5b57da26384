package domain

// Commit is the slice of commit metadata a notification needs: the full
// object id and the first line of the commit message.
type Commit struct {
	ID           string
	ShortMessage string
}

// ShortID returns the abbreviated object id. Ids shorter than n are
// returned as-is.
func (c Commit) ShortID(n int) string {
	if n <= 0 || n >= len(c.ID) {
		return c.ID
	}
	return c.ID[:n]
}
