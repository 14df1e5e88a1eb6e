package presence

// Entry records one online user: which connection they hold and which
// conversation they currently have open, if any.
type Entry struct {
	UserID         string
	ClientID       string
	ActiveChatPeer string
}

// Table is the in-memory presence map, keyed by user ID. It holds at most
// one entry per user. Table does no locking; the Service guards access.
type Table struct {
	entries map[string]Entry
}

// NewTable creates an empty presence table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Put stores an entry, replacing any previous entry for the same user.
func (t *Table) Put(e Entry) {
	t.entries[e.UserID] = e
}

// Get returns the entry for a user.
func (t *Table) Get(userID string) (Entry, bool) {
	e, ok := t.entries[userID]
	return e, ok
}

// Remove deletes the entry for a user. Removing an absent user is a no-op.
func (t *Table) Remove(userID string) {
	delete(t.entries, userID)
}

// SetActiveChatPeer updates the open conversation for a user. Returns false
// when the user is not in the table.
func (t *Table) SetActiveChatPeer(userID, peerID string) bool {
	e, ok := t.entries[userID]
	if !ok {
		return false
	}
	e.ActiveChatPeer = peerID
	t.entries[userID] = e
	return true
}

// Users returns the IDs of all users in the table.
func (t *Table) Users() []string {
	result := make([]string, 0, len(t.entries))
	for userID := range t.entries {
		result = append(result, userID)
	}
	return result
}

// Len returns the number of online users.
func (t *Table) Len() int {
	return len(t.entries)
}
