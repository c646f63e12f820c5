package store

// Registry is the command layer's view over both documents. It adds the one
// cross-document rule: removing a streamer also removes their custom message.
type Registry struct {
	Accounts *AccountStore
	Messages *MessageStore
}

// ListAccounts returns tracked streamers in insertion order.
func (r *Registry) ListAccounts() []string { return r.Accounts.List() }

// Tracked reports case-insensitive membership.
func (r *Registry) Tracked(name string) bool { return r.Accounts.Contains(name) }

// AddAccount adds a streamer to the tracked list.
func (r *Registry) AddAccount(name string) error { return r.Accounts.Add(name) }

// RemoveAccount removes a streamer and cascades to their custom message.
func (r *Registry) RemoveAccount(name string) error {
	if err := r.Accounts.Remove(name); err != nil {
		return err
	}
	return r.Messages.Delete(name)
}

// CustomMessage returns the go-live message override for a streamer.
func (r *Registry) CustomMessage(name string) (string, bool) { return r.Messages.Get(name) }

// SetCustomMessage stores a go-live message override.
func (r *Registry) SetCustomMessage(name, text string) error { return r.Messages.Set(name, text) }
