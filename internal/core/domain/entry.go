package domain

// CheckEntry is a single account to check, tied to the file it came from.
type CheckEntry struct {
	Username string `json:"username"`
	File     string `json:"file"`
}

// Key identifies an entry for de-duplication in the retry queue.
func (e CheckEntry) Key() string {
	return e.Username + "|" + e.File
}
