package domain

// Category is a terminal classification bucket. Every category except the
// counter-only flags doubles as a destination folder name.
type Category string

const (
	CategoryInvalidUsername Category = "Invalid_Username"
	CategoryFailedLookup    Category = "Failed_Lookup"
	CategoryNoProfile       Category = "No_Profile"

	// Counter-only flags, never folders.
	CategoryUsernameChanged Category = "Username_Changed"
	CategoryCurrentlyOnline Category = "Currently_Online"

	// RankNone is the rank of a player with no purchased or assigned rank.
	RankNone Category = "None"
)

// IsFlag reports whether the category is counted but never used as a folder.
func (c Category) IsFlag() bool {
	return c == CategoryUsernameChanged || c == CategoryCurrentlyOnline
}

// IsError reports whether the category is an error bucket rather than a rank.
func (c Category) IsError() bool {
	switch c {
	case CategoryInvalidUsername, CategoryFailedLookup, CategoryNoProfile:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
