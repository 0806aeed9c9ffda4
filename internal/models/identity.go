package models

// Identity is what the identity provider hands over after sign-in. An empty UserID
// means nobody is signed in.
type Identity struct {
	UserID   string `json:"uid"`
	Verified bool   `json:"verified"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (i Identity) SignedIn() bool {
	return i.UserID != ""
}

// DocumentRef addresses one per-user remote document.
type DocumentRef struct {
	UserID     string
	Collection string
}

func (r DocumentRef) String() string {
	return "users/" + r.UserID + "/" + r.Collection
}
