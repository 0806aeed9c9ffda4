package models

// FavoriteEntry is a saved item configuration. ItemID is the key: there is at most one
// entry per item.
type FavoriteEntry struct {
	ItemID     string           `json:"id"`
	Name       string           `json:"name"`
	ImageRef   string           `json:"img,omitempty"`
	Selections []GroupSelection `json:"selections,omitempty"`
}

func (f FavoriteEntry) Clone() FavoriteEntry {
	c := f
	if f.Selections != nil {
		c.Selections = make([]GroupSelection, len(f.Selections))
		for i, s := range f.Selections {
			c.Selections[i] = GroupSelection{GroupID: s.GroupID, OptionIDs: cloneStrings(s.OptionIDs)}
		}
	}
	return c
}
