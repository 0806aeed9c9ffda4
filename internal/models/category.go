package models

// Category groups items on the menu. Inactive categories are hidden.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
	Active       bool   `json:"active"`
	Icon         string `json:"icon,omitempty"`
	GroupID      string `json:"groupId,omitempty"`
	GroupName    string `json:"groupName,omitempty"`
}

// CategoryDoc is the stored shape; display order and active are optional.
type CategoryDoc struct {
	Name         string `json:"name"`
	DisplayOrder *int   `json:"displayOrder,omitempty"`
	Active       *bool  `json:"active,omitempty"`
	Icon         string `json:"icon,omitempty"`
	GroupID      string `json:"groupId,omitempty"`
	GroupName    string `json:"groupName,omitempty"`
}

// ToCategory applies the defaults: last in display order, active.
func (d CategoryDoc) ToCategory(id string) Category {
	c := Category{
		ID:           id,
		Name:         d.Name,
		DisplayOrder: DefaultDisplayOrder,
		Active:       true,
		Icon:         d.Icon,
		GroupID:      d.GroupID,
		GroupName:    d.GroupName,
	}
	if d.DisplayOrder != nil {
		c.DisplayOrder = *d.DisplayOrder
	}
	if d.Active != nil {
		c.Active = *d.Active
	}
	return c
}

// PlaceholderCategory stands in for a category id that items reference but the
// catalog does not define.
func PlaceholderCategory(id string) Category {
	return Category{ID: id, Name: id, DisplayOrder: DefaultDisplayOrder, Active: true}
}
