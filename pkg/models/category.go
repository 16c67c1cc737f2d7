package models

// Category is a node of the catalog's category tree
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id"`
}

// IsRoot reports whether the category sits at the top of the tree
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}
