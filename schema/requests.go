package schema

// Tab lifecycle.

// AddTabRequest describes a tab to append to the collection.
type AddTabRequest struct {
	Name     TabName
	Language Language
	Content  string
}

// AddTabResponse reports the created tab.
type AddTabResponse struct {
	Tab Tab
}

// RemoveTabRequest describes a tab to remove.
type RemoveTabRequest struct {
	TabID TabID
}

// RemoveTabResponse reports whether a tab was removed and the resulting active tab.
type RemoveTabResponse struct {
	Removed   bool
	ActiveTab TabID
}

// SelectTabRequest describes a tab to activate.
type SelectTabRequest struct {
	TabID TabID
}

// UpdateTabRequest updates any subset of a tab's fields. Nil fields are left alone.
type UpdateTabRequest struct {
	TabID    TabID
	Name     *TabName
	Language *Language
	Content  *string
}

// UpdateTabResponse reports the updated tab when it exists.
type UpdateTabResponse struct {
	Tab     Tab
	Updated bool
}

// Snapshot exchange.

// ImportTabsResponse reports the collection installed by an import.
type ImportTabsResponse struct {
	Imported  int
	ActiveTab TabID
}
