package menu

// QueryMenuModel represents filter parameters for querying menu items.
// Categories matches items sharing at least one category with the filter.
type QueryMenuModel struct {
	MenuIDs    []string `json:"menuIds,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// ByID indexes items by menu id.
func ByID(items []MenuItem) map[string]MenuItem {
	index := make(map[string]MenuItem, len(items))
	for _, item := range items {
		index[item.MenuID] = item
	}

	return index
}
