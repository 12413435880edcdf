package order

// QueryOrdersModel represents filter parameters for querying orders
type QueryOrdersModel struct {
	Ids        []int64  `json:"ids,omitempty"`
	UserEmails []string `json:"userEmails,omitempty"`
	Statuses   []Status `json:"statuses,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}
