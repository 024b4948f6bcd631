package store

// Order as persisted. ID is the external feed id for synced orders and an
// auto-assigned local id for placeholders created on inbound messages.
type Order struct {
	ID           int64  `json:"id"`
	Phone        string `json:"phone"`
	CustomerName string `json:"customerName"`
	OrderNumber  string `json:"orderNumber"`
	Date         string `json:"date"`
}

type Message struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"order_id"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Direction string `json:"direction"`
	Status    string `json:"status"`
	MediaURL  string `json:"media_url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Template struct {
	ID           int64  `json:"id"`
	TemplateName string `json:"template_name"`
	TemplateText string `json:"template_text"`
}

// OrderUpsert carries one normalized order into the store. ID 0 means
// "unassigned": the row is inserted with a NULL id so the engine assigns one.
type OrderUpsert struct {
	ID           int64
	Phone        string
	CustomerName string
	OrderNumber  string
	Date         string
}

type MessageInsert struct {
	OrderID   int64
	Phone     string
	Message   string
	Direction string
	Status    string
	MediaURL  string
	MediaType string
	CreatedAt string
}
