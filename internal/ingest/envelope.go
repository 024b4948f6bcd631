package ingest

// Envelope is the webhook delivery body the Cloud API posts: entries of
// changes tagged by field, with inbound messages under field "messages".
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	Messages []InboundMessage `json:"messages"`
	Statuses []Status         `json:"statuses"`
}

type InboundMessage struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	Text     *Text  `json:"text"`
	Image    *Media `json:"image"`
	Video    *Media `json:"video"`
	Document *Media `json:"document"`
}

type Text struct {
	Body string `json:"body"`
}

type Media struct {
	Link string `json:"link"`
}

// Status carries delivery-state callbacks. They are observed for logging and
// metrics only; nothing is persisted for them.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// media returns the attachment link and type, checking image, then video,
// then document. The external format carries at most one per message.
func (m InboundMessage) media() (link, mediaType string) {
	switch {
	case m.Image != nil:
		return m.Image.Link, "image"
	case m.Video != nil:
		return m.Video.Link, "video"
	case m.Document != nil:
		return m.Document.Link, "document"
	}
	return "", ""
}

func (m InboundMessage) body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}
