package delivery

import (
	"encoding/json"
	"time"

	"github.com/parishpush/internal/domain"
)

// Payload is the JSON envelope delivered to the browser service worker.
// Key names are consumed by the client and must not change.
type Payload struct {
	Notification NotificationBody `json:"notification"`
}

type NotificationBody struct {
	Title   string      `json:"title"`
	Body    string      `json:"body"`
	Icon    string      `json:"icon"`
	Badge   string      `json:"badge"`
	Image   string      `json:"image,omitempty"`
	Vibrate []int       `json:"vibrate"`
	Data    PayloadData `json:"data"`
}

// PayloadData carries the deep-link routing metadata.
type PayloadData struct {
	DateOfArrival int64  `json:"dateOfArrival"`
	PrimaryKey    int    `json:"primaryKey"`
	URL           string `json:"url,omitempty"`
	Type          string `json:"type,omitempty"`
	ParishID      string `json:"parishId,omitempty"`
}

// Encoder builds payloads with application-level default assets.
type Encoder struct {
	Icon  string
	Badge string
	now   func() time.Time
}

func NewEncoder(icon, badge string) *Encoder {
	return &Encoder{Icon: icon, Badge: badge, now: time.Now}
}

// Encode builds the envelope for rec. Only dateOfArrival varies between
// calls with identical input.
func (e *Encoder) Encode(rec domain.NotificationRecord, routingURL string) Payload {
	p := Payload{Notification: NotificationBody{
		Title:   rec.Title,
		Body:    rec.Message,
		Icon:    e.Icon,
		Badge:   e.Badge,
		Vibrate: []int{100, 50, 100},
		Data: PayloadData{
			DateOfArrival: e.now().UnixMilli(),
			PrimaryKey:    1,
			URL:           routingURL,
			Type:          string(rec.Type),
			ParishID:      rec.ParishID,
		},
	}}
	if rec.ImageURL != nil {
		p.Notification.Image = *rec.ImageURL
	}
	return p
}

// Marshal encodes rec straight to wire bytes.
func (e *Encoder) Marshal(rec domain.NotificationRecord, routingURL string) ([]byte, error) {
	return json.Marshal(e.Encode(rec, routingURL))
}
