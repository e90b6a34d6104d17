package conversation

import "github.com/telbozor/api/internal/domain"

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent describes one change to the message store. For updates,
// Previous holds the record as it was before the change when known. For
// deletes, Message holds the removed record.
type ChangeEvent struct {
	Type     EventType
	Message  domain.Message
	Previous *domain.Message
}

// Directive tells one viewer what to pull again.
type Directive struct {
	ViewerID      string `json:"-"`
	Conversations bool   `json:"conversations"`
	Badge         bool   `json:"badge"`
	Threads       []Key  `json:"threads,omitempty"`
}

// Participants returns the distinct users touched by the event.
func Participants(ev ChangeEvent) []string {
	m := ev.Message
	if m.SenderID == m.ReceiverID {
		return []string{m.SenderID}
	}
	return []string{m.SenderID, m.ReceiverID}
}

// Decide returns the recompute directive for viewerID, or false when the event
// does not concern the viewer.
func Decide(ev ChangeEvent, viewerID string) (Directive, bool) {
	k, ok := KeyFor(ev.Message, viewerID)
	if !ok {
		return Directive{}, false
	}
	d := Directive{ViewerID: viewerID, Conversations: true, Threads: []Key{k}}
	receiver := ev.Message.ReceiverID == viewerID
	switch ev.Type {
	case EventInsert:
		d.Badge = receiver && !ev.Message.IsRead
	case EventUpdate:
		readChanged := ev.Previous == nil || ev.Previous.IsRead != ev.Message.IsRead
		d.Badge = receiver && readChanged
	case EventDelete:
		d.Badge = receiver && !ev.Message.IsRead
	default:
		return Directive{}, false
	}
	return d, true
}

// Merge folds other into d. Threads are de-duplicated, first occurrence kept.
func (d Directive) Merge(other Directive) Directive {
	d.Conversations = d.Conversations || other.Conversations
	d.Badge = d.Badge || other.Badge
	for _, k := range other.Threads {
		if !containsKey(d.Threads, k) {
			d.Threads = append(d.Threads, k)
		}
	}
	return d
}

func containsKey(keys []Key, k Key) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}
