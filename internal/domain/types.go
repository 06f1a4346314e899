package domain

import (
	"sort"
	"time"
)

// BoardID identifies a board within one dataset
type BoardID string

// ListID identifies a list (board column) within one dataset
type ListID string

// CardID identifies a card within one dataset
type CardID string

// SessionID identifies a focus-session record within one dataset
type SessionID string

// EntityKind names one of the collections of a dataset
type EntityKind string

const (
	KindSession EntityKind = "session"
	KindCard    EntityKind = "card"
	KindList    EntityKind = "list"
	KindBoard   EntityKind = "board"
	KindMove    EntityKind = "move"
)

// AppUsage is the per-application breakdown of a focus session
type AppUsage struct {
	AppName              string             `json:"appName"`
	SpentTimeInHour      float64            `json:"spentTimeInHour"`
	ScreenStaticDuration float64            `json:"screenStaticDuration,omitempty"`
	TitleSpentTime       map[string]float64 `json:"titleSpentTime,omitempty"`
}

// Session is one recorded pomodoro. Sessions have no outbound references.
type Session struct {
	ID                   SessionID           `json:"_id"`
	StartTime            int64               `json:"startTime"` // unix milliseconds
	SpentTimeInHour      float64             `json:"spentTimeInHour"`
	SwitchTimes          int                 `json:"switchTimes"`
	ScreenStaticDuration float64             `json:"screenStaticDuration,omitempty"`
	Apps                 map[string]AppUsage `json:"apps"`
}

// SpentTime holds the estimated and actual hours of a card
type SpentTime struct {
	Estimated float64 `json:"estimated"`
	Actual    float64 `json:"actual"`
}

// Card is a kanban card
type Card struct {
	ID              CardID      `json:"_id"`
	Title           string      `json:"title"`
	Content         string      `json:"content"`
	SessionIDs      []SessionID `json:"sessionIds"`
	SpentTimeInHour SpentTime   `json:"spentTimeInHour"`
}

// List is a board column. Card order is meaningful.
type List struct {
	ID    ListID   `json:"_id"`
	Title string   `json:"title"`
	Cards []CardID `json:"cards"`
}

// Board groups lists and the sessions spent on it
type Board struct {
	ID              BoardID     `json:"_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Lists           []ListID    `json:"lists"`
	DoneList        ListID      `json:"doneList"`
	FocusedList     ListID      `json:"focusedList"`
	RelatedSessions []SessionID `json:"relatedSessions"`
	SpentHours      float64     `json:"spentHours"`
	Pin             bool        `json:"pin,omitempty"`
	DueTime         int64       `json:"dueTime,omitempty"` // unix milliseconds, 0 when unset
}

// MoveEvent records a card moving between two lists
type MoveEvent struct {
	Time       int64  `json:"time"` // unix milliseconds
	CardID     CardID `json:"cardId"`
	FromListID ListID `json:"fromListId"`
	ToListID   ListID `json:"toListId"`
}

// Dataset is one complete snapshot of the kanban data
type Dataset struct {
	Boards  map[BoardID]Board
	Lists   map[ListID]List
	Cards   map[CardID]Card
	Records map[SessionID]Session
	Moves   []MoveEvent
}

// NewDataset returns an empty dataset with all maps allocated
func NewDataset() *Dataset {
	return &Dataset{
		Boards:  make(map[BoardID]Board),
		Lists:   make(map[ListID]List),
		Cards:   make(map[CardID]Card),
		Records: make(map[SessionID]Session),
	}
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset()
	for k, b := range d.Boards {
		b.Lists = cloneSlice(b.Lists)
		b.RelatedSessions = cloneSlice(b.RelatedSessions)
		out.Boards[k] = b
	}
	for k, l := range d.Lists {
		l.Cards = cloneSlice(l.Cards)
		out.Lists[k] = l
	}
	for k, c := range d.Cards {
		c.SessionIDs = cloneSlice(c.SessionIDs)
		out.Cards[k] = c
	}
	for k, s := range d.Records {
		if s.Apps != nil {
			apps := make(map[string]AppUsage, len(s.Apps))
			for name, u := range s.Apps {
				if u.TitleSpentTime != nil {
					titles := make(map[string]float64, len(u.TitleSpentTime))
					for t, v := range u.TitleSpentTime {
						titles[t] = v
					}
					u.TitleSpentTime = titles
				}
				apps[name] = u
			}
			s.Apps = apps
		}
		out.Records[k] = s
	}
	out.Moves = cloneSlice(d.Moves)
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// BoardIDs returns board ids in lexicographic order
func (d *Dataset) BoardIDs() []BoardID {
	ids := make([]BoardID, 0, len(d.Boards))
	for k := range d.Boards {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListIDs returns list ids in lexicographic order
func (d *Dataset) ListIDs() []ListID {
	ids := make([]ListID, 0, len(d.Lists))
	for k := range d.Lists {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CardIDs returns card ids in lexicographic order
func (d *Dataset) CardIDs() []CardID {
	ids := make([]CardID, 0, len(d.Cards))
	for k := range d.Cards {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SessionIDs returns session ids in lexicographic order
func (d *Dataset) SessionIDs() []SessionID {
	ids := make([]SessionID, 0, len(d.Records))
	for k := range d.Records {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BoardCards returns the ids of every card reachable through the board's lists,
// in list order then card order.
func (d *Dataset) BoardCards(b Board) []CardID {
	var out []CardID
	for _, lid := range b.Lists {
		l, ok := d.Lists[lid]
		if !ok {
			continue
		}
		out = append(out, l.Cards...)
	}
	return out
}

// Counts summarises the size of each collection
type Counts struct {
	Boards  int `json:"boards"`
	Lists   int `json:"lists"`
	Cards   int `json:"cards"`
	Records int `json:"records"`
	Moves   int `json:"moves"`
}

// Counts returns the number of entities per collection
func (d *Dataset) Counts() Counts {
	return Counts{
		Boards:  len(d.Boards),
		Lists:   len(d.Lists),
		Cards:   len(d.Cards),
		Records: len(d.Records),
		Moves:   len(d.Moves),
	}
}

// IsEmpty reports whether the dataset holds no entities at all
func (d *Dataset) IsEmpty() bool {
	return d.Counts() == Counts{}
}

// Event represents a row in the event log
type Event struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	ResourceID   *string   `json:"resource_id,omitempty" db:"resource_id"`
	EventType    string    `json:"event_type" db:"event_type"`
	Payload      *string   `json:"payload,omitempty" db:"payload"` // JSON
}
