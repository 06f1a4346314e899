package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"
	"strconv"
)

// Fingerprints decide structural identity during a merge: two entities with the
// same id are the same logical entity only when their fingerprints match. Every
// field, including relationship fields, takes part.

// FingerprintSession returns the content hash of a session record.
func FingerprintSession(s Session) string {
	w := newFieldWriter()
	w.str(string(s.ID))
	w.i64(s.StartTime)
	w.f64(s.SpentTimeInHour)
	w.i64(int64(s.SwitchTimes))
	w.f64(s.ScreenStaticDuration)
	names := make([]string, 0, len(s.Apps))
	for name := range s.Apps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		u := s.Apps[name]
		w.str(name)
		w.str(u.AppName)
		w.f64(u.SpentTimeInHour)
		w.f64(u.ScreenStaticDuration)
		titles := make([]string, 0, len(u.TitleSpentTime))
		for t := range u.TitleSpentTime {
			titles = append(titles, t)
		}
		sort.Strings(titles)
		for _, t := range titles {
			w.str(t)
			w.f64(u.TitleSpentTime[t])
		}
		w.sep()
	}
	return w.sum()
}

// FingerprintCard returns the content hash of a card.
func FingerprintCard(c Card) string {
	w := newFieldWriter()
	w.str(string(c.ID))
	w.str(c.Title)
	w.str(c.Content)
	w.f64(c.SpentTimeInHour.Estimated)
	w.f64(c.SpentTimeInHour.Actual)
	for _, sid := range c.SessionIDs {
		w.str(string(sid))
	}
	w.sep()
	return w.sum()
}

// FingerprintList returns the content hash of a list.
func FingerprintList(l List) string {
	w := newFieldWriter()
	w.str(string(l.ID))
	w.str(l.Title)
	for _, cid := range l.Cards {
		w.str(string(cid))
	}
	w.sep()
	return w.sum()
}

// FingerprintBoard returns the content hash of a board. SpentHours is derived
// and therefore left out.
func FingerprintBoard(b Board) string {
	w := newFieldWriter()
	w.str(string(b.ID))
	w.str(b.Name)
	w.str(b.Description)
	for _, lid := range b.Lists {
		w.str(string(lid))
	}
	w.sep()
	w.str(string(b.DoneList))
	w.str(string(b.FocusedList))
	for _, sid := range b.RelatedSessions {
		w.str(string(sid))
	}
	w.sep()
	w.flag(b.Pin, "pin")
	w.i64(b.DueTime)
	return w.sum()
}

// fieldWriter writes each value followed by a null separator so adjacent
// fields cannot run together.
type fieldWriter struct {
	h hash.Hash
}

func newFieldWriter() fieldWriter {
	return fieldWriter{h: sha256.New()}
}

func (w fieldWriter) str(s string) {
	w.h.Write([]byte(s))
	w.h.Write([]byte{0})
}

func (w fieldWriter) i64(n int64) {
	w.h.Write([]byte(strconv.FormatInt(n, 10)))
	w.h.Write([]byte{0})
}

func (w fieldWriter) f64(f float64) {
	w.h.Write([]byte(strconv.FormatFloat(f, 'g', -1, 64)))
	w.h.Write([]byte{0})
}

func (w fieldWriter) flag(b bool, label string) {
	if b {
		w.h.Write([]byte(label))
	}
	w.h.Write([]byte{0})
}

func (w fieldWriter) sep() {
	w.h.Write([]byte{1})
}

func (w fieldWriter) sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}
