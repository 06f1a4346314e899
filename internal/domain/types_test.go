package domain

import (
	"reflect"
	"testing"
)

func sampleDataset() *Dataset {
	d := NewDataset()
	d.Records["s1"] = Session{ID: "s1", StartTime: 1000, SpentTimeInHour: 0.5, Apps: map[string]AppUsage{
		"code": {AppName: "code", SpentTimeInHour: 0.4, TitleSpentTime: map[string]float64{"main.go": 0.4}},
	}}
	d.Cards["c1"] = Card{ID: "c1", Title: "one", SessionIDs: []SessionID{"s1"}, SpentTimeInHour: SpentTime{Estimated: 2, Actual: 1}}
	d.Cards["c2"] = Card{ID: "c2", Title: "two", SpentTimeInHour: SpentTime{Actual: 3}}
	d.Lists["todo"] = List{ID: "todo", Title: "Todo", Cards: []CardID{"c2"}}
	d.Lists["done"] = List{ID: "done", Title: "Done", Cards: []CardID{"c1"}}
	d.Boards["b"] = Board{ID: "b", Name: "B", Lists: []ListID{"todo", "done"}, DoneList: "done", RelatedSessions: []SessionID{"s1"}}
	d.Moves = []MoveEvent{{Time: 10, CardID: "c1", FromListID: "todo", ToListID: "done"}}
	return d
}

func TestDataset_Clone(t *testing.T) {
	d := sampleDataset()
	c := d.Clone()

	if !reflect.DeepEqual(d, c) {
		t.Fatal("clone differs from original")
	}

	l := c.Lists["todo"]
	l.Cards[0] = "changed"
	c.Records["s1"].Apps["code"].TitleSpentTime["main.go"] = 9
	c.Moves[0].Time = 99

	if d.Lists["todo"].Cards[0] != "c2" {
		t.Error("mutating clone list cards changed original")
	}
	if d.Records["s1"].Apps["code"].TitleSpentTime["main.go"] != 0.4 {
		t.Error("mutating clone app usage changed original")
	}
	if d.Moves[0].Time != 10 {
		t.Error("mutating clone moves changed original")
	}
}

func TestDataset_SortedIDs(t *testing.T) {
	d := NewDataset()
	for _, id := range []CardID{"c", "a", "b"} {
		d.Cards[id] = Card{ID: id}
	}
	got := d.CardIDs()
	want := []CardID{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CardIDs() = %v, want %v", got, want)
	}
}

func TestDataset_BoardCards(t *testing.T) {
	d := sampleDataset()
	got := d.BoardCards(d.Boards["b"])
	want := []CardID{"c2", "c1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BoardCards() = %v, want %v", got, want)
	}
}

func TestDataset_Counts(t *testing.T) {
	d := sampleDataset()
	want := Counts{Boards: 1, Lists: 2, Cards: 2, Records: 1, Moves: 1}
	if got := d.Counts(); got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}
	if d.IsEmpty() {
		t.Error("IsEmpty() = true for populated dataset")
	}
	if !NewDataset().IsEmpty() {
		t.Error("IsEmpty() = false for new dataset")
	}
}

func TestFingerprints(t *testing.T) {
	d := sampleDataset()

	s := d.Records["s1"]
	if FingerprintSession(s) != FingerprintSession(d.Clone().Records["s1"]) {
		t.Error("identical sessions have different fingerprints")
	}
	s.SwitchTimes = 1
	if FingerprintSession(s) == FingerprintSession(d.Records["s1"]) {
		t.Error("switchTimes change not reflected in fingerprint")
	}

	c := d.Cards["c1"]
	c.SessionIDs = nil
	if FingerprintCard(c) == FingerprintCard(d.Cards["c1"]) {
		t.Error("sessionIds change not reflected in fingerprint")
	}

	l1 := List{ID: "l", Title: "ab", Cards: []CardID{"c"}}
	l2 := List{ID: "l", Title: "a", Cards: []CardID{"bc"}}
	if FingerprintList(l1) == FingerprintList(l2) {
		t.Error("field boundaries are not separated")
	}

	b := d.Boards["b"]
	withHours := b
	withHours.SpentHours = 42
	if FingerprintBoard(b) != FingerprintBoard(withHours) {
		t.Error("derived spentHours should not affect board fingerprint")
	}
	b.Pin = true
	if FingerprintBoard(b) == FingerprintBoard(d.Boards["b"]) {
		t.Error("pin change not reflected in fingerprint")
	}
}
