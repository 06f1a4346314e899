package testutil

import "github.com/lherron/pomokan/internal/domain"

// Case0 is the smallest complete dataset: one board with a done list holding a
// single card worked on in one session.
func Case0() *domain.Dataset {
	d := domain.NewDataset()
	d.Records["sess0"] = domain.Session{
		ID:              "sess0",
		StartTime:       123123,
		SpentTimeInHour: 10,
		SwitchTimes:     100,
		Apps:            map[string]domain.AppUsage{},
	}
	d.Cards["card_a"] = domain.Card{
		ID:              "card_a",
		Title:           "card",
		Content:         "card",
		SessionIDs:      []domain.SessionID{"sess0"},
		SpentTimeInHour: domain.SpentTime{Estimated: 100, Actual: 10},
	}
	d.Lists["done"] = domain.List{ID: "done", Title: "done", Cards: []domain.CardID{"card_a"}}
	d.Lists["focused"] = domain.List{ID: "focused", Title: "focused", Cards: []domain.CardID{}}
	d.Boards["a"] = domain.Board{
		ID:              "a",
		Name:            "a",
		Description:     "a",
		Lists:           []domain.ListID{"done", "focused"},
		DoneList:        "done",
		FocusedList:     "focused",
		RelatedSessions: []domain.SessionID{"sess0"},
		SpentHours:      10,
	}
	return d
}

// Case0Divergent has the same identifiers as Case0 but different content for
// the board, the card and the session.
func Case0Divergent() *domain.Dataset {
	d := Case0()
	s := d.Records["sess0"]
	s.StartTime = 456456
	s.SpentTimeInHour = 2
	d.Records["sess0"] = s

	c := d.Cards["card_a"]
	c.Content = "another card"
	c.SpentTimeInHour = domain.SpentTime{Estimated: 3, Actual: 2}
	d.Cards["card_a"] = c

	b := d.Boards["a"]
	b.Name = "b"
	b.Description = "b"
	b.SpentHours = 2
	d.Boards["a"] = b
	return d
}

// Workspace is a richer dataset with two boards, three lists per board and a
// move log.
func Workspace() *domain.Dataset {
	d := domain.NewDataset()
	d.Records["s1"] = domain.Session{ID: "s1", StartTime: 1000, SpentTimeInHour: 0.5, SwitchTimes: 3, Apps: map[string]domain.AppUsage{
		"Code": {AppName: "Code", SpentTimeInHour: 0.4, TitleSpentTime: map[string]float64{"merge.go": 0.4}},
		"Term": {AppName: "Term", SpentTimeInHour: 0.1},
	}}
	d.Records["s2"] = domain.Session{ID: "s2", StartTime: 5000, SpentTimeInHour: 0.5, SwitchTimes: 1}
	d.Records["s3"] = domain.Session{ID: "s3", StartTime: 9000, SpentTimeInHour: 1}

	d.Cards["c1"] = domain.Card{ID: "c1", Title: "write parser", SessionIDs: []domain.SessionID{"s1", "s2"}, SpentTimeInHour: domain.SpentTime{Estimated: 2, Actual: 1}}
	d.Cards["c2"] = domain.Card{ID: "c2", Title: "write docs", SpentTimeInHour: domain.SpentTime{Estimated: 1}}
	d.Cards["c3"] = domain.Card{ID: "c3", Title: "plan trip", SessionIDs: []domain.SessionID{"s3"}, SpentTimeInHour: domain.SpentTime{Estimated: 0.5, Actual: 1}}

	d.Lists["w-todo"] = domain.List{ID: "w-todo", Title: "Todo", Cards: []domain.CardID{"c2"}}
	d.Lists["w-focus"] = domain.List{ID: "w-focus", Title: "Focused", Cards: []domain.CardID{}}
	d.Lists["w-done"] = domain.List{ID: "w-done", Title: "Done", Cards: []domain.CardID{"c1"}}
	d.Lists["h-todo"] = domain.List{ID: "h-todo", Title: "Todo", Cards: []domain.CardID{}}
	d.Lists["h-focus"] = domain.List{ID: "h-focus", Title: "Focused", Cards: []domain.CardID{"c3"}}
	d.Lists["h-done"] = domain.List{ID: "h-done", Title: "Done", Cards: []domain.CardID{}}

	d.Boards["work"] = domain.Board{
		ID: "work", Name: "Work", Description: "day job",
		Lists:    []domain.ListID{"w-todo", "w-focus", "w-done"},
		DoneList: "w-done", FocusedList: "w-focus",
		RelatedSessions: []domain.SessionID{"s1", "s2"},
		SpentHours:      1,
		Pin:             true,
	}
	d.Boards["home"] = domain.Board{
		ID: "home", Name: "Home",
		Lists:    []domain.ListID{"h-todo", "h-focus", "h-done"},
		DoneList: "h-done", FocusedList: "h-focus",
		RelatedSessions: []domain.SessionID{"s3"},
		SpentHours:      1,
		DueTime:         1700000000000,
	}

	d.Moves = []domain.MoveEvent{
		{Time: 900, CardID: "c1", FromListID: "w-todo", ToListID: "w-focus"},
		{Time: 6000, CardID: "c1", FromListID: "w-focus", ToListID: "w-done"},
		{Time: 8000, CardID: "c3", FromListID: "h-todo", ToListID: "h-focus"},
	}
	return d
}
