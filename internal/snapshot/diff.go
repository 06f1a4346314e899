package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/merge"
)

// CollisionDiff shows how the two versions of a colliding entity differ
type CollisionDiff struct {
	Entity domain.EntityKind `json:"entity"`
	ID     string            `json:"id"`
	To     string            `json:"renamed_to"`
	Diff   string            `json:"diff"`
}

// CollisionDiffs renders a unified diff for every entity that was renamed
// because the two inputs disagreed on its content. Entities are compared in
// their input form, before any identifier rewriting.
func CollisionDiffs(local, incoming *domain.Dataset, report *merge.Report) []CollisionDiff {
	if report == nil || local == nil || incoming == nil {
		return nil
	}
	var out []CollisionDiff
	for _, kind := range []domain.EntityKind{domain.KindSession, domain.KindCard, domain.KindList, domain.KindBoard} {
		for _, rn := range report.RenamesOf(kind) {
			if rn.Reason != merge.ReasonCollision {
				continue
			}
			a, b, ok := entityPair(local, incoming, rn.Entity, rn.From)
			if !ok {
				continue
			}
			diff := difflib.UnifiedDiff{
				A:        difflib.SplitLines(a),
				B:        difflib.SplitLines(b),
				FromFile: "local/" + rn.From,
				ToFile:   "incoming/" + rn.From,
				Context:  3,
			}
			text, err := difflib.GetUnifiedDiffString(diff)
			if err != nil || text == "" {
				continue
			}
			out = append(out, CollisionDiff{Entity: rn.Entity, ID: rn.From, To: rn.To, Diff: text})
		}
	}
	return out
}

func entityPair(local, incoming *domain.Dataset, kind domain.EntityKind, key string) (string, string, bool) {
	var a, b any
	var okA, okB bool
	switch kind {
	case domain.KindSession:
		a, okA = local.Records[domain.SessionID(key)]
		b, okB = incoming.Records[domain.SessionID(key)]
	case domain.KindCard:
		a, okA = local.Cards[domain.CardID(key)]
		b, okB = incoming.Cards[domain.CardID(key)]
	case domain.KindList:
		a, okA = local.Lists[domain.ListID(key)]
		b, okB = incoming.Lists[domain.ListID(key)]
	case domain.KindBoard:
		a, okA = local.Boards[domain.BoardID(key)]
		b, okB = incoming.Boards[domain.BoardID(key)]
	}
	if !okA || !okB {
		return "", "", false
	}
	return indent(a), indent(b), true
}

func indent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v\n", v)
	}
	return string(data) + "\n"
}
