package board

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/priority"
	"github.com/kingrea/kanban/internal/session"
	"github.com/kingrea/kanban/internal/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingLogger struct {
	lines   []string
	notices []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func (l *recordingLogger) Noticef(format string, args ...any) {
	l.notices = append(l.notices, format)
}

func newTestBoard(t *testing.T, caller string) (*Board, *testClock) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default(root)
	s := store.New(root, cfg.Columns())
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	clock := &testClock{now: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	return New(cfg, s, caller, WithClock(clock.Now)), clock
}

func withSession(b *Board, caller string) *Board {
	return New(b.cfg, b.store, caller, WithClock(b.now), WithLogger(b.log))
}

func draft(action string, criteria ...card.Criterion) card.Draft {
	return card.Draft{Action: action, Criteria: criteria}
}

func mustCreate(t *testing.T, b *Board, column string, pos priority.Position, drafts ...card.Draft) []store.Entry {
	t.Helper()
	entries, err := b.Create(column, drafts, pos)
	if err != nil {
		t.Fatalf("Create(%s): %v", column, err)
	}
	return entries
}

func keyOf(t *testing.T, e store.Entry) int {
	t.Helper()
	key, ok := e.Card.Key()
	if !ok {
		t.Fatalf("card #%d has no key", e.ID)
	}
	return key
}

func ids(entries []store.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreateThenInsertAfterKeepsOrder(t *testing.T) {
	b, _ := newTestBoard(t, "alice")

	first := mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("fix bug"))[0]
	if first.ID != 1 || keyOf(t, first) != 1000 {
		t.Fatalf("first = #%d@%d, want #1@1000", first.ID, keyOf(t, first))
	}
	second := mustCreate(t, b, config.ColumnTodo, priority.AfterCard(1), draft("write docs"))[0]
	if second.ID != 2 || keyOf(t, second) != 1010 {
		t.Fatalf("second = #%d@%d, want #2@1010", second.ID, keyOf(t, second))
	}

	listing, err := b.List(Filter{Columns: []string{config.ColumnTodo}}, session.Visible("alice", session.Flags{}))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ids(listing.Mine[config.ColumnTodo]); !equalInts(got, []int{1, 2}) {
		t.Fatalf("todo = %v, want [1 2]", got)
	}
}

func TestCreateRequiresPositionInNonEmptyScope(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("one"))
	mustCreate(t, b, config.ColumnTodo, priority.AtBottom(), draft("two"))

	_, err := b.Create(config.ColumnTodo, []card.Draft{draft("three")}, priority.Position{})
	var posErr *PositionRequiredError
	if !errors.As(err, &posErr) {
		t.Fatalf("err = %v, want PositionRequiredError", err)
	}
	if posErr.Scope != "#1@1000, #2@1010" {
		t.Fatalf("scope = %q, want %q", posErr.Scope, "#1@1000, #2@1010")
	}

	// Another session's scope is empty, so no position is needed.
	bob := withSession(b, "bob")
	created := mustCreate(t, bob, config.ColumnTodo, priority.Position{}, draft("bob's"))
	if keyOf(t, created[0]) != 1000 {
		t.Fatalf("bob key = %d, want 1000", keyOf(t, created[0]))
	}
}

func TestRepeatedInsertAfterSameCardStopsWhenGapRunsOut(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	todo := config.ColumnTodo
	mustCreate(t, b, todo, priority.Position{}, draft("one"))
	mustCreate(t, b, todo, priority.AfterCard(1), draft("two"))
	mustCreate(t, b, todo, priority.AfterCard(1), draft("three"))
	mustCreate(t, b, todo, priority.AfterCard(1), draft("four"))

	// The batch's first card fits at 1001 but the second has nowhere to go;
	// nothing may be written.
	_, err := b.Create(todo, []card.Draft{draft("batch a"), draft("batch b")}, priority.AfterCard(1))
	if !errors.Is(err, priority.ErrGapExhausted) {
		t.Fatalf("bulk err = %v, want ErrGapExhausted", err)
	}
	if entries, _ := b.store.List(todo); len(entries) != 4 {
		t.Fatalf("todo holds %d cards after a failed batch, want 4", len(entries))
	}

	five := mustCreate(t, b, todo, priority.AfterCard(1), draft("five"))[0]
	if five.ID != 5 || keyOf(t, five) != 1001 {
		t.Fatalf("five = #%d@%d, want #5@1001", five.ID, keyOf(t, five))
	}
	_, err = b.Create(todo, []card.Draft{draft("six")}, priority.AfterCard(1))
	if !errors.Is(err, priority.ErrGapExhausted) {
		t.Fatalf("err = %v, want ErrGapExhausted", err)
	}
	if !strings.Contains(err.Error(), "#1@1000, #5@1001") {
		t.Fatalf("error should show the crowded scope: %v", err)
	}

	listing, err := b.List(Filter{Columns: []string{todo}}, session.Visible("alice", session.Flags{}))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ids(listing.Mine[todo]); !equalInts(got, []int{1, 5, 4, 3, 2}) {
		t.Fatalf("todo = %v, want [1 5 4 3 2]", got)
	}
}

func TestCreateBulkChainsAfterFirst(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("anchor"))

	created := mustCreate(t, b, config.ColumnTodo, priority.AtTop(), draft("a"), draft("b"), draft("c"))
	if got := ids(created); !equalInts(got, []int{2, 3, 4}) {
		t.Fatalf("ids = %v, want [2 3 4]", got)
	}
	listing, err := b.List(Filter{Columns: []string{config.ColumnTodo}}, session.Visible("alice", session.Flags{}))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ids(listing.Mine[config.ColumnTodo]); !equalInts(got, []int{2, 3, 4, 1}) {
		t.Fatalf("order = %v, want [2 3 4 1]", got)
	}
}

func TestCreateRejectsOtherColumns(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	if _, err := b.Create(config.ColumnDone, []card.Draft{draft("x")}, priority.Position{}); err == nil {
		t.Fatalf("expected error creating in done")
	}
}

func TestInsertionsDoNotRekeyExistingCards(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("one"))
	mustCreate(t, b, config.ColumnTodo, priority.AtBottom(), draft("two"))
	before := map[int]int{}
	for _, id := range []int{1, 2} {
		e, _ := b.Get(id)
		before[id] = keyOf(t, e)
	}
	mustCreate(t, b, config.ColumnTodo, priority.BeforeCard(2), draft("between"))
	mustCreate(t, b, config.ColumnTodo, priority.AtTop(), draft("top"))
	for id, want := range before {
		e, _ := b.Get(id)
		if got := keyOf(t, e); got != want {
			t.Fatalf("#%d key = %d, want %d", id, got, want)
		}
	}
	listing, _ := b.List(Filter{Columns: []string{config.ColumnTodo}}, session.Visible("alice", session.Flags{}))
	if got := ids(listing.Mine[config.ColumnTodo]); !equalInts(got, []int{4, 1, 3, 2}) {
		t.Fatalf("order = %v, want [4 1 3 2]", got)
	}
}

func TestRelativePositionAcrossSessionsIsRejected(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("alice's"))
	bob := withSession(b, "bob")

	_, err := bob.Create(config.ColumnTodo, []card.Draft{draft("bob's")}, priority.AfterCard(1))
	var cross *CrossSessionError
	if !errors.As(err, &cross) {
		t.Fatalf("err = %v, want CrossSessionError", err)
	}
	if _, err := bob.Get(2); !errors.Is(err, store.ErrCardNotFound) {
		t.Fatalf("card #2 written despite error: %v", err)
	}
}

func TestRelativePositionMustShareColumn(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnDoing, priority.Position{}, draft("active"))
	_, err := b.Create(config.ColumnTodo, []card.Draft{draft("queued")}, priority.AfterCard(1))
	if !errors.Is(err, ErrWrongColumn) {
		t.Fatalf("err = %v, want ErrWrongColumn", err)
	}
}

func TestDoneGateNamesEveryUnmetCriterion(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{},
		draft("ship", card.Criterion{Text: "build passes"}, card.Criterion{Text: "docs updated", Met: true}, card.Criterion{Text: "reviewed"}))

	_, err := b.Done(1, "")
	var unmet *UnmetCriteriaError
	if !errors.As(err, &unmet) {
		t.Fatalf("err = %v, want UnmetCriteriaError", err)
	}
	if len(unmet.Unmet) != 2 || unmet.Total != 3 {
		t.Fatalf("unmet = %+v, want 2 of 3", unmet)
	}
	msg := err.Error()
	for _, want := range []string{"build passes", "reviewed", "criteria check 1"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "docs updated") {
		t.Fatalf("message %q names a met criterion", msg)
	}
	e, _ := b.Get(1)
	if e.Column != config.ColumnTodo || len(e.Card.Activity) != 1 {
		t.Fatalf("refused done changed the card: %s, %d activity", e.Column, len(e.Card.Activity))
	}

	if _, _, err := b.CheckCriteria(1, []string{"build", "3"}); err != nil {
		t.Fatalf("CheckCriteria: %v", err)
	}
	done, err := b.Done(1, "")
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if done.Column != config.ColumnDone {
		t.Fatalf("column = %s, want done", done.Column)
	}
	if n := len(done.Card.Activity); n != 2 {
		t.Fatalf("activity = %d entries, want 2", n)
	}
	if last := done.Card.Activity[1].Message; last != "Completed" {
		t.Fatalf("last activity = %q, want Completed", last)
	}
}

func TestTransitionsFollowTheTable(t *testing.T) {
	b, clock := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("task"))

	if _, err := b.SendToReview(1, priority.Position{}); err == nil {
		t.Fatalf("review from todo succeeded")
	} else {
		var te *TransitionError
		if !errors.As(err, &te) || te.From != config.ColumnTodo {
			t.Fatalf("err = %v, want TransitionError from todo", err)
		}
		if want := "card #1 is in 'todo', not 'doing' (review only works on cards in doing)"; err.Error() != want {
			t.Fatalf("message = %q, want %q", err.Error(), want)
		}
	}

	steps := []struct {
		name string
		run  func() (store.Entry, error)
		want string
	}{
		{"start", func() (store.Entry, error) {
			out, err := b.Start([]int{1}, priority.Position{})
			if err != nil {
				return store.Entry{}, err
			}
			return out[0], nil
		}, config.ColumnDoing},
		{"review", func() (store.Entry, error) { return b.SendToReview(1, priority.Position{}) }, config.ColumnReview},
		{"redo", func() (store.Entry, error) { return b.Redo(1, priority.Position{}) }, config.ColumnDoing},
		{"defer", func() (store.Entry, error) { return b.Defer(1, priority.Position{}) }, config.ColumnTodo},
		{"cancel", func() (store.Entry, error) { return b.Cancel(1, "superseded") }, config.ColumnCanceled},
	}
	for _, step := range steps {
		clock.Advance(time.Minute)
		e, err := step.run()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if e.Column != step.want {
			t.Fatalf("%s: column = %s, want %s", step.name, e.Column, step.want)
		}
		if !e.Card.Updated.Equal(clock.now) {
			t.Fatalf("%s: updated = %v, want %v", step.name, e.Card.Updated, clock.now)
		}
	}
	e, _ := b.Get(1)
	if e.Card.CancelReason != "superseded" {
		t.Fatalf("cancel reason = %q", e.Card.CancelReason)
	}
	if _, err := b.Done(1, ""); err == nil {
		t.Fatalf("done from canceled succeeded")
	}
}

func TestReviewUnavailableWithoutColumn(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	b.cfg.Board.Columns = []string{config.ColumnTodo, config.ColumnDoing, config.ColumnDone, config.ColumnCanceled}
	mustCreate(t, b, config.ColumnDoing, priority.Position{}, draft("task"))
	if _, err := b.SendToReview(1, priority.Position{}); !errors.Is(err, config.ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestStartFailsFastOnBadReference(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("a"), draft("b"))

	if _, err := b.Start([]int{1, 99}, priority.Position{}); !errors.Is(err, store.ErrCardNotFound) {
		t.Fatalf("err = %v, want ErrCardNotFound", err)
	}
	e, _ := b.Get(1)
	if e.Column != config.ColumnTodo {
		t.Fatalf("#1 moved to %s despite failed batch", e.Column)
	}

	started, err := b.Start([]int{2, 1}, priority.Position{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if keyOf(t, started[0]) >= keyOf(t, started[1]) {
		t.Fatalf("keys %d, %d not in start order", keyOf(t, started[0]), keyOf(t, started[1]))
	}
}

func TestMoveIsUnguarded(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("a"))

	e, err := b.Move(1, "DONE", priority.Position{})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if e.Column != config.ColumnDone {
		t.Fatalf("column = %s, want done", e.Column)
	}
	if _, err := b.Move(1, config.ColumnDone, priority.Position{}); err == nil {
		t.Fatalf("same-column move without position succeeded")
	}
	if _, err := b.Move(1, "backlog", priority.Position{}); !errors.Is(err, config.ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestReassignBySelector(t *testing.T) {
	b, _ := newTestBoard(t, "agent-1")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("a"))
	mustCreate(t, b, config.ColumnDoing, priority.Position{}, draft("b"))
	other := withSession(b, "human")
	mustCreate(t, other, config.ColumnTodo, priority.Position{}, draft("c"))
	nobody := withSession(b, "")
	mustCreate(t, nobody, config.ColumnTodo, priority.Position{}, draft("d"))

	moved, err := b.Reassign(Selector{From: "agent-*"}, "human")
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if got := ids(moved); !equalInts(got, []int{1, 2}) {
		t.Fatalf("moved = %v, want [1 2]", got)
	}
	e, _ := b.Get(1)
	if e.Card.Session != "human" {
		t.Fatalf("session = %q, want human", e.Card.Session)
	}
	if last := e.Card.Activity[len(e.Card.Activity)-1].Message; last != "Reassigned from agent-1 to human" {
		t.Fatalf("activity = %q", last)
	}
	if key := keyOf(t, e); key != 1010 {
		t.Fatalf("key = %d, want 1010 (bottom of human's todo)", key)
	}

	moved, err = b.Reassign(Selector{From: NoSession}, "ops")
	if err != nil {
		t.Fatalf("Reassign none: %v", err)
	}
	if got := ids(moved); !equalInts(got, []int{4}) {
		t.Fatalf("moved = %v, want [4]", got)
	}

	moved, err = b.Reassign(Selector{IDs: []int{3}}, NoSession)
	if err != nil {
		t.Fatalf("Reassign to none: %v", err)
	}
	if !moved[0].Card.Ownerless() {
		t.Fatalf("card #3 still owned by %q", moved[0].Card.Session)
	}

	if _, err := b.Reassign(Selector{}, "x"); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("err = %v, want ErrNothingSelected", err)
	}
}

func TestCriteriaEditing(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("task", card.Criterion{Text: "Tests pass"}))

	if _, _, err := b.RemoveCriterion(1, 1, "obsolete"); !errors.Is(err, ErrLastCriterion) {
		t.Fatalf("err = %v, want ErrLastCriterion", err)
	}
	if _, err := b.AddCriterion(1, "Docs updated"); err != nil {
		t.Fatalf("AddCriterion: %v", err)
	}
	if _, _, err := b.RemoveCriterion(1, 1, " "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired", err)
	}
	if _, _, err := b.CheckCriteria(1, []string{"docs", "nope"}); !errors.Is(err, ErrCriterionNotFound) {
		t.Fatalf("err = %v, want ErrCriterionNotFound", err)
	}
	e, _ := b.Get(1)
	if e.Card.Criteria[1].Met {
		t.Fatalf("partial check applied before failing reference")
	}

	removed, e, err := b.RemoveCriterion(1, 1, "covered by CI")
	if err != nil {
		t.Fatalf("RemoveCriterion: %v", err)
	}
	if removed.Text != "Tests pass" || len(e.Card.Criteria) != 1 {
		t.Fatalf("removed %q, %d left", removed.Text, len(e.Card.Criteria))
	}
	if last := e.Card.Activity[len(e.Card.Activity)-1].Message; last != "Removed AC 1: 'Tests pass' (reason: covered by CI)" {
		t.Fatalf("activity = %q", last)
	}

	if _, _, err := b.CheckCriteria(1, []string{"DOCS"}); err != nil {
		t.Fatalf("CheckCriteria: %v", err)
	}
	changed, _, err := b.UncheckCriteria(1, []string{"1"})
	if err != nil || len(changed) != 1 || changed[0].Met {
		t.Fatalf("UncheckCriteria = %+v, %v", changed, err)
	}
}

func TestClearAndDelete(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("a"), draft("b"))
	mustCreate(t, b, config.ColumnDoing, priority.Position{}, draft("c"))

	if _, err := b.Clear([]string{"todo", "bogus"}); !errors.Is(err, config.ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
	n, err := b.Clear([]string{"todo"})
	if err != nil || n != 2 {
		t.Fatalf("Clear = %d, %v, want 2", n, err)
	}
	if _, err := b.Delete(3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(3); !errors.Is(err, store.ErrCardNotFound) {
		t.Fatalf("err = %v, want ErrCardNotFound", err)
	}
	created := mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("fresh"))
	if created[0].ID != 4 {
		t.Fatalf("id = %d, want 4 (identities are never reused)", created[0].ID)
	}
}

func TestSweepArchivesOldDoneCards(t *testing.T) {
	b, clock := newTestBoard(t, "alice")
	log := &recordingLogger{}
	b.log = log
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("old"))
	if _, err := b.Done(1, ""); err != nil {
		t.Fatalf("Done: %v", err)
	}
	clock.Advance(31 * 24 * time.Hour)

	moved, err := b.Sweep()
	if err != nil || len(moved) != 1 {
		t.Fatalf("Sweep = %d, %v, want 1", len(moved), err)
	}
	if len(log.notices) != 1 {
		t.Fatalf("notices = %v, want one", log.notices)
	}
	e, err := b.Get(1)
	if err != nil || Status(e) != "archived" {
		t.Fatalf("Get = %s, %v, want archived", Status(e), err)
	}
	again, err := b.Sweep()
	if err != nil || len(again) != 0 {
		t.Fatalf("second Sweep = %d, %v, want 0", len(again), err)
	}
}

func TestListIncludesArchivedGroup(t *testing.T) {
	b, clock := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("old"))
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("current"))
	if _, err := b.Done(1, ""); err != nil {
		t.Fatalf("Done: %v", err)
	}
	clock.Advance(40 * 24 * time.Hour)
	if _, err := b.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	vis := session.Visible("alice", session.Flags{})

	plain, err := b.List(Filter{}, vis)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, col := range plain.Columns {
		if col == ArchivedGroup {
			t.Fatalf("columns = %v, want no archived group by default", plain.Columns)
		}
	}

	listing, err := b.List(Filter{Archived: true}, vis)
	if err != nil {
		t.Fatalf("List archived: %v", err)
	}
	if last := listing.Columns[len(listing.Columns)-1]; last != ArchivedGroup {
		t.Fatalf("columns = %v, want archived last", listing.Columns)
	}
	if got := ids(listing.Mine[ArchivedGroup]); len(got) != 1 || got[0] != 1 {
		t.Fatalf("archived = %v, want [1]", got)
	}
	if got := ids(listing.Mine[config.ColumnTodo]); len(got) != 1 || got[0] != 2 {
		t.Fatalf("todo = %v, want [2]", got)
	}
	if listing.Count() != 2 {
		t.Fatalf("Count = %d, want 2", listing.Count())
	}
}

func TestListSplitsByOwnership(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("mine"))
	mustCreate(t, withSession(b, "bob"), config.ColumnTodo, priority.Position{}, draft("bob's"))
	mustCreate(t, withSession(b, ""), config.ColumnTodo, priority.Position{}, draft("shared"))

	cases := []struct {
		name   string
		vis    session.Visibility
		mine   []int
		others []int
	}{
		{"default", session.Visible("alice", session.Flags{}), []int{1, 3}, []int{2}},
		{"only mine", session.Visible("alice", session.Flags{OnlyMine: true}), []int{1, 3}, nil},
		{"hide mine", session.Visible("alice", session.Flags{HideMine: true}), nil, []int{2}},
		{"explicit", session.Visible("alice", session.Flags{Explicit: "bob"}), []int{2, 3}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listing, err := b.List(Filter{Columns: []string{config.ColumnTodo}}, tc.vis)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if got := ids(listing.Mine[config.ColumnTodo]); !equalInts(got, tc.mine) {
				t.Fatalf("mine = %v, want %v", got, tc.mine)
			}
			if got := ids(listing.Others[config.ColumnTodo]); !equalInts(got, tc.others) {
				t.Fatalf("others = %v, want %v", got, tc.others)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	b, clock := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, card.Draft{Action: "api", EditFiles: []string{"internal/api/handler.go"}})
	clock.Advance(48 * time.Hour)
	mustCreate(t, b, config.ColumnTodo, priority.AtBottom(), card.Draft{Action: "docs", ReadFiles: []string{"docs/readme.md"}})

	vis := session.Visible("alice", session.Flags{})
	cases := []struct {
		name string
		f    Filter
		want []int
	}{
		{"file glob", Filter{FileGlob: "internal/**"}, []int{1}},
		{"since", Filter{Since: clock.now.Add(-time.Hour)}, []int{2}},
		{"until", Filter{Until: clock.now.Add(-time.Hour)}, []int{1}},
		{"card prefix", Filter{CardPrefix: "2"}, []int{2}},
		{"session prefix", Filter{SessionPrefix: "ALI"}, []int{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.f.Columns = []string{config.ColumnTodo}
			listing, err := b.List(tc.f, vis)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if got := ids(listing.Mine[config.ColumnTodo]); !equalInts(got, tc.want) {
				t.Fatalf("ids = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectColumns(t *testing.T) {
	b, _ := newTestBoard(t, "alice")
	cases := []struct {
		name               string
		req                []string
		done, canceled, all bool
		want               string
	}{
		{"default", nil, false, false, false, "todo,doing,review"},
		{"done", nil, true, false, false, "todo,doing,review,done"},
		{"all", nil, false, false, true, "todo,doing,review,done,canceled"},
		{"explicit", []string{"Done,todo", "done"}, false, false, false, "done,todo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.SelectColumns(tc.req, tc.done, tc.canceled, tc.all)
			if err != nil {
				t.Fatalf("SelectColumns: %v", err)
			}
			if strings.Join(got, ",") != tc.want {
				t.Fatalf("columns = %v, want %s", got, tc.want)
			}
		})
	}
	if _, err := b.SelectColumns([]string{"later"}, false, false, false); !errors.Is(err, config.ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestMetricsCoverDoneColumn(t *testing.T) {
	b, clock := newTestBoard(t, "alice")
	mustCreate(t, b, config.ColumnTodo, priority.Position{}, draft("a"), draft("b"))
	clock.Advance(2 * time.Hour)
	if _, err := b.Done(1, ""); err != nil {
		t.Fatalf("Done: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := b.Done(2, ""); err != nil {
		t.Fatalf("Done: %v", err)
	}

	m, err := b.Metrics()
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.AllTime != 2 || m.PerHour != 1 {
		t.Fatalf("metrics = %+v, want 2 all-time, 1 in the last hour", m)
	}
	if !m.HasLeadTime || m.AvgLeadTime != 3*time.Hour {
		t.Fatalf("avg lead time = %v, want 3h", m.AvgLeadTime)
	}
}

func TestParseDateFilter(t *testing.T) {
	now := time.Date(2025, 7, 10, 15, 30, 0, 0, time.Local)
	midnight := time.Date(2025, 7, 10, 0, 0, 0, 0, time.Local)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"today", midnight},
		{"yesterday", midnight.AddDate(0, 0, -1)},
		{"week", now.AddDate(0, 0, -7)},
		{"month", now.AddDate(0, 0, -30)},
		{"2025-07-01", time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local)},
		{"2025-07-01T08:00:00Z", time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseDateFilter(tc.in, now)
		if err != nil {
			t.Fatalf("ParseDateFilter(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseDateFilter(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseDateFilter("soon", now); err == nil {
		t.Fatalf("expected error for unknown date")
	}
}
