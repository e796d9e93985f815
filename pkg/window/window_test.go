package window

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/level"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/puzzle"
)

const testLevel = `
name = "Window Test"

[[cards]]
label = "R"
kind = "register"

[[cards]]
label = "S"
kind = "stack"
initial = [1, 2]

[goal]
cards = { R = [5] }
`

func newSession(t *testing.T) *puzzle.Session {
	t.Helper()
	l, err := level.Parse([]byte(testLevel), "test")
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := l.Materialize(level.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	return puzzle.New(ctx, puzzle.WithLogger(logger.Discard()))
}

func newPuzzleGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame(ModePuzzle, nil, 0)
	g.SetLogger(logger.Discard())
	g.SetSession(newSession(t))
	return g
}

func testEntries() []level.Entry {
	return []level.Entry{
		{Name: "01-a", Level: &level.Level{Name: "Alpha"}},
		{Name: "02-b", Level: &level.Level{Name: "Beta"}},
	}
}

func applyAll(t *testing.T, g *Game, inputs ...input) {
	t.Helper()
	for _, in := range inputs {
		if err := g.apply(in); err != nil {
			t.Fatalf("apply(%+v) = %v", in, err)
		}
	}
}

func TestNewGame(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), 10*time.Second)

	if game.mode != ModeSelection {
		t.Errorf("expected mode ModeSelection, got %v", game.mode)
	}
	if len(game.levels) != 2 {
		t.Errorf("expected 2 levels, got %d", len(game.levels))
	}
	if game.selectedIndex != 0 {
		t.Errorf("expected selectedIndex 0, got %d", game.selectedIndex)
	}
	if game.GetSelectedLevel() != nil {
		t.Error("expected nil before selection")
	}
}

func TestLayout(t *testing.T) {
	width, height := NewGame(ModePuzzle, nil, 0).Layout(0, 0)
	if width != 1024 || height != 768 {
		t.Errorf("Layout = %dx%d, want 1024x768", width, height)
	}
}

func TestUpdate_Timeout(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), time.Nanosecond)
	time.Sleep(10 * time.Millisecond)

	if err := game.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Update = %v, want ebiten.Termination", err)
	}
}

func TestSelection_Navigation(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), 0)

	applyAll(t, game, input{act: actUp})
	if game.selectedIndex != 0 {
		t.Errorf("Up at top moved to %d", game.selectedIndex)
	}
	applyAll(t, game, input{act: actDown}, input{act: actDown})
	if game.selectedIndex != 1 {
		t.Errorf("Down past end moved to %d", game.selectedIndex)
	}
}

func TestSelection_Escape(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), 0)
	if err := game.apply(input{act: actEscape}); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Esc in selection = %v, want ebiten.Termination", err)
	}
}

func TestSelection_ConfirmWithoutCallback(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), 0)
	applyAll(t, game, input{act: actDown})

	if err := game.apply(input{act: actConfirm}); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("confirm = %v, want ebiten.Termination", err)
	}
	if got := game.GetSelectedLevel(); got == nil || got.Name != "02-b" {
		t.Errorf("selected %v, want 02-b", got)
	}
}

func TestSelection_ConfirmOpensPuzzle(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), 0)
	var opened string
	game.SetOnLevelSelected(func(e *level.Entry) (*puzzle.Session, error) {
		opened = e.Name
		return newSession(t), nil
	})

	applyAll(t, game, input{act: actConfirm})

	if opened != "01-a" {
		t.Errorf("callback got %q, want 01-a", opened)
	}
	if game.mode != ModePuzzle || game.session == nil {
		t.Errorf("expected puzzle mode with a session, got mode %v", game.mode)
	}
}

func TestSelection_ConfirmError(t *testing.T) {
	game := NewGame(ModeSelection, testEntries(), 0)
	wantErr := errors.New("broken level")
	game.SetOnLevelSelected(func(*level.Entry) (*puzzle.Session, error) { return nil, wantErr })

	if err := game.apply(input{act: actConfirm}); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("confirm = %v, want ebiten.Termination", err)
	}
	if !errors.Is(game.GetTransitionError(), wantErr) {
		t.Errorf("transition error = %v, want %v", game.GetTransitionError(), wantErr)
	}
	if game.mode != ModeSelection {
		t.Error("mode must stay selection after a failed transition")
	}
}

func TestPuzzle_SolveByKeys(t *testing.T) {
	g := newPuzzleGame(t)

	applyAll(t, g, input{act: actInsert, op: opcode.MoveTo})
	for range 5 {
		applyAll(t, g, input{act: actOperandUp})
	}
	applyAll(t, g, input{act: actLink, card: 0})

	rows := g.session.Listing()
	if len(rows) != 1 || rows[0].String() != "   0 move-to 5 @R" {
		t.Fatalf("listing = %v", rows)
	}

	applyAll(t, g, input{act: actRun})
	if !g.running {
		t.Fatal("run toggle did not start")
	}
	for range runInterval {
		g.tick()
	}

	if g.running {
		t.Error("run must stop once the engine halts")
	}
	if !g.session.State().Completed() {
		t.Errorf("state = %v, want completed", g.session.State())
	}
	if g.isError || !strings.HasPrefix(g.message, "solved in 1 steps") {
		t.Errorf("message = %q (error %v)", g.message, g.isError)
	}
}

func TestPuzzle_InsertPlacesAfterCursor(t *testing.T) {
	g := newPuzzleGame(t)
	applyAll(t, g,
		input{act: actInsert, op: opcode.NoOp},
		input{act: actInsert, op: opcode.Jump},
	)

	rows := g.session.Listing()
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	if rows[1].Op != opcode.Jump || rows[1].Target != 2 || rows[2].AnchorOf != 1 {
		t.Errorf("unexpected listing %v", rows)
	}
	if g.cursor != 1 {
		t.Errorf("cursor = %d, want 1", g.cursor)
	}
}

func TestPuzzle_RemoveAndMove(t *testing.T) {
	g := newPuzzleGame(t)
	applyAll(t, g,
		input{act: actInsert, op: opcode.Clear},
		input{act: actInsert, op: opcode.NoOp},
		input{act: actMoveUp},
	)
	if g.cursor != 0 || g.session.Listing()[0].Op != opcode.NoOp {
		t.Fatalf("move up failed: cursor %d, %v", g.cursor, g.session.Listing())
	}

	applyAll(t, g, input{act: actDown}, input{act: actRemove})
	if n := len(g.session.Listing()); n != 1 {
		t.Fatalf("len = %d after remove, want 1", n)
	}
	if g.cursor != 0 {
		t.Errorf("cursor = %d, want it clamped to 0", g.cursor)
	}

	// 先頭より上には移動しない
	applyAll(t, g, input{act: actMoveUp})
	if g.isError {
		t.Errorf("unexpected error %q", g.message)
	}
}

func TestPuzzle_RejectedEditsShowMessage(t *testing.T) {
	tests := []struct {
		name   string
		inputs []input
		want   string
	}{
		{
			name:   "link no-op",
			inputs: []input{{act: actInsert, op: opcode.NoOp}, {act: actLink, card: 0}},
			want:   "cannot be linked",
		},
		{
			name:   "operand on move-from",
			inputs: []input{{act: actInsert, op: opcode.MoveFrom}, {act: actOperandUp}},
			want:   "takes no operand",
		},
		{
			name: "edit while running",
			inputs: []input{
				{act: actInsert, op: opcode.NoOp},
				{act: actInsert, op: opcode.NoOp},
				{act: actStep},
				{act: actInsert, op: opcode.NoOp},
			},
			want: "running",
		},
		{
			name:   "remove on empty program",
			inputs: []input{{act: actRemove}},
			want:   "position",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newPuzzleGame(t)
			applyAll(t, g, tt.inputs...)
			if !g.isError || !strings.Contains(g.message, tt.want) {
				t.Errorf("message = %q (error %v), want error mentioning %q", g.message, g.isError, tt.want)
			}
		})
	}
}

func TestPuzzle_LinkOutOfRangeIgnored(t *testing.T) {
	g := newPuzzleGame(t)
	applyAll(t, g, input{act: actInsert, op: opcode.MoveTo}, input{act: actLink, card: 8})
	if _, ok := g.session.Context().Bindings.CardOf(g.session.Listing()[0].Handle); ok {
		t.Error("command linked to a card that does not exist")
	}
}

func TestPuzzle_UnlinkAndCondition(t *testing.T) {
	g := newPuzzleGame(t)
	applyAll(t, g,
		input{act: actInsert, op: opcode.JumpIf},
		input{act: actLink, card: 1},
		input{act: actCondition},
		input{act: actCondition},
	)
	row := g.session.Listing()[0]
	if row.Card != "S" || row.Condition != opcode.Conditions[1] {
		t.Fatalf("row = %v", row)
	}

	applyAll(t, g, input{act: actUnlink})
	if row := g.session.Listing()[0]; row.Card != "" {
		t.Errorf("still linked to %q", row.Card)
	}
}

func TestPuzzle_StepAfterHaltRestarts(t *testing.T) {
	g := newPuzzleGame(t)
	applyAll(t, g, input{act: actInsert, op: opcode.MoveFrom})

	// 未接続の move-from でエラー停止
	applyAll(t, g, input{act: actStep})
	if !g.session.State().Failed() || !g.isError {
		t.Fatalf("state = %v, message %q", g.session.State(), g.message)
	}

	applyAll(t, g, input{act: actLink, card: 1}, input{act: actStep})
	if !g.session.State().Completed() {
		t.Errorf("state = %v, want completed after restart", g.session.State())
	}
	if v, ok := g.session.Hand(); !ok || v != 2 {
		t.Errorf("hand = %v, %v, want 2", v, ok)
	}
}

func TestPuzzle_RunToggleHalts(t *testing.T) {
	g := newPuzzleGame(t)
	applyAll(t, g,
		input{act: actInsert, op: opcode.NoOp},
		input{act: actInsert, op: opcode.NoOp},
		input{act: actRun},
	)
	for range runInterval {
		g.tick()
	}
	applyAll(t, g, input{act: actRun})

	if g.running {
		t.Error("second toggle must stop the run")
	}
	if st := g.session.State(); st.Status != engine.Halted || st.Reason != engine.ReasonStopped {
		t.Errorf("state = %v, want halted(stopped)", st)
	}

	applyAll(t, g, input{act: actReset})
	if g.session.State().Status != engine.Idle {
		t.Errorf("state = %v after reset, want idle", g.session.State())
	}
}

type fakeMuter struct{ muted bool }

func (m *fakeMuter) SetMuted(muted bool) { m.muted = muted }
func (m *fakeMuter) IsMuted() bool       { return m.muted }

func TestPuzzle_Mute(t *testing.T) {
	g := newPuzzleGame(t)
	m := &fakeMuter{}
	g.SetCues(m)

	applyAll(t, g, input{act: actMute})
	if !m.muted || g.message != "sound off" {
		t.Errorf("muted = %v, message %q", m.muted, g.message)
	}
	applyAll(t, g, input{act: actMute})
	if m.muted || g.message != "sound on" {
		t.Errorf("muted = %v, message %q", m.muted, g.message)
	}
}

func TestPuzzle_Escape(t *testing.T) {
	t.Run("レベル選択に戻る", func(t *testing.T) {
		g := newPuzzleGame(t)
		g.levels = testEntries()
		g.selectedIndex = 1
		g.SetHasLevelSelection(true)
		exited := false
		g.SetOnLevelExit(func() error { exited = true; return nil })

		applyAll(t, g, input{act: actEscape})

		if !exited {
			t.Error("onLevelExit not called")
		}
		if g.mode != ModeSelection || g.session != nil {
			t.Errorf("mode = %v, session = %v", g.mode, g.session)
		}
		if g.selectedIndex != 1 || len(g.levels) != 2 {
			t.Error("selection state must be preserved")
		}
	})

	t.Run("単一レベルは終了", func(t *testing.T) {
		g := newPuzzleGame(t)
		g.SetOnLevelExit(func() error { return errors.New("cleanup failed") })
		if err := g.apply(input{act: actEscape}); !errors.Is(err, ebiten.Termination) {
			t.Errorf("Esc = %v, want ebiten.Termination", err)
		}
	})
}

func TestScrollOffset(t *testing.T) {
	tests := []struct {
		cursor, n, visible, want int
	}{
		{0, 5, 10, 0},
		{9, 40, 10, 4},
		{2, 40, 10, 0},
		{39, 40, 10, 30},
		{20, 40, 10, 15},
	}
	for _, tt := range tests {
		if got := scrollOffset(tt.cursor, tt.n, tt.visible); got != tt.want {
			t.Errorf("scrollOffset(%d, %d, %d) = %d, want %d", tt.cursor, tt.n, tt.visible, got, tt.want)
		}
	}
}

func TestNextCondition(t *testing.T) {
	c := opcode.None
	seen := map[opcode.Condition]bool{}
	for range opcode.Conditions {
		c = nextCondition(c)
		seen[c] = true
	}
	if len(seen) != len(opcode.Conditions) {
		t.Errorf("cycle visited %d conditions, want %d", len(seen), len(opcode.Conditions))
	}
	if nextCondition(c) != opcode.Conditions[0] {
		t.Error("cycle must wrap to the first condition")
	}
}

func TestCardLine(t *testing.T) {
	if got := cardLine("S", "stack", []int{2, 1}); got != "S      stack    [2 1]" {
		t.Errorf("cardLine = %q", got)
	}
}

const linkedLevel = `
name = "Linked"

[[cards]]
label = "R"
kind = "register"

[[cards]]
label = "S"
kind = "stack"

[[commands]]
op = "clear"
card = "R"
`

// レベル選択から開いたセッションのリンクがカードのロックに反映される
func TestPuzzle_CardLocks(t *testing.T) {
	l, err := level.Parse([]byte(linkedLevel), "linked")
	if err != nil {
		t.Fatal(err)
	}
	g := NewGame(ModeSelection, []level.Entry{{Name: "linked", Level: l}}, 0)
	g.SetLogger(logger.Discard())
	g.SetHasLevelSelection(true)
	g.SetOnLevelSelected(func(entry *level.Entry) (*puzzle.Session, error) {
		ctx, err := entry.Level.Materialize(level.WithLogger(logger.Discard()), level.WithBindingListener(g.Locks()))
		if err != nil {
			return nil, err
		}
		return puzzle.New(ctx, puzzle.WithLogger(logger.Discard())), nil
	})

	applyAll(t, g, input{act: actConfirm})
	if got := g.Locks().Locked(); len(got) != 1 || got[0] != "R" {
		t.Fatalf("locked after open = %v, want [R]", got)
	}

	applyAll(t, g, input{act: actInsert, op: opcode.MoveFrom}, input{act: actLink, card: 1})
	if !g.Locks().IsLocked("S") {
		t.Error("S should be locked after linking")
	}

	// 先頭の clear を削除すると R が解放される
	applyAll(t, g, input{act: actUp}, input{act: actRemove})
	if g.Locks().IsLocked("R") {
		t.Error("R should be released after its command was removed")
	}

	applyAll(t, g, input{act: actEscape})
	if got := g.Locks().Locked(); len(got) != 0 {
		t.Errorf("locks after leaving = %v, want none", got)
	}
}
