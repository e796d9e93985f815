package window

import (
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
)

// action はキー入力から解釈した操作
type action int

const (
	actUp action = iota
	actDown
	actConfirm
	actEscape
	actStep
	actRun
	actReset
	actRemove
	actMoveUp
	actMoveDown
	actLink
	actUnlink
	actInsert
	actOperandUp
	actOperandDown
	actClearOperand
	actCondition
	actMute
)

// input は1回分の操作
type input struct {
	act  action
	op   opcode.Op // actInsert
	card int       // actLink: 0始まりのカード番号
}

// insertKeys はコマンド挿入に割り当てたキー
var insertKeys = []struct {
	key ebiten.Key
	op  opcode.Op
}{
	{ebiten.KeyT, opcode.MoveTo},
	{ebiten.KeyF, opcode.MoveFrom},
	{ebiten.KeyC, opcode.CopyTo},
	{ebiten.KeyV, opcode.CopyFrom},
	{ebiten.KeyX, opcode.Clear},
	{ebiten.KeyN, opcode.NoOp},
	{ebiten.KeyJ, opcode.Jump},
	{ebiten.KeyK, opcode.JumpIf},
}

var linkKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

var keyActions = []struct {
	key ebiten.Key
	act action
}{
	{ebiten.KeyUp, actUp},
	{ebiten.KeyDown, actDown},
	{ebiten.KeyEnter, actConfirm},
	{ebiten.KeyEscape, actEscape},
	{ebiten.KeySpace, actStep},
	{ebiten.KeyG, actRun},
	{ebiten.KeyR, actReset},
	{ebiten.KeyDelete, actRemove},
	{ebiten.KeyBackspace, actClearOperand},
	{ebiten.KeyPageUp, actMoveUp},
	{ebiten.KeyPageDown, actMoveDown},
	{ebiten.KeyU, actUnlink},
	{ebiten.KeyEqual, actOperandUp},
	{ebiten.KeyMinus, actOperandDown},
	{ebiten.KeyI, actCondition},
	{ebiten.KeyM, actMute},
}

// readInputs はこのフレームで押されたキーを操作に変換する（1回だけ反応）
func readInputs(mode Mode) []input {
	var inputs []input
	for _, k := range keyActions {
		if inpututil.IsKeyJustPressed(k.key) {
			inputs = append(inputs, input{act: k.act})
		}
	}
	if mode != ModePuzzle {
		return inputs
	}
	for _, k := range insertKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			inputs = append(inputs, input{act: actInsert, op: k.op})
		}
	}
	for i, k := range linkKeys {
		if inpututil.IsKeyJustPressed(k) {
			inputs = append(inputs, input{act: actLink, card: i})
		}
	}
	return inputs
}

// apply は操作を現在のモードに適用する
// ebiten.Termination を返すとゲームループが終了する
func (g *Game) apply(in input) error {
	switch g.mode {
	case ModeSelection:
		return g.applySelection(in)
	case ModePuzzle:
		return g.applyPuzzle(in)
	}
	return nil
}

// applySelection レベル選択画面の操作
func (g *Game) applySelection(in input) error {
	switch in.act {
	case actUp:
		if g.selectedIndex > 0 {
			g.selectedIndex--
		}
	case actDown:
		if g.selectedIndex < len(g.levels)-1 {
			g.selectedIndex++
		}
	case actConfirm:
		if len(g.levels) == 0 {
			return nil
		}
		return g.confirmSelection()
	case actEscape:
		return ebiten.Termination
	}
	return nil
}

// confirmSelection 選択中のレベルを開く
func (g *Game) confirmSelection() error {
	g.mu.Lock()
	g.selectedLevel = &g.levels[g.selectedIndex]
	callback := g.onLevelSelected
	selected := g.selectedLevel
	g.mu.Unlock()

	// コールバックがない場合は終了
	if callback == nil {
		return ebiten.Termination
	}

	// 新しいレベルの初期リンクはコールバック中に通知される
	g.locks.Reset()
	session, err := callback(selected)
	if err != nil {
		g.mu.Lock()
		g.transitionError = err
		g.mu.Unlock()
		return ebiten.Termination
	}

	g.SetSession(session)
	g.mu.Lock()
	g.mode = ModePuzzle
	g.startTime = time.Now() // タイムアウトをリセット
	g.mu.Unlock()
	return nil
}

// applyPuzzle プログラム編集・実行画面の操作
func (g *Game) applyPuzzle(in input) error {
	if in.act == actEscape {
		return g.leavePuzzle()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.session
	if s == nil {
		return nil
	}
	n := s.Context().Program.Len()

	var err error
	switch in.act {
	case actUp:
		if g.cursor > 0 {
			g.cursor--
		}
	case actDown:
		if g.cursor < n-1 {
			g.cursor++
		}
	case actStep:
		g.running = false
		g.stepLocked()
	case actRun, actConfirm:
		g.toggleRunLocked()
	case actReset:
		g.running = false
		s.Reset()
		g.setMessage("reset", false)
	case actInsert:
		pos := 0
		if n > 0 {
			pos = g.cursor + 1
		}
		if _, err = s.InsertCommand(in.op, pos); err == nil {
			g.cursor = pos
			g.setMessage("inserted "+string(in.op), false)
		}
	case actRemove:
		err = g.withCursor(func(h program.Handle) error {
			_, err := s.RemoveCommand(h)
			return err
		})
		if err == nil {
			g.clampCursor()
		}
	case actMoveUp, actMoveDown:
		to := g.cursor - 1
		if in.act == actMoveDown {
			to = g.cursor + 1
		}
		if to < 0 || to >= n {
			return nil
		}
		err = g.withCursor(func(h program.Handle) error { return s.MoveCommand(h, to) })
		if err == nil {
			g.cursor = to
		}
	case actLink:
		labels := s.Context().Cards.Labels()
		if in.card >= len(labels) {
			return nil
		}
		err = g.withCursor(func(h program.Handle) error { return s.Link(h, labels[in.card]) })
	case actUnlink:
		err = g.withCursor(func(h program.Handle) error {
			label, ok := s.Context().Bindings.CardOf(h)
			if !ok {
				return nil
			}
			return s.Unlink(h, label)
		})
	case actOperandUp, actOperandDown:
		delta := 1
		if in.act == actOperandDown {
			delta = -1
		}
		err = g.withCursor(func(h program.Handle) error {
			c, err := s.Context().Program.Get(h)
			if err != nil {
				return err
			}
			v, _ := c.Operand()
			return s.SetOperand(h, v+delta)
		})
	case actClearOperand:
		err = g.withCursor(s.ClearOperand)
	case actCondition:
		err = g.withCursor(func(h program.Handle) error {
			c, err := s.Context().Program.Get(h)
			if err != nil {
				return err
			}
			return s.SetCondition(h, nextCondition(c.Condition()))
		})
	case actMute:
		if g.cues != nil {
			muted := !g.cues.IsMuted()
			g.cues.SetMuted(muted)
			if muted {
				g.setMessage("sound off", false)
			} else {
				g.setMessage("sound on", false)
			}
		}
	}

	if err != nil {
		g.setMessage(err.Error(), true)
		g.log.Debug("Edit rejected", "action", in.act, "error", err)
	}
	return nil
}

// withCursor はカーソル位置のコマンドに対して fn を実行する
func (g *Game) withCursor(fn func(h program.Handle) error) error {
	h, err := g.session.HandleAt(g.cursor)
	if err != nil {
		return err
	}
	return fn(h)
}

func (g *Game) clampCursor() {
	n := g.session.Context().Program.Len()
	if g.cursor >= n {
		g.cursor = n - 1
	}
	if g.cursor < 0 {
		g.cursor = 0
	}
}

// stepLocked は1ステップ実行する。停止後に押された場合は最初からやり直す
func (g *Game) stepLocked() {
	s := g.session
	if s.State().Status == engine.Halted {
		s.Reset()
	}
	st := s.Step()
	g.showState(st)
}

// toggleRunLocked は連続実行の開始と停止を切り替える
func (g *Game) toggleRunLocked() {
	if g.running {
		g.running = false
		g.session.Halt()
		g.showState(g.session.State())
		return
	}
	if g.session.State().Status == engine.Halted {
		g.session.Reset()
	}
	g.running = true
	g.ticks = 0
	g.setMessage("running", false)
}

// showState は実行状態をメッセージに反映する。停止したら連続実行も止める
func (g *Game) showState(st engine.State) {
	if st.Status != engine.Halted {
		g.setMessage(st.String(), false)
		return
	}
	g.running = false
	if st.Failed() {
		g.setMessage(st.String(), true)
		return
	}
	if st.Completed() {
		res := g.session.Evaluate()
		g.setMessage(res.String(), !res.Solved)
		return
	}
	g.setMessage(st.String(), false)
}

// leavePuzzle はEscキーでレベル選択画面に戻るか終了する
func (g *Game) leavePuzzle() error {
	g.mu.RLock()
	hasLevelSelection := g.hasLevelSelection
	onLevelExit := g.onLevelExit
	log := g.log
	g.mu.RUnlock()

	if onLevelExit != nil {
		if err := onLevelExit(); err != nil {
			log.Error("onLevelExit callback failed", "error", err)
		}
	}

	if !hasLevelSelection {
		return ebiten.Termination
	}

	g.locks.Reset()
	g.mu.Lock()
	g.mode = ModeSelection
	g.session = nil
	g.running = false
	g.cursor = 0
	g.setMessage("", false)
	g.mu.Unlock()
	return nil
}

// nextCondition は条件を順に切り替える
func nextCondition(c opcode.Condition) opcode.Condition {
	i := slices.Index(opcode.Conditions, c)
	if i < 0 || i == len(opcode.Conditions)-1 {
		return opcode.Conditions[0]
	}
	return opcode.Conditions[i+1]
}
