package window

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

const (
	lineHeight = 18
	listingX   = 50
	cardsX     = 560
	topY       = 110
	// maxRows は一度に表示するコマンド数
	maxRows = 28
)

const puzzleHelp = "T/F/C/V/X/N/J/K insert  DEL remove  PGUP/PGDN move  1-9 link  U unlink  +/- operand  I condition\n" +
	"SPACE step  G/ENTER run  R reset  M sound  ESC back"

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	g.mu.RLock()
	defer g.mu.RUnlock()

	switch g.mode {
	case ModeSelection:
		g.drawSelection(screen)
	case ModePuzzle:
		g.drawPuzzle(screen)
	}
}

func drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = lineHeight
	text.Draw(screen, s, defaultFace, op)
}

// drawSelection レベル選択画面の描画
func (g *Game) drawSelection(screen *ebiten.Image) {
	drawText(screen, "Select a Level", 50, 50, textColor)

	for i, e := range g.levels {
		y := 120 + float64(i*40)

		// 選択中のレベルは色を変える
		prefix := "  "
		clr := color.Color(textColor)
		if i == g.selectedIndex {
			prefix = "> "
			clr = selectedTextColor
		}
		drawText(screen, prefix+e.DisplayName(), 70, y, clr)
	}

	drawText(screen, "Use UP/DOWN to select, ENTER to confirm, ESC to exit", 50, 650, textColor)
}

// drawPuzzle 編集・実行画面の描画
func (g *Game) drawPuzzle(screen *ebiten.Image) {
	s := g.session
	if s == nil {
		return
	}
	l := s.Level()
	drawText(screen, l.Name, 50, 30, textColor)
	if l.Description != "" {
		drawText(screen, l.Description, 50, 50, textColor)
	}

	// プログラム一覧
	drawText(screen, "Program", listingX, topY-lineHeight*1.5, textColor)
	rows := s.Listing()
	if len(rows) == 0 {
		drawText(screen, "(empty program)", listingX, topY, textColor)
	}
	first := scrollOffset(g.cursor, len(rows), maxRows)
	for i := first; i < len(rows) && i < first+maxRows; i++ {
		clr := color.Color(textColor)
		if i == g.cursor {
			clr = selectedTextColor
		}
		drawText(screen, rows[i].String(), listingX, topY+float64((i-first)*lineHeight), clr)
	}

	// カード一覧
	drawText(screen, "Cards", cardsX, topY-lineHeight*1.5, textColor)
	ctx := s.Context()
	for i, c := range ctx.Cards.Cards() {
		line := fmt.Sprintf("%d %s", i+1, cardLine(c.Label, c.Kind().String(), c.Structure().Values()))
		clr := color.Color(textColor)
		if g.locks.IsLocked(c.Label) {
			clr = lockedTextColor
			if h, ok := ctx.Bindings.HolderOf(c.Label); ok {
				if pos, err := ctx.Program.Position(h); err == nil {
					line += fmt.Sprintf("  <- %d", pos)
				}
			}
		}
		drawText(screen, line, cardsX, topY+float64(i*lineHeight), clr)
	}

	// 実行状態
	hand := "-"
	if v, ok := s.Hand(); ok {
		hand = fmt.Sprint(v)
	}
	status := fmt.Sprintf("state: %s  hand: %s  steps: %d  cost: %.1f", s.State(), hand, s.Steps(), ctx.Cards.TotalCost())
	drawText(screen, status, cardsX, topY+float64((ctx.Cards.Len()+1)*lineHeight), textColor)

	if g.message != "" {
		clr := color.Color(textColor)
		if g.isError {
			clr = errorTextColor
		}
		drawText(screen, g.message, 50, 640, clr)
	}
	drawText(screen, puzzleHelp, 50, 680, textColor)
}

// cardLine はカード1枚分の表示文字列
func cardLine(label, kind string, values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%-6s %-8s [%s]", label, kind, strings.Join(parts, " "))
}

// scrollOffset はカーソルが見えるように表示開始位置を決める
func scrollOffset(cursor, n, visible int) int {
	if n <= visible || cursor < visible/2 {
		return 0
	}
	first := cursor - visible/2
	if first > n-visible {
		first = n - visible
	}
	return first
}
