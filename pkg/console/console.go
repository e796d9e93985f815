// Package console はヘッドレスモードの行指向インターフェースを提供する
// GUIなしでレベルの選択・プログラムの編集・ステップ実行ができる
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/opcode"
	"github.com/zurustar/computron/pkg/program"
	"github.com/zurustar/computron/pkg/puzzle"
	"golang.org/x/term"
)

// ErrTimeout はタイムアウトで終了したことを示す
var ErrTimeout = errors.New("timeout")

// IsInteractive は f が端末に接続されているかを返す
// 端末でなければプロンプトを表示しない（パイプ入力やテスト用）
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Console) {
		c.log = log
	}
}

// WithPrompt はプロンプト表示の有無を設定する
func WithPrompt(show bool) Option {
	return func(c *Console) {
		c.prompt = show
	}
}

// Console はセッションをテキストで操作する
type Console struct {
	session *puzzle.Session
	reader  io.Reader
	writer  io.Writer
	prompt  bool
	log     *slog.Logger
}

// New はコンソールを作成し、実行結果とカードのロックの表示をセッションに登録する
func New(session *puzzle.Session, reader io.Reader, writer io.Writer, opts ...Option) *Console {
	c := &Console{
		session: session,
		reader:  reader,
		writer:  writer,
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	session.AddEngineListener(engine.ListenerFunc(c.printEvent))
	session.Context().Bindings.AddListener(lockPrinter{w: writer})
	return c
}

// Run は入力が閉じるか quit が入力されるまでコマンドを処理する
// ctx がキャンセルされた場合は ErrTimeout を返す
func (c *Console) Run(ctx context.Context) error {
	l := c.session.Level()
	fmt.Fprintf(c.writer, "Level: %s\n", l.Name)
	if l.Description != "" {
		fmt.Fprintln(c.writer, l.Description)
	}
	fmt.Fprintln(c.writer, "Type 'help' for commands.")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if c.prompt {
			fmt.Fprint(c.writer, "> ")
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.writer)
			return ErrTimeout
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			// 入力終了
			return nil
		case line := <-lines:
			quit, err := c.Execute(line)
			if err != nil {
				fmt.Fprintf(c.writer, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Execute は1行のコマンドを実行する
// 戻り値: (終了するか, エラー)
func (c *Console) Execute(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	c.log.Debug("Console command", "command", cmd, "args", args)

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		c.printHelp()
	case "list", "ls":
		c.printListing()
	case "cards":
		c.printCards()
	case "insert":
		return false, c.insert(args)
	case "jump":
		return false, c.jump(args)
	case "remove", "rm":
		return false, c.remove(args)
	case "move", "mv":
		return false, c.move(args)
	case "link":
		return false, c.link(args, true)
	case "unlink":
		return false, c.link(args, false)
	case "operand":
		return false, c.operand(args)
	case "cond":
		return false, c.condition(args)
	case "step", "s":
		c.printState(c.session.Step())
	case "run":
		c.printState(c.session.Run())
	case "halt":
		c.printState(c.session.Halt())
	case "reset":
		c.session.Reset()
		c.printState(c.session.State())
	case "eval":
		fmt.Fprintln(c.writer, c.session.Evaluate())
	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return false, nil
}

func (c *Console) insert(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: insert <op> <pos> [operand]")
	}
	op, err := opcode.Parse(args[0])
	if err != nil {
		return err
	}
	pos, err := parseInt(args[1])
	if err != nil {
		return err
	}
	var operand *int
	if len(args) > 2 {
		v, err := parseInt(args[2])
		if err != nil {
			return err
		}
		operand = &v
	}
	h, err := c.session.InsertCommand(op, pos)
	if err != nil {
		return err
	}
	if operand != nil {
		if err := c.session.SetOperand(h, *operand); err != nil {
			// 挿入を取り消して編集前の状態に戻す
			if _, rerr := c.session.RemoveCommand(h); rerr != nil {
				c.log.Error("Failed to roll back insert", "command", h, "error", rerr)
			}
			return err
		}
	}
	c.printListing()
	return nil
}

func (c *Console) jump(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: jump <op> <pos> [anchor-pos]")
	}
	op, err := opcode.Parse(args[0])
	if err != nil {
		return err
	}
	if !op.IsJump() {
		return fmt.Errorf("%s is not a jump", op)
	}
	pos, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if len(args) > 2 {
		anchor, err := c.handleAt(args[2])
		if err != nil {
			return err
		}
		_, err = c.session.InsertJumpTo(op, pos, anchor)
		if err != nil {
			return err
		}
	} else if _, err := c.session.InsertCommand(op, pos); err != nil {
		return err
	}
	c.printListing()
	return nil
}

func (c *Console) remove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <pos>")
	}
	h, err := c.handleAt(args[0])
	if err != nil {
		return err
	}
	if _, err := c.session.RemoveCommand(h); err != nil {
		return err
	}
	c.printListing()
	return nil
}

func (c *Console) move(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: move <from> <to>")
	}
	h, err := c.handleAt(args[0])
	if err != nil {
		return err
	}
	to, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if err := c.session.MoveCommand(h, to); err != nil {
		return err
	}
	c.printListing()
	return nil
}

func (c *Console) link(args []string, link bool) error {
	if len(args) != 2 {
		return errors.New("usage: link|unlink <pos> <card>")
	}
	h, err := c.handleAt(args[0])
	if err != nil {
		return err
	}
	if link {
		err = c.session.Link(h, args[1])
	} else {
		err = c.session.Unlink(h, args[1])
	}
	if err != nil {
		return err
	}
	c.printListing()
	return nil
}

func (c *Console) operand(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: operand <pos> <value|none>")
	}
	h, err := c.handleAt(args[0])
	if err != nil {
		return err
	}
	if strings.EqualFold(args[1], "none") {
		err = c.session.ClearOperand(h)
	} else {
		var v int
		if v, err = parseInt(args[1]); err != nil {
			return err
		}
		err = c.session.SetOperand(h, v)
	}
	if err != nil {
		return err
	}
	c.printListing()
	return nil
}

func (c *Console) condition(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: cond <pos> <condition|none>")
	}
	h, err := c.handleAt(args[0])
	if err != nil {
		return err
	}
	name := args[1]
	if strings.EqualFold(name, "none") {
		name = ""
	}
	cond, err := opcode.ParseCondition(name)
	if err != nil {
		return err
	}
	if err := c.session.SetCondition(h, cond); err != nil {
		return err
	}
	c.printListing()
	return nil
}

func (c *Console) handleAt(arg string) (program.Handle, error) {
	pos, err := parseInt(arg)
	if err != nil {
		return program.NoHandle, err
	}
	return c.session.HandleAt(pos)
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}
