package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/computron/pkg/level"
)

// SelectLevel ヘッドレスモードでレベル選択を実行
// reader に *bufio.Reader を渡すと、選択後の残りの入力をそのまま続けて使える
func SelectLevel(levels []level.Entry, timeout time.Duration, reader io.Reader, writer io.Writer) (*level.Entry, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("no levels available")
	}

	// レベルが1つの場合は自動選択
	if len(levels) == 1 {
		fmt.Fprintf(writer, "Auto-selecting level: %s\n", levels[0].DisplayName())
		return &levels[0], nil
	}

	// タイムアウト処理用のコンテキスト
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// レベル一覧を表示
	fmt.Fprintln(writer, "Available levels:")
	for i, e := range levels {
		fmt.Fprintf(writer, "  %d: %s\n", i+1, e.DisplayName())
	}
	fmt.Fprintln(writer)

	// 選択後の入力をコンソールが続けて読めるよう、行単位で必要な分だけ読む
	br, ok := reader.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(reader)
	}
	resultCh := make(chan *level.Entry, 1)
	errCh := make(chan error, 1)

	go func() {
		for {
			fmt.Fprint(writer, "Select a level (1-", len(levels), ") or 'q' to quit: ")
			line, err := br.ReadString('\n')
			if err != nil && line == "" {
				if err == io.EOF {
					errCh <- fmt.Errorf("input closed")
				} else {
					errCh <- fmt.Errorf("failed to read input: %w", err)
				}
				return
			}

			input := strings.TrimSpace(line)

			// 終了コマンド
			if input == "q" || input == "Q" {
				errCh <- fmt.Errorf("user cancelled")
				return
			}

			num, err := strconv.Atoi(input)
			if err != nil {
				fmt.Fprintln(writer, "Invalid input. Please enter a number.")
				continue
			}

			// 範囲チェック
			if num < 1 || num > len(levels) {
				fmt.Fprintf(writer, "Invalid selection. Please enter a number between 1 and %d.\n", len(levels))
				continue
			}

			selected := &levels[num-1]
			fmt.Fprintf(writer, "Selected: %s\n", selected.DisplayName())
			resultCh <- selected
			return
		}
	}()

	// タイムアウトまたは選択完了を待つ
	select {
	case <-ctx.Done():
		return nil, ErrTimeout
	case err := <-errCh:
		return nil, err
	case selected := <-resultCh:
		return selected, nil
	}
}
