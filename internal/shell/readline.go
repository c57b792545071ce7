package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/version"
	"github.com/chzyer/readline"
)

const prompt = "cuemark> "

// Run reads commands until quit, EOF or ctx is done.
func Run(ctx context.Context, sess Session, loop Dispatcher, historyFile string, log logger.Logger) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sh := New(sess, loop, &linePrompter{rl: rl}, rl.Stdout(), log)
	fmt.Fprintln(rl.Stdout(), version.String()+"  (type help)")

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		quit, err := sh.Execute(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// linePrompter asks questions on the same line editor.
type linePrompter struct {
	rl *readline.Instance
}

func (p *linePrompter) ask(label string) string {
	p.rl.SetPrompt(label)
	defer p.rl.SetPrompt(prompt)
	line, err := p.rl.Readline()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (p *linePrompter) Confirm(question string) bool {
	ans := strings.ToLower(p.ask(question + " [y/N]: "))
	return ans == "y" || ans == "yes"
}

func (p *linePrompter) Choose(question string, options []string) int {
	out := p.rl.Stdout()
	fmt.Fprintln(out, question)
	for i, o := range options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, o)
	}
	ans := p.ask(fmt.Sprintf("Choice [1-%d, default 1]: ", len(options)))
	if ans == "" {
		return 0
	}
	n, err := strconv.Atoi(ans)
	if err != nil || n < 1 || n > len(options) {
		return -1
	}
	return n - 1
}

func completer() *readline.PrefixCompleter {
	types := []readline.PrefixCompleterInterface{
		readline.PcItem("Regular"), readline.PcItem("Start"), readline.PcItem("End"),
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("open", readline.PcItemDynamic(listFiles)),
		readline.PcItem("play"),
		readline.PcItem("pause"),
		readline.PcItem("stop"),
		readline.PcItem("seek"),
		readline.PcItem("drag"),
		readline.PcItem("fwd"),
		readline.PcItem("back"),
		readline.PcItem("vol"),
		readline.PcItem("mark", readline.PcItem("--type", types...)),
		readline.PcItem("edit"),
		readline.PcItem("del"),
		readline.PcItem("clear"),
		readline.PcItem("list"),
		readline.PcItem("goto"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// listFiles completes the path argument of open.
func listFiles(line string) []string {
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "open"))
	dir := filepath.Dir(arg)
	if arg == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		if strings.HasPrefix(name, arg) {
			names = append(names, name)
		}
	}
	return names
}
