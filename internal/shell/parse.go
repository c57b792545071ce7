package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/library"
)

// Kind identifies a shell command.
type Kind int

const (
	KindNone Kind = iota
	KindOpen
	KindToggle
	KindStop
	KindSeek
	KindDrag
	KindRelative
	KindVolume
	KindMark
	KindEdit
	KindDelete
	KindClear
	KindList
	KindGoto
	KindStatus
	KindHelp
	KindQuit
)

// Command is a parsed input line.
type Command struct {
	Kind Kind

	Path   string
	Policy library.ConflictPolicy

	// Positions holds one slider position for seek, several for drag.
	Positions []int
	OffsetMs  int
	Percent   int

	// Number is the 1-based list entry for edit, del and goto.
	Number int

	Name    string
	HasName bool
	Type    domain.BookmarkType
	HasType bool

	AdjustSeconds  int
	UseCurrentTime bool
}

// Parse turns an input line into a Command. seekStep is the default offset
// for fwd and back.
func Parse(line string, seekStep int) (Command, error) {
	args, err := tokenize(line)
	if err != nil {
		return Command{}, err
	}
	if len(args) == 0 {
		return Command{Kind: KindNone}, nil
	}

	name, args := strings.ToLower(args[0]), args[1:]
	switch name {
	case "open", "o":
		return parseOpen(args)
	case "play", "pause", "p", "toggle":
		return noArgs(KindToggle, name, args)
	case "stop", "s":
		return noArgs(KindStop, name, args)
	case "seek":
		if len(args) != 1 {
			return Command{}, usage("seek <0..1000>")
		}
		p, err := intArg(args[0], "position")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindSeek, Positions: []int{p}}, nil
	case "drag":
		if len(args) == 0 {
			return Command{}, usage("drag <pos> [pos...]")
		}
		positions := make([]int, 0, len(args))
		for _, a := range args {
			p, err := intArg(a, "position")
			if err != nil {
				return Command{}, err
			}
			positions = append(positions, p)
		}
		return Command{Kind: KindDrag, Positions: positions}, nil
	case "fwd", "forward", "back", "rew":
		offset := seekStep
		if len(args) > 1 {
			return Command{}, usage(name + " [ms]")
		}
		if len(args) == 1 {
			ms, err := intArg(args[0], "offset")
			if err != nil {
				return Command{}, err
			}
			if ms < 0 {
				return Command{}, usage(name + " [ms]")
			}
			offset = ms
		}
		if name == "back" || name == "rew" {
			offset = -offset
		}
		return Command{Kind: KindRelative, OffsetMs: offset}, nil
	case "vol", "volume":
		if len(args) != 1 {
			return Command{}, usage("vol <0..100>")
		}
		v, err := intArg(args[0], "volume")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindVolume, Percent: v}, nil
	case "mark", "b", "bookmark":
		return parseMark(args)
	case "edit", "e":
		return parseEdit(args)
	case "del", "delete", "rm":
		n, err := numberArg(args, "del <n>")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDelete, Number: n}, nil
	case "clear":
		return noArgs(KindClear, name, args)
	case "list", "ls", "l":
		return noArgs(KindList, name, args)
	case "goto", "g":
		n, err := numberArg(args, "goto <n>")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindGoto, Number: n}, nil
	case "status", "st":
		return noArgs(KindStatus, name, args)
	case "help", "h", "?":
		return Command{Kind: KindHelp}, nil
	case "quit", "exit", "q":
		return noArgs(KindQuit, name, args)
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q (type help)", domain.ErrValidation, name)
	}
}

func parseOpen(args []string) (Command, error) {
	cmd := Command{Kind: KindOpen, Policy: library.Ask}
	for _, a := range args {
		switch a {
		case "--overwrite":
			cmd.Policy = library.Overwrite
		case "--use-existing":
			cmd.Policy = library.UseExisting
		default:
			if strings.HasPrefix(a, "--") || cmd.Path != "" {
				return Command{}, usage("open <path> [--overwrite|--use-existing]")
			}
			cmd.Path = a
		}
	}
	if cmd.Path == "" {
		return Command{}, usage("open <path> [--overwrite|--use-existing]")
	}
	return cmd, nil
}

func parseMark(args []string) (Command, error) {
	cmd := Command{Kind: KindMark}
	var words []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--type" || args[i] == "-t" {
			if i+1 >= len(args) {
				return Command{}, usage("mark [--type Regular|Start|End] [name]")
			}
			t, err := domain.ParseBookmarkType(args[i+1])
			if err != nil {
				return Command{}, err
			}
			cmd.Type, cmd.HasType = t, true
			i++
			continue
		}
		words = append(words, args[i])
	}
	if len(words) > 0 {
		cmd.Name, cmd.HasName = strings.Join(words, " "), true
	}
	return cmd, nil
}

func parseEdit(args []string) (Command, error) {
	const help = "edit <n> [--name N] [--type T] [--adjust S] [--now]"
	if len(args) == 0 {
		return Command{}, usage(help)
	}
	n, err := numberArg(args[:1], help)
	if err != nil {
		return Command{}, err
	}

	cmd := Command{Kind: KindEdit, Number: n}
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		flag := rest[i]
		if flag == "--now" {
			cmd.UseCurrentTime = true
			continue
		}
		if i+1 >= len(rest) {
			return Command{}, usage(help)
		}
		val := rest[i+1]
		i++
		switch flag {
		case "--name":
			cmd.Name, cmd.HasName = val, true
		case "--type":
			t, err := domain.ParseBookmarkType(val)
			if err != nil {
				return Command{}, err
			}
			cmd.Type, cmd.HasType = t, true
		case "--adjust":
			s, err := intArg(val, "adjust")
			if err != nil {
				return Command{}, err
			}
			cmd.AdjustSeconds = s
		default:
			return Command{}, usage(help)
		}
	}
	return cmd, nil
}

func noArgs(kind Kind, name string, args []string) (Command, error) {
	if len(args) != 0 {
		return Command{}, usage(name)
	}
	return Command{Kind: kind}, nil
}

func numberArg(args []string, help string) (int, error) {
	if len(args) != 1 {
		return 0, usage(help)
	}
	n, err := intArg(args[0], "number")
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: bookmark number must be >= 1", domain.ErrValidation)
	}
	return n, nil
}

func intArg(s, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrValidation, what, s)
	}
	return n, nil
}

func usage(help string) error {
	return fmt.Errorf("%w: usage: %s", domain.ErrValidation, help)
}

// tokenize splits on whitespace and honours single and double quotes, so
// paths and names may contain spaces.
func tokenize(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", domain.ErrValidation)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
