// Package shell is the interactive terminal front end. Every session access
// is dispatched onto the control loop; prompts run on the caller's goroutine
// so the loop keeps ticking while the user answers.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/library"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/session"
)

// Session is the part of session.Session the shell drives.
type Session interface {
	Handle(ev session.Event) session.Effect
	View() domain.View
	Status() session.Status
	SeekStep() int
}

// Dispatcher runs fn on the control loop and waits for it.
type Dispatcher interface {
	Do(ctx context.Context, fn func()) error
}

// Prompter asks the user to decide.
type Prompter interface {
	Confirm(question string) bool
	// Choose returns the index of the picked option, or -1.
	Choose(question string, options []string) int
}

type Shell struct {
	sess   Session
	loop   Dispatcher
	prompt Prompter
	out    io.Writer
	logger logger.Logger
}

// New creates a shell writing to out.
func New(sess Session, loop Dispatcher, prompt Prompter, out io.Writer, log logger.Logger) *Shell {
	return &Shell{
		sess:   sess,
		loop:   loop,
		prompt: prompt,
		out:    out,
		logger: log,
	}
}

// Execute runs one input line. It reports quit=true for the quit command.
// User errors are printed; the returned error means the loop is gone.
func (sh *Shell) Execute(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line, sh.step(ctx))
	if err != nil {
		sh.printErr(err)
		return false, nil
	}

	switch cmd.Kind {
	case KindNone:
		return false, nil
	case KindQuit:
		return true, nil
	case KindHelp:
		sh.println(helpText)
		return false, nil
	}
	return false, sh.run(ctx, cmd)
}

func (sh *Shell) run(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindOpen:
		return sh.open(ctx, cmd)
	case KindToggle:
		return sh.handle(ctx, session.TogglePlay{})
	case KindStop:
		return sh.handle(ctx, session.Stop{})
	case KindSeek, KindDrag:
		for _, p := range cmd.Positions {
			if err := sh.handle(ctx, session.SeekTo{Position: p}); err != nil {
				return err
			}
		}
		return nil
	case KindRelative:
		return sh.handle(ctx, session.SeekRelative{OffsetMs: cmd.OffsetMs})
	case KindVolume:
		return sh.handle(ctx, session.SetVolume{Percent: cmd.Percent})
	case KindMark:
		return sh.handle(ctx, session.AddBookmark{Name: cmd.Name, Type: cmd.Type})
	case KindEdit:
		return sh.edit(ctx, cmd)
	case KindDelete:
		return sh.remove(ctx, cmd.Number)
	case KindClear:
		if !sh.prompt.Confirm("Are you sure you want to delete all bookmarks?") {
			return nil
		}
		return sh.handle(ctx, session.ClearBookmarks{})
	case KindList:
		return sh.list(ctx)
	case KindGoto:
		return sh.gotoBookmark(ctx, cmd.Number)
	case KindStatus:
		var st session.Status
		if err := sh.loop.Do(ctx, func() { st = sh.sess.Status() }); err != nil {
			return err
		}
		sh.println(st.Line())
		return nil
	}
	return nil
}

func (sh *Shell) open(ctx context.Context, cmd Command) error {
	eff, err := sh.dispatch(ctx, session.OpenFile{Path: cmd.Path, Policy: cmd.Policy})
	if err != nil {
		return err
	}

	var conflict *library.ConflictError
	if errors.As(eff.Err, &conflict) {
		choice := sh.prompt.Choose(
			fmt.Sprintf("A file named %q already exists in the audio folder.", conflict.Dest),
			[]string{"Use existing file (recommended)", "Overwrite it", "Cancel"},
		)
		policy := library.Cancel
		switch choice {
		case 0:
			policy = library.UseExisting
		case 1:
			policy = library.Overwrite
		}
		if policy == library.Cancel {
			sh.println("Canceled")
			return nil
		}
		eff, err = sh.dispatch(ctx, session.OpenFile{Path: cmd.Path, Policy: policy})
		if err != nil {
			return err
		}
	}
	sh.report(eff)
	return nil
}

func (sh *Shell) edit(ctx context.Context, cmd Command) error {
	var eff session.Effect
	err := sh.loop.Do(ctx, func() {
		b, ok := sh.sess.View().Entry(cmd.Number)
		if !ok {
			eff = session.Effect{Err: noSuchEntry(cmd.Number)}
			return
		}
		ev := session.EditBookmark{
			Key:            b.Key(),
			Name:           b.Name,
			Type:           b.Type,
			AdjustSeconds:  cmd.AdjustSeconds,
			UseCurrentTime: cmd.UseCurrentTime,
		}
		if cmd.HasName {
			ev.Name = cmd.Name
		}
		if cmd.HasType {
			ev.Type = cmd.Type
		}
		eff = sh.sess.Handle(ev)
	})
	if err != nil {
		return err
	}
	sh.report(eff)
	return nil
}

func (sh *Shell) remove(ctx context.Context, n int) error {
	b, ok, err := sh.entry(ctx, n)
	if err != nil {
		return err
	}
	if !ok {
		sh.printErr(noSuchEntry(n))
		return nil
	}
	if !sh.prompt.Confirm(fmt.Sprintf("Delete bookmark '%s'?", b.Name)) {
		return nil
	}
	return sh.handle(ctx, session.DeleteBookmark{Key: b.Key()})
}

func (sh *Shell) gotoBookmark(ctx context.Context, n int) error {
	b, ok, err := sh.entry(ctx, n)
	if err != nil {
		return err
	}
	if !ok {
		sh.printErr(noSuchEntry(n))
		return nil
	}

	eff, err := sh.dispatch(ctx, session.PlayBookmark{Key: b.Key()})
	if err != nil {
		return err
	}
	var other *session.OtherFileError
	if errors.As(eff.Err, &other) {
		question := fmt.Sprintf("This bookmark is for '%s'. Load this file instead?", other.Filename)
		if !sh.prompt.Confirm(question) {
			return nil
		}
		eff, err = sh.dispatch(ctx, session.PlayBookmark{Key: b.Key(), LoadFile: true})
		if err != nil {
			return err
		}
	}
	sh.report(eff)
	return nil
}

func (sh *Shell) list(ctx context.Context) error {
	var view domain.View
	if err := sh.loop.Do(ctx, func() { view = sh.sess.View() }); err != nil {
		return err
	}
	if view.Len() == 0 {
		sh.println("No bookmarks")
		return nil
	}
	var b strings.Builder
	for _, line := range view.Lines {
		if line.Header {
			fmt.Fprintln(&b, line.Text)
			continue
		}
		fmt.Fprintf(&b, "%3d%s\n", line.Number, line.Text)
	}
	fmt.Fprint(sh.out, b.String())
	return nil
}

func (sh *Shell) entry(ctx context.Context, n int) (domain.Bookmark, bool, error) {
	var (
		b  domain.Bookmark
		ok bool
	)
	err := sh.loop.Do(ctx, func() { b, ok = sh.sess.View().Entry(n) })
	return b, ok, err
}

func (sh *Shell) step(ctx context.Context) int {
	step := 5000
	_ = sh.loop.Do(ctx, func() { step = sh.sess.SeekStep() })
	return step
}

func (sh *Shell) dispatch(ctx context.Context, ev session.Event) (session.Effect, error) {
	var eff session.Effect
	err := sh.loop.Do(ctx, func() { eff = sh.sess.Handle(ev) })
	return eff, err
}

func (sh *Shell) handle(ctx context.Context, ev session.Event) error {
	eff, err := sh.dispatch(ctx, ev)
	if err != nil {
		return err
	}
	sh.report(eff)
	return nil
}

func (sh *Shell) report(eff session.Effect) {
	if eff.Warning != nil {
		sh.println("⚠️  " + eff.Warning.Error() + "; using the original file")
	}
	if eff.Err != nil {
		sh.printErr(eff.Err)
		return
	}
	if eff.Message != "" {
		sh.println(eff.Message)
	}
}

func (sh *Shell) printErr(err error) {
	if errors.Is(err, domain.ErrStorage) {
		sh.logger.Warn("bookmark storage failure", logger.Error(err))
	}
	sh.println("❌ " + err.Error())
}

func (sh *Shell) println(s string) {
	fmt.Fprintln(sh.out, s)
}

func noSuchEntry(n int) error {
	return fmt.Errorf("%w: no bookmark number %d (see list)", domain.ErrValidation, n)
}

const helpText = `Commands:
  open <path> [--overwrite|--use-existing]   load an audio file (Ctrl+O)
  play | pause | p                           toggle playback (Space)
  stop                                       stop and rewind (S)
  seek <0..1000>                             move to a slider position
  drag <pos> [pos...]                        move the slider through positions
  fwd [ms] | back [ms]                       skip forward / back (arrows, default 5000)
  vol <0..100>                               set volume
  mark [--type Regular|Start|End] [name]     bookmark the current position (B)
  edit <n> [--name N] [--type T] [--adjust S] [--now]
                                             edit bookmark n (E)
  del <n>                                    delete bookmark n
  clear                                      delete every bookmark
  list                                       show bookmarks
  goto <n>                                   play from bookmark n
  status                                     show the transport state
  help                                       this text
  quit                                       exit (Ctrl+Q)`
