package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/index"
	"github.com/MrSnakeDoc/cuemark/internal/library"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/player/playertest"
	"github.com/MrSnakeDoc/cuemark/internal/session"
	"github.com/MrSnakeDoc/cuemark/internal/store/jsonfile"
)

// inline runs dispatched work on the calling goroutine.
type inline struct{}

func (inline) Do(_ context.Context, fn func()) error {
	fn()
	return nil
}

type noTimers struct{}

func (noTimers) After(time.Duration, func()) {}

// scripted answers prompts from fixed queues and records the questions.
type scripted struct {
	confirms  []bool
	choices   []int
	questions []string
}

func (s *scripted) Confirm(q string) bool {
	s.questions = append(s.questions, q)
	if len(s.confirms) == 0 {
		return false
	}
	ans := s.confirms[0]
	s.confirms = s.confirms[1:]
	return ans
}

func (s *scripted) Choose(q string, _ []string) int {
	s.questions = append(s.questions, q)
	if len(s.choices) == 0 {
		return -1
	}
	ans := s.choices[0]
	s.choices = s.choices[1:]
	return ans
}

type fixture struct {
	sh     *Shell
	eng    *playertest.Fake
	prompt *scripted
	out    *bytes.Buffer
	root   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("error", false, "")
	root := t.TempDir()
	im, err := library.NewImporter(filepath.Join(root, "audio_files"), log)
	if err != nil {
		t.Fatal(err)
	}
	eng := playertest.New()
	sess := session.New(session.Deps{
		Engine:    eng,
		Store:     jsonfile.NewStore(filepath.Join(root, "bookmarks.json"), log),
		Importer:  im,
		Views:     index.NewMemoryIndex(),
		Scheduler: noTimers{},
		Logger:    log,
	}, session.Options{InitialVolume: 50})

	f := &fixture{eng: eng, prompt: &scripted{}, out: &bytes.Buffer{}, root: root}
	f.sh = New(sess, inline{}, f.prompt, f.out, log)
	return f
}

func (f *fixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	f.out.Reset()
	for _, line := range lines {
		quit, err := f.sh.Execute(context.Background(), line)
		if err != nil {
			t.Fatalf("Execute(%q) error = %v", line, err)
		}
		if quit {
			t.Fatalf("Execute(%q) requested quit", line)
		}
	}
	return f.out.String()
}

func (f *fixture) source(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(f.root, name)
	if err := os.WriteFile(p, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExecuteQuitAndHelp(t *testing.T) {
	f := newFixture(t)
	quit, err := f.sh.Execute(context.Background(), "quit")
	if err != nil || !quit {
		t.Errorf("quit -> (%v, %v), want (true, nil)", quit, err)
	}
	if out := f.run(t, "help"); !strings.Contains(out, "goto <n>") {
		t.Errorf("help output missing commands:\n%s", out)
	}
}

func TestExecuteReportsParseErrors(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "seek nowhere")
	if !strings.Contains(out, "❌") || !strings.Contains(out, "position must be an integer") {
		t.Errorf("output = %q", out)
	}
}

func TestOpenMarkAndList(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "track.mp3")

	out := f.run(t, "open "+src)
	if !strings.Contains(out, "Loaded: track.mp3") {
		t.Fatalf("open output = %q", out)
	}

	f.eng.Position = 65000
	f.run(t, "mark --type start Intro")
	f.eng.Position = 5000
	f.run(t, "mark")

	out = f.run(t, "list")
	want := "📁 track.mp3\n" +
		"  1  🔖 Bookmark at 5:000 - 00:05 [Regular]\n" +
		"  2  ▶️ Intro - 01:05 [Start]\n"
	if out != want {
		t.Errorf("list output =\n%s\nwant\n%s", out, want)
	}
}

func TestListEmpty(t *testing.T) {
	f := newFixture(t)
	if out := f.run(t, "list"); out != "No bookmarks\n" {
		t.Errorf("list output = %q", out)
	}
}

func TestOpenConflictPrompts(t *testing.T) {
	f := newFixture(t)
	src := f.source(t, "dup.mp3")
	f.run(t, "open "+src)

	f.prompt.choices = []int{2}
	out := f.run(t, "open "+src)
	if !strings.Contains(out, "Canceled") {
		t.Errorf("cancel output = %q", out)
	}

	f.prompt.choices = []int{0}
	out = f.run(t, "open "+src)
	if !strings.Contains(out, "Loaded: dup.mp3") {
		t.Errorf("use-existing output = %q", out)
	}
	if len(f.prompt.questions) != 2 {
		t.Errorf("prompted %d times, want 2", len(f.prompt.questions))
	}
}

func TestEditKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	f.run(t, "open "+f.source(t, "a.mp3"))
	f.eng.Position = 10000
	f.run(t, "mark --type end Outro")

	out := f.run(t, "edit 1 --adjust 2")
	if !strings.Contains(out, "Bookmark updated to 'Outro' (End)") {
		t.Errorf("edit output = %q", out)
	}
	out = f.run(t, "list")
	if !strings.Contains(out, "⏹️ Outro - 00:12 [End]") {
		t.Errorf("list after edit = %q", out)
	}
}

func TestEditUnknownNumber(t *testing.T) {
	f := newFixture(t)
	if out := f.run(t, "edit 3 --name x"); !strings.Contains(out, "no bookmark number 3") {
		t.Errorf("output = %q", out)
	}
}

func TestDeleteAsksFirst(t *testing.T) {
	f := newFixture(t)
	f.run(t, "open "+f.source(t, "a.mp3"))
	f.run(t, "mark keep")

	f.prompt.confirms = []bool{false}
	f.run(t, "del 1")
	if out := f.run(t, "list"); !strings.Contains(out, "keep") {
		t.Fatal("declined delete removed the bookmark")
	}

	f.prompt.confirms = []bool{true}
	if out := f.run(t, "del 1"); !strings.Contains(out, "Bookmark deleted") {
		t.Errorf("delete output = %q", out)
	}
	if out := f.run(t, "list"); out != "No bookmarks\n" {
		t.Errorf("list after delete = %q", out)
	}
}

func TestClearAsksFirst(t *testing.T) {
	f := newFixture(t)
	f.run(t, "open "+f.source(t, "a.mp3"))
	f.run(t, "mark one")

	f.prompt.confirms = []bool{true}
	if out := f.run(t, "clear"); !strings.Contains(out, "All bookmarks cleared") {
		t.Errorf("clear output = %q", out)
	}
}

func TestGotoOtherFileConfirms(t *testing.T) {
	f := newFixture(t)
	f.run(t, "open "+f.source(t, "a.mp3"))
	f.eng.Position = 4000
	f.run(t, "mark hook")
	f.run(t, "open "+f.source(t, "b.mp3"))

	f.prompt.confirms = []bool{false}
	f.run(t, "goto 1")
	if f.eng.Playing {
		t.Fatal("declined cross-file goto started playback")
	}
	if len(f.prompt.questions) != 1 || !strings.Contains(f.prompt.questions[0], "'a.mp3'") {
		t.Errorf("questions = %q", f.prompt.questions)
	}

	f.prompt.confirms = []bool{true}
	out := f.run(t, "goto 1")
	if !strings.Contains(out, "Playing from bookmark: hook (Regular)") {
		t.Errorf("goto output = %q", out)
	}
	if !f.eng.Playing || f.eng.Position != 4000 {
		t.Errorf("playing=%v position=%d", f.eng.Playing, f.eng.Position)
	}
}

func TestTransportCommands(t *testing.T) {
	f := newFixture(t)
	if out := f.run(t, "play"); !strings.Contains(out, "no audio file is loaded") {
		t.Errorf("play without media = %q", out)
	}

	f.run(t, "open "+f.source(t, "a.mp3"))
	f.run(t, "play")
	if !f.eng.Playing {
		t.Error("play did not start playback")
	}
	f.run(t, "fwd 2000")
	if f.eng.Position != 2000 {
		t.Errorf("position after fwd = %d", f.eng.Position)
	}
	f.run(t, "vol 20")
	if f.eng.Vol != 20 {
		t.Errorf("volume = %d", f.eng.Vol)
	}
	if out := f.run(t, "status"); !strings.Contains(out, "▶ a.mp3  00:02 / 01:00  vol 20%") {
		t.Errorf("status = %q", out)
	}
	f.run(t, "stop")
	if f.eng.Playing || f.eng.Position != 0 {
		t.Error("stop did not rewind")
	}
}

func TestDragCoalesces(t *testing.T) {
	f := newFixture(t)
	f.run(t, "open "+f.source(t, "a.mp3"))
	f.eng.Reset()

	f.run(t, "drag 100 200 300 900")
	calls := f.eng.Calls("set_position")
	if len(calls) != 1 || calls[0].Arg != 6000 {
		t.Errorf("set_position calls = %+v, want only the first (6000)", calls)
	}
}
