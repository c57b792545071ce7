package shell

import (
	"errors"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/library"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: KindNone}},
		{"   ", Command{Kind: KindNone}},
		{"open song.mp3", Command{Kind: KindOpen, Path: "song.mp3", Policy: library.Ask}},
		{`open "my song.mp3" --overwrite`, Command{Kind: KindOpen, Path: "my song.mp3", Policy: library.Overwrite}},
		{"open --use-existing a.wav", Command{Kind: KindOpen, Path: "a.wav", Policy: library.UseExisting}},
		{"p", Command{Kind: KindToggle}},
		{"PLAY", Command{Kind: KindToggle}},
		{"stop", Command{Kind: KindStop}},
		{"seek 500", Command{Kind: KindSeek, Positions: []int{500}}},
		{"drag 100 200 900", Command{Kind: KindDrag, Positions: []int{100, 200, 900}}},
		{"fwd", Command{Kind: KindRelative, OffsetMs: 5000}},
		{"back", Command{Kind: KindRelative, OffsetMs: -5000}},
		{"fwd 250", Command{Kind: KindRelative, OffsetMs: 250}},
		{"back 1000", Command{Kind: KindRelative, OffsetMs: -1000}},
		{"vol 80", Command{Kind: KindVolume, Percent: 80}},
		{"mark", Command{Kind: KindMark}},
		{"mark chorus start", Command{Kind: KindMark, Name: "chorus start", HasName: true}},
		{"mark --type end outro", Command{Kind: KindMark, Name: "outro", HasName: true, Type: domain.TypeEnd, HasType: true}},
		{"edit 2 --name 'new name' --type Start --adjust -3", Command{
			Kind: KindEdit, Number: 2, Name: "new name", HasName: true,
			Type: domain.TypeStart, HasType: true, AdjustSeconds: -3,
		}},
		{"edit 1 --now", Command{Kind: KindEdit, Number: 1, UseCurrentTime: true}},
		{"del 3", Command{Kind: KindDelete, Number: 3}},
		{"clear", Command{Kind: KindClear}},
		{"ls", Command{Kind: KindList}},
		{"goto 4", Command{Kind: KindGoto, Number: 4}},
		{"status", Command{Kind: KindStatus}},
		{"?", Command{Kind: KindHelp}},
		{"quit", Command{Kind: KindQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line, 5000)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	lines := []string{
		"dance",
		"open",
		"open a.mp3 b.mp3",
		"open a.mp3 --force",
		"seek",
		"seek abc",
		"drag",
		"fwd -5",
		"fwd 1 2",
		"vol",
		"mark --type",
		"mark --type sideways x",
		"edit",
		"edit x",
		"edit 0",
		"edit 1 --name",
		"edit 1 --bogus v",
		"del",
		"goto -1",
		"stop now",
		`open "unterminated`,
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line, 5000)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Parse(%q) error = %v, want ErrValidation", line, err)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got, err := tokenize(`mark  "a b"  'c d' e""`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"mark", "a b", "c d", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %q, want %q", got, want)
	}
}
