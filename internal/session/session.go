// Package session owns the player state and applies user events to it.
// A Session is not safe for concurrent use; every call is made from the
// control loop.
package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/library"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/player"
	"github.com/MrSnakeDoc/cuemark/internal/seek"
)

// Store is the persistent bookmark list.
type Store interface {
	LoadAll() []domain.Bookmark
	Append(b domain.Bookmark) error
	Update(key domain.Key, changes domain.Changes) (domain.Bookmark, error)
	Delete(key domain.Key) error
	ClearAll() error
}

// Importer resolves a selected file to the path that gets loaded.
type Importer interface {
	Import(path string, policy library.ConflictPolicy) (library.Result, error)
}

// ViewPublisher receives every rebuilt view.
type ViewPublisher interface {
	Replace(view domain.View)
}

// Mirror receives the full list after each reload.
type Mirror interface {
	Publish(bookmarks []domain.Bookmark)
}

// Deps are the collaborators of a session. Mirror is optional.
type Deps struct {
	Engine    player.Engine
	Store     Store
	Importer  Importer
	Views     ViewPublisher
	Mirror    Mirror
	Clock     seek.Clock
	Scheduler seek.Scheduler
	Logger    logger.Logger
}

// Options tunes a session.
type Options struct {
	InitialVolume int
	SeekStep      time.Duration
	Seek          seek.Options
}

type Session struct {
	engine   player.Engine
	store    Store
	importer Importer
	views    ViewPublisher
	mirror   Mirror
	coord    *seek.Coordinator
	clock    seek.Clock
	logger   logger.Logger

	seekStep    int
	currentFile string
	view        domain.View
}

// New builds a session, applies the initial volume and publishes the
// bookmarks already on disk.
func New(deps Deps, opts Options) *Session {
	if deps.Clock == nil {
		deps.Clock = seek.SystemClock{}
	}
	step := int(opts.SeekStep / time.Millisecond)
	if step <= 0 {
		step = 5000
	}

	s := &Session{
		engine:   deps.Engine,
		store:    deps.Store,
		importer: deps.Importer,
		views:    deps.Views,
		mirror:   deps.Mirror,
		clock:    deps.Clock,
		logger:   deps.Logger,
		seekStep: step,
		coord:    seek.NewCoordinator(deps.Engine, deps.Clock, deps.Scheduler, opts.Seek, deps.Logger.Named("seek")),
	}
	s.engine.SetVolume(opts.InitialVolume)
	s.reload()
	return s
}

// SeekStep is the default relative seek in milliseconds.
func (s *Session) SeekStep() int { return s.seekStep }

// CurrentFile is the loaded file, or "" when nothing is loaded.
func (s *Session) CurrentFile() string { return s.currentFile }

// View is the last published bookmark view.
func (s *Session) View() domain.View { return s.view }

// Handle applies ev and reports what the user should see.
func (s *Session) Handle(ev Event) Effect {
	switch e := ev.(type) {
	case OpenFile:
		return s.openFile(e)
	case TogglePlay:
		return s.togglePlay()
	case Stop:
		return s.stop()
	case SeekTo:
		s.coord.RequestSeek(e.Position)
		return Effect{}
	case SeekRelative:
		s.coord.SeekRelative(e.OffsetMs)
		return Effect{}
	case SetVolume:
		v := player.ClampVolume(e.Percent)
		s.engine.SetVolume(v)
		return Effect{Message: fmt.Sprintf("Volume %d%%", v)}
	case AddBookmark:
		return s.addBookmark(e)
	case EditBookmark:
		return s.editBookmark(e)
	case DeleteBookmark:
		return s.deleteBookmark(e)
	case ClearBookmarks:
		return s.clearBookmarks()
	case PlayBookmark:
		return s.playBookmark(e)
	case Tick:
		s.coord.Tick()
		return Effect{}
	default:
		return failed(fmt.Errorf("%w: unknown event %T", domain.ErrValidation, ev))
	}
}

// Close stops playback and releases the engine.
func (s *Session) Close() error {
	s.coord.Reset()
	if s.engine.HasMedia() {
		s.engine.Stop()
	}
	return s.engine.Close()
}

func (s *Session) openFile(e OpenFile) Effect {
	res, err := s.importer.Import(e.Path, e.Policy)
	if err != nil {
		return failed(err)
	}
	if err := s.load(res.Path); err != nil {
		return failed(err)
	}
	return Effect{
		Message: "Loaded: " + filepath.Base(res.Path),
		Warning: res.CopyErr,
	}
}

// load swaps the engine media. On failure the session returns to the empty
// state.
func (s *Session) load(path string) error {
	s.coord.Reset()
	if s.engine.HasMedia() {
		s.engine.Stop()
	}
	if err := s.engine.Load(path); err != nil {
		s.resetPlayer()
		return fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	s.currentFile = path
	s.logger.Info("loaded audio file",
		logger.String("path", path),
		logger.Int("duration_ms", s.engine.DurationMs()))
	return nil
}

func (s *Session) resetPlayer() {
	s.coord.Reset()
	s.engine.Unload()
	s.currentFile = ""
}

func (s *Session) togglePlay() Effect {
	if s.engine.IsPlaying() {
		s.engine.Pause()
		return Effect{Message: "Paused"}
	}
	if s.currentFile == "" {
		return failed(domain.ErrNoMedia)
	}
	if err := s.engine.Play(); err != nil {
		return failed(fmt.Errorf("failed to play: %w", err))
	}
	return Effect{Message: "Playing"}
}

func (s *Session) stop() Effect {
	s.coord.Reset()
	if s.engine.HasMedia() {
		s.engine.Stop()
	}
	return Effect{Message: "Stopped"}
}

func (s *Session) addBookmark(e AddBookmark) Effect {
	if s.currentFile == "" || !s.engine.HasMedia() {
		return failed(domain.ErrNoMedia)
	}
	pos := s.engine.PositionMs()
	if pos < 0 {
		return failed(fmt.Errorf("%w: audio position unavailable", domain.ErrNoMedia))
	}

	b, err := domain.NewBookmark(s.currentFile, pos, strings.TrimSpace(e.Name), e.Type, s.clock.Now())
	if err != nil {
		return failed(err)
	}
	if err := s.store.Append(b); err != nil {
		return failed(err)
	}
	s.reload()
	return Effect{
		Message:     fmt.Sprintf("Bookmark added: %s (%s)", b.Name, b.Type),
		ViewChanged: true,
	}
}

func (s *Session) editBookmark(e EditBookmark) Effect {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return failed(fmt.Errorf("%w: bookmark name cannot be empty", domain.ErrValidation))
	}
	typ := e.Type
	if typ == "" {
		typ = domain.TypeRegular
	}

	adjust := e.AdjustSeconds
	if e.UseCurrentTime {
		if s.currentFile == "" || e.Key.File != s.currentFile || !s.engine.HasMedia() {
			return failed(fmt.Errorf("%w: current time is only available for the loaded file", domain.ErrValidation))
		}
		pos := s.engine.PositionMs()
		if pos < 0 {
			return failed(fmt.Errorf("%w: audio position unavailable", domain.ErrNoMedia))
		}
		adjust = floorDiv(pos-e.Key.TimeMs, 1000)
	}

	updated, err := s.store.Update(e.Key, domain.Changes{
		Name:      name,
		Type:      typ,
		TimeMs:    domain.AdjustTime(e.Key.TimeMs, domain.ClampAdjust(e.Key.TimeMs, adjust)),
		Timestamp: s.clock.Now().Format(domain.TimestampLayout),
	})
	if err != nil {
		return failed(err)
	}
	s.reload()
	return Effect{
		Message:     fmt.Sprintf("Bookmark updated to '%s' (%s)", updated.Name, updated.Type),
		ViewChanged: true,
	}
}

func (s *Session) deleteBookmark(e DeleteBookmark) Effect {
	if err := s.store.Delete(e.Key); err != nil {
		return failed(err)
	}
	s.reload()
	return Effect{Message: "Bookmark deleted", ViewChanged: true}
}

func (s *Session) clearBookmarks() Effect {
	if err := s.store.ClearAll(); err != nil {
		return failed(err)
	}
	s.reload()
	return Effect{Message: "All bookmarks cleared", ViewChanged: true}
}

func (s *Session) playBookmark(e PlayBookmark) Effect {
	n := s.view.Find(e.Key)
	if n == 0 {
		return failed(fmt.Errorf("%w: %s", domain.ErrNotFound, e.Key.Name))
	}
	b, _ := s.view.Entry(n)

	if b.File != s.currentFile {
		if !e.LoadFile {
			return failed(&OtherFileError{Filename: b.Filename})
		}
		res, err := s.importer.Import(b.File, library.UseExisting)
		if err != nil {
			return failed(err)
		}
		if err := s.load(res.Path); err != nil {
			return failed(err)
		}
	}

	s.coord.Reset()
	if err := s.engine.SetPositionMs(b.TimeMs); err != nil {
		return failed(fmt.Errorf("failed to seek to bookmark: %w", err))
	}
	if err := s.engine.Play(); err != nil {
		return failed(fmt.Errorf("failed to play: %w", err))
	}
	return Effect{Message: fmt.Sprintf("Playing from bookmark: %s (%s)", b.Name, b.Type)}
}

// reload rereads the whole list from storage and republishes it.
func (s *Session) reload() {
	list := s.store.LoadAll()
	s.view = domain.BuildView(list)
	if s.views != nil {
		s.views.Replace(s.view)
	}
	if s.mirror != nil {
		s.mirror.Publish(list)
	}
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
