package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/index"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/session"
)

// Player is the session surface the API drives. Calls must run on the
// control loop, through Loop.Do.
type Player interface {
	Handle(ev session.Event) session.Effect
	Status() session.Status
}

// Dispatcher runs fn on the control loop and waits for it.
type Dispatcher interface {
	Do(ctx context.Context, fn func()) error
}

// Mirror is the read side of the optional Redis mirror.
type Mirror interface {
	Ping(ctx context.Context) error
	MirroredCount(ctx context.Context) (int, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	AllowedHosts   []string           // Host headers allowed to access the API
	AllowedCIDRS   []string           // client addresses allowed to access the API
	WriteBurst     int                // per-client burst for mutating requests
	WritePerMinute int                // per-client refill for mutating requests
	Index          *index.MemoryIndex // published bookmark view, read without the loop
	Player         Player
	Loop           Dispatcher
	Mirror         Mirror // nil when the Redis mirror is disabled
}
