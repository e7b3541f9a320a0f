// Package cli implements the liftlog command surface over the core
// packages. Commands are kong structs receiving a shared Context.
package cli

import (
	"context"

	"github.com/liftlog/liftlog/internal/backup"
	"github.com/liftlog/liftlog/internal/events"
	"github.com/liftlog/liftlog/internal/manager"
	"github.com/liftlog/liftlog/internal/notify"
	"github.com/liftlog/liftlog/internal/storage"
)

type Context struct {
	Ctx       context.Context
	Store     *storage.Store
	Bus       *events.Bus
	Exercises *manager.ExerciseManager
	Workouts  *manager.WorkoutManager
	Plans     *manager.PlanManager
	Engine    *backup.Engine
	Snapshots *backup.Snapshotter
	Notifier  *notify.Notifier

	// CacheDBPath locates the offline gateway's database file.
	CacheDBPath string
}

// initStore opens the database; most commands call this first.
func (c *Context) initStore() error {
	return c.Store.Init(c.Ctx)
}

// attachSession adopts a persisted active workout into the in-memory
// session. No active workout is fine here; the command that needs one
// surfaces the error itself.
func (c *Context) attachSession() {
	_, _ = c.Workouts.AttachSession(c.Ctx)
}
