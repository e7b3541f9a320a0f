package cli

import (
	"errors"
	"fmt"

	"github.com/liftlog/liftlog/internal/notify"
	"github.com/liftlog/liftlog/internal/storage"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	fmt.Printf("Initialized liftlog storage at: %s\n", ctx.Store.Path())
	return nil
}

type DoctorCmd struct{}

// Run checks the database, migrations, seeded content and the optional
// tray companion.
func (c *DoctorCmd) Run(ctx *Context) error {
	printTitle("liftlog doctor")

	if err := ctx.initStore(); err != nil {
		fmt.Println(warnStyle.Render("  database:  FAILED"))
		return err
	}
	fmt.Println(okStyle.Render("  database:  ok") + dimStyle.Render("  ("+ctx.Store.Path()+")"))

	for _, collection := range storage.Collections() {
		n, err := ctx.Store.Count(ctx.Ctx, collection)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %d records\n", collection+":", n)
	}

	usage, err := ctx.Engine.CalculateStorageUsage(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  storage:   %.1f KiB\n", float64(usage.TotalBytes)/1024)

	if err := ctx.Notifier.Broadcast("doctor.ping", nil); err != nil {
		if errors.Is(err, notify.ErrTrayNotRunning) {
			fmt.Println(dimStyle.Render("  tray:      not running (broadcasts disabled)"))
		} else {
			fmt.Println(warnStyle.Render("  tray:      " + err.Error()))
		}
	} else {
		fmt.Println(okStyle.Render("  tray:      ok"))
	}
	return nil
}
