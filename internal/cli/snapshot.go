package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	path, err := ctx.Snapshots.Create()
	if err != nil {
		return err
	}
	fmt.Printf("Created backup: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	snapshots, err := ctx.Snapshots.List()
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Println(dimStyle.Render("no backups yet"))
		return nil
	}

	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f KiB", float64(s.Size)/1024),
			s.Path,
		})
	}
	printTable([]string{"CREATED", "SIZE", "PATH"}, rows)
	return nil
}

type BackupRestoreCmd struct {
	Path string `arg:"" help:"Backup file to restore." type:"path"`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	if !c.Yes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Replace the current database with this backup?").
				Description("The current database is backed up first.").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Restore aborted")
			return nil
		}
	}

	// The store must not hold the file during the swap.
	if err := ctx.Store.Close(); err != nil {
		return err
	}
	if err := ctx.Snapshots.Restore(c.Path); err != nil {
		return err
	}
	fmt.Println("Database restored")
	return nil
}
