package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/liftlog/liftlog/internal/backup"
	"github.com/liftlog/liftlog/internal/constants"
)

func shareFormat(s string) backup.Format {
	switch s {
	case "json":
		return backup.FormatJSON
	case "csv":
		return backup.FormatCSV
	default:
		return backup.FormatText
	}
}

type ExportCmd struct {
	Format          string `short:"f" help:"Export format (json|csv|txt)." default:"json"`
	Out             string `short:"o" help:"Output directory." type:"path" default:"."`
	From            string `help:"Only include records on or after this date (YYYY-MM-DD)."`
	To              string `help:"Only include records on or before this date (YYYY-MM-DD)."`
	ExcludePersonal bool   `help:"Drop goals and measurements."`
	ExcludeStats    bool   `help:"Drop the derived statistics block."`
	Compact         bool   `help:"Compact JSON output."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	opts := backup.ExportOptions{
		ExcludePersonal: c.ExcludePersonal,
		ExcludeStats:    c.ExcludeStats,
		Compact:         c.Compact,
	}
	if c.From != "" {
		t, err := time.Parse(constants.DateFormat, c.From)
		if err != nil {
			return fmt.Errorf("invalid --from date %q: %w", c.From, err)
		}
		opts.From = &t
	}
	if c.To != "" {
		t, err := time.Parse(constants.DateFormat, c.To)
		if err != nil {
			return fmt.Errorf("invalid --to date %q: %w", c.To, err)
		}
		// inclusive end of day
		t = t.Add(24*time.Hour - time.Nanosecond)
		opts.To = &t
	}

	data, name, err := ctx.Engine.ExportAllData(ctx.Ctx, shareFormat(c.Format), opts)
	if err != nil {
		return err
	}

	path := filepath.Join(c.Out, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exported %d bytes to %s\n", len(data), path)
	return nil
}

type ImportCmd struct {
	Path           string `arg:"" help:"Export file to import (.json or .csv)." type:"path"`
	SkipDuplicates bool   `short:"s" help:"Skip records that already exist."`
}

func (c *ImportCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	report, err := ctx.Engine.ImportData(ctx.Ctx, c.Path, backup.ImportOptions{
		SkipDuplicates: c.SkipDuplicates,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported: %d exercises, %d plans, %d workouts, %d sets\n",
		report.Exercises, report.Plans, report.Workouts, report.Sets)
	if report.Goals+report.Measurements+report.Achievements > 0 {
		fmt.Printf("Progress: %d goals, %d measurements, %d achievements\n",
			report.Goals, report.Measurements, report.Achievements)
	}
	if report.Skipped > 0 {
		fmt.Printf("Skipped:  %d\n", report.Skipped)
	}
	for _, w := range report.Warnings {
		fmt.Println(warnStyle.Render("warning: " + w))
	}
	for _, e := range report.Errors {
		fmt.Println(warnStyle.Render("error: " + e))
	}
	return nil
}

type CleanupCmd struct {
	Days int  `short:"d" help:"Delete finished workouts older than this many days." default:"365"`
	Yes  bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CleanupCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete workouts and measurements older than %d days?", c.Days)).
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cleanup aborted")
			return nil
		}
	}

	result, err := ctx.Engine.CleanupOldData(ctx.Ctx, c.Days)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d workouts, %d sets, %d measurements, %d orphaned exercises\n",
		result.Workouts, result.Sets, result.Measurements, result.OrphanExercises)
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompts."`
}

func (c *ResetCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Erase ALL liftlog data? This cannot be undone.").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Reset aborted")
			return nil
		}
	}

	result, err := ctx.Engine.ResetAllData(ctx.Ctx)
	if err != nil {
		return err
	}
	for collection, n := range result.Counts {
		fmt.Printf("  %-10s %d removed\n", collection+":", n)
	}
	fmt.Printf("  settings:  %d removed\n", result.Settings)
	return nil
}

type UsageCmd struct{}

func (c *UsageCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}
	usage, err := ctx.Engine.CalculateStorageUsage(ctx.Ctx)
	if err != nil {
		return err
	}

	printTitle("storage usage")
	fmt.Printf("total: %.1f KiB", float64(usage.TotalBytes)/1024)
	if usage.Estimated {
		fmt.Print(dimStyle.Render(" (estimated)"))
	}
	fmt.Println()
	for collection, bytes := range usage.PerRecord {
		fmt.Printf("  %-10s %.1f KiB\n", collection+":", float64(bytes)/1024)
	}
	return nil
}
