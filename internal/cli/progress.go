package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

type ProgressAddCmd struct {
	Kind  string  `arg:"" help:"Record kind (goal|measurement|achievement)."`
	Name  string  `arg:"" help:"Record name, e.g. 'bodyweight'."`
	Value float64 `arg:"" help:"Recorded value."`
	Unit  string  `short:"u" help:"Unit, e.g. kg."`
	Date  string  `short:"d" help:"Date (YYYY-MM-DD), default today."`
}

func (c *ProgressAddCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	rec := &models.ProgressRecord{
		Kind:  models.ProgressKind(c.Kind),
		Name:  c.Name,
		Value: c.Value,
		Unit:  c.Unit,
	}
	if c.Date != "" {
		d, err := time.Parse(constants.DateFormat, c.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", c.Date, err)
		}
		rec.Date = d
	}

	id, err := ctx.Store.Add(ctx.Ctx, storage.CollectionProgress, rec)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s: %s = %g%s (ID: %d)\n", rec.Kind, rec.Name, rec.Value, rec.Unit, id)
	return nil
}

type ProgressListCmd struct {
	Kind string `short:"k" help:"Filter by kind (goal|measurement|achievement)."`
}

func (c *ProgressListCmd) Run(ctx *Context) error {
	if err := ctx.initStore(); err != nil {
		return err
	}

	var (
		records []*models.ProgressRecord
		err     error
	)
	if c.Kind != "" {
		records, err = storage.GetByIndex[models.ProgressRecord](ctx.Ctx, ctx.Store,
			storage.CollectionProgress, "kind", c.Kind)
	} else {
		records, err = storage.GetAll[models.ProgressRecord](ctx.Ctx, ctx.Store,
			storage.CollectionProgress, storage.ListOptions{SortBy: "date"})
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Date.Format(constants.DateFormat),
			string(r.Kind),
			r.Name,
			fmt.Sprintf("%g%s", r.Value, r.Unit),
		})
	}
	printTable([]string{"ID", "DATE", "KIND", "NAME", "VALUE"}, rows)
	return nil
}
