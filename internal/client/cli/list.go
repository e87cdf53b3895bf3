package cli

import (
	"context"
	"fmt"
)

func (a *App) List(ctx context.Context) error {
	view := a.tasks.View()
	if len(view.Items) == 0 {
		printlnFn("No tasks yet.")
		return nil
	}

	for _, item := range view.Items {
		if item.Deleted {
			continue
		}
		state := " "
		if item.Completed {
			state = "x"
		}
		printlnFn(fmt.Sprintf("[%s] %s  %s  %s (%d reminders)",
			state, item.ID, item.BaseTime.Local().Format("2006-01-02 15:04"),
			item.Title, len(item.Reminders)))
	}
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	res, err := a.tasks.Sync(ctx)
	if err != nil {
		a.log.Error(ctx, "sync failed", "error", err)
		printlnFn("Error:", err)
		return err
	}

	printlnFn(fmt.Sprintf("Synced: %d applied, %d rejected, %d still queued",
		res.Applied, len(res.Failed), res.Remaining))
	for _, f := range res.Failed {
		printlnFn(fmt.Sprintf("  rejected %s %s: %v", f.Action.Action, f.Action.ResourceID, f.Err))
	}
	return nil
}
