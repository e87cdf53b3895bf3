package cli

import (
	"context"
	"errors"

	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/mkorolev/studyplan/internal/client/services"
)

func (a *App) resourceOf(id string) (models.ResourceType, bool) {
	view := a.tasks.View()
	if item := view.Find(id); item != nil {
		return item.Resource, true
	}
	return "", false
}

func (a *App) report(err error) {
	if errors.Is(err, services.ErrStillSyncing) {
		printlnFn("Still syncing, try again in a moment.")
		return
	}
	printlnFn("Error:", err)
}

func (a *App) Complete(ctx context.Context, id string) error {
	resource, ok := a.resourceOf(id)
	if !ok {
		printlnFn("Unknown task:", id)
		return nil
	}
	if err := a.tasks.CompleteTask(ctx, resource, id); err != nil {
		a.report(err)
		return err
	}
	printlnFn("Completed", id)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	resource, ok := a.resourceOf(id)
	if !ok {
		printlnFn("Unknown task:", id)
		return nil
	}
	if err := a.tasks.DeleteTask(ctx, resource, id); err != nil {
		a.report(err)
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

func (a *App) Restore(ctx context.Context, id string) error {
	resource, ok := a.resourceOf(id)
	if !ok {
		printlnFn("Unknown task:", id)
		return nil
	}
	if err := a.tasks.RestoreTask(ctx, resource, id); err != nil {
		a.report(err)
		return err
	}
	printlnFn("Restored", id)
	return nil
}
