package cli

import (
	"context"
	"os"
	"strings"

	"github.com/mkorolev/studyplan/internal/client/models"
)

// Add interactively collects a schedulable item and hands it to the task
// service. The kind prompt decides which payload variant is built.
func (a *App) Add(ctx context.Context) error {
	kind, err := GetSimpleText(a.reader, "Kind (assignment | lecture | session)", os.Stdout)
	if err != nil {
		return err
	}

	title, err := GetSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	course, err := GetSimpleText(a.reader, "Course id", os.Stdout)
	if err != nil {
		return err
	}

	var payload models.Payload
	switch strings.ToLower(kind) {
	case "assignment":
		due, err := GetTime(a.reader, "Due at", os.Stdout)
		if err != nil {
			return err
		}
		payload = models.Assignment{Title: title, CourseID: course, DueAt: due}

	case "lecture":
		starts, err := GetTime(a.reader, "Starts at", os.Stdout)
		if err != nil {
			return err
		}
		payload = models.Lecture{Title: title, CourseID: course, StartsAt: starts}

	case "session":
		starts, err := GetTime(a.reader, "Starts at", os.Stdout)
		if err != nil {
			return err
		}
		review, err := GetSimpleText(a.reader, "Spaced review? (y/n)", os.Stdout)
		if err != nil {
			return err
		}
		payload = models.StudySession{
			Title:        title,
			CourseID:     course,
			StartsAt:     starts,
			SpacedReview: strings.EqualFold(review, "y"),
		}

	default:
		printlnFn("Unknown kind:", kind)
		return nil
	}

	id, err := a.tasks.CreateSchedulableItem(ctx, payload)
	if err != nil {
		a.log.Error(ctx, "failed to add task", "error", err)
		printlnFn("Error:", err)
		return err
	}

	printlnFn("Added", id)
	return nil
}
