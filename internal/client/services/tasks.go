package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkorolev/studyplan/internal/client/backend"
	"github.com/mkorolev/studyplan/internal/client/cache"
	"github.com/mkorolev/studyplan/internal/client/config"
	"github.com/mkorolev/studyplan/internal/client/connectivity"
	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/mkorolev/studyplan/internal/client/offline"
	"github.com/mkorolev/studyplan/internal/client/scheduler"
	"github.com/mkorolev/studyplan/internal/client/tempid"
	"github.com/mkorolev/studyplan/internal/logging"
)

var (
	// ErrStillSyncing means the resource was created offline and its
	// server id has not arrived yet. Retryable, not a failure.
	ErrStillSyncing = errors.New("still syncing, retry shortly")

	// ErrLimitExceeded means the mutation would exceed a subscription-tier
	// ceiling.
	ErrLimitExceeded = errors.New("plan limit reached")
)

// TaskService is the mutation facade for schedulable items.
type TaskService interface {
	CreateSchedulableItem(ctx context.Context, payload models.Payload) (string, error)
	UpdateSchedulableItem(ctx context.Context, id string, payload models.Payload) error
	CompleteTask(ctx context.Context, resource models.ResourceType, id string) error
	DeleteTask(ctx context.Context, resource models.ResourceType, id string) error
	RestoreTask(ctx context.Context, resource models.ResourceType, id string) error
	View() models.TaskListView
	ApplyServerView(ctx context.Context, view models.TaskListView) error
	Sync(ctx context.Context) (*offline.ReplayResult, error)
}

type taskService struct {
	client   backend.Client
	queue    *offline.Queue
	resolver *tempid.Resolver
	store    *cache.Store[models.TaskListView]
	monitor  *connectivity.Monitor
	cfg      *config.Config
	log      logging.Logger
	now      func() time.Time

	userMu   sync.RWMutex
	lastUser *models.User
}

func NewTaskService(
	client backend.Client,
	queue *offline.Queue,
	resolver *tempid.Resolver,
	store *cache.Store[models.TaskListView],
	monitor *connectivity.Monitor,
	cfg *config.Config,
	log logging.Logger,
) TaskService {
	return &taskService{
		client:   client,
		queue:    queue,
		resolver: resolver,
		store:    store,
		monitor:  monitor,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *taskService) View() models.TaskListView {
	return s.store.Get()
}

// ApplyServerView installs a freshly fetched server view as the new base;
// pending optimistic layers stay on top.
func (s *taskService) ApplyServerView(ctx context.Context, view models.TaskListView) error {
	return s.store.SetAuthoritative(ctx, view)
}

func (s *taskService) CreateSchedulableItem(ctx context.Context, payload models.Payload) (string, error) {
	resource := payload.GetType()
	if !resource.Valid() {
		return "", fmt.Errorf("%w: resource type %q", backend.ErrInvalid, resource)
	}

	limits := s.currentLimits(ctx)
	if err := s.checkCreateLimits(payload, limits); err != nil {
		return "", err
	}

	schedule, err := s.reminderSchedule(payload, "", limits)
	if err != nil {
		return "", fmt.Errorf("failed to compute reminders: %w", err)
	}

	env, err := models.Wrap(payload)
	if err != nil {
		return "", err
	}
	details := env.Details

	id := s.resolver.New()
	item := models.TaskItem{
		ID:        id,
		Resource:  resource,
		Title:     payload.GetTitle(),
		CourseID:  payload.GetCourseID(),
		BaseTime:  payload.BaseTime(),
		CreatedAt: s.now().UTC(),
		Reminders: reminderTimes(schedule),
	}

	var realID string
	commit := func(ctx context.Context) error {
		if !s.monitor.Online() {
			return s.enqueue(ctx, models.ActionCreate, resource, id, details)
		}
		created, err := s.client.CreateResource(ctx, resource, details)
		if backend.IsTransient(err) {
			s.monitor.MarkOffline(ctx)
			return s.enqueue(ctx, models.ActionCreate, resource, id, details)
		}
		if err != nil {
			return err
		}
		if err := s.resolver.Record(ctx, id, created.ID, resource); err != nil {
			return err
		}
		realID = created.ID
		s.pushReminders(ctx, resource, created.ID, schedule)
		return nil
	}

	err = s.store.Run(ctx, func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		next.Upsert(item)
		return next
	}, commit)
	if err != nil {
		return "", err
	}

	if realID == "" {
		return id, nil
	}
	if err := s.renameInView(ctx, id, realID); err != nil {
		s.log.Warn(ctx, "failed to rename created item in view", "temp_id", id, "error", err)
	}
	return realID, nil
}

func (s *taskService) UpdateSchedulableItem(ctx context.Context, id string, payload models.Payload) error {
	resource := payload.GetType()
	if !resource.Valid() {
		return fmt.Errorf("%w: resource type %q", backend.ErrInvalid, resource)
	}

	resolvedID, err := s.resolveForMutation(ctx, id)
	if err != nil {
		return err
	}

	limits := s.currentLimits(ctx)
	schedule, err := s.reminderSchedule(payload, resolvedID, limits)
	if err != nil {
		return fmt.Errorf("failed to compute reminders: %w", err)
	}

	env, err := models.Wrap(payload)
	if err != nil {
		return err
	}
	details := env.Details

	predict := func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		if item := findEither(&next, id, resolvedID); item != nil {
			item.Title = payload.GetTitle()
			item.CourseID = payload.GetCourseID()
			item.BaseTime = payload.BaseTime()
			// the schedule is replaced wholesale, never appended to
			item.Reminders = reminderTimes(schedule)
		}
		return next
	}

	direct := func(ctx context.Context) error {
		if err := s.client.UpdateResource(ctx, resource, resolvedID, details); err != nil {
			return err
		}
		s.pushReminders(ctx, resource, resolvedID, schedule)
		return nil
	}

	return s.mutate(ctx, models.ActionUpdate, resource, resolvedID, details, predict, direct)
}

func (s *taskService) CompleteTask(ctx context.Context, resource models.ResourceType, id string) error {
	resolvedID, err := s.resolveForMutation(ctx, id)
	if err != nil {
		return err
	}

	predict := func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		if item := findEither(&next, id, resolvedID); item != nil {
			item.Completed = true
		}
		return next
	}

	direct := func(ctx context.Context) error {
		return tolerateNotFound(s.client.CompleteResource(ctx, resource, resolvedID))
	}

	return s.mutate(ctx, models.ActionComplete, resource, resolvedID, nil, predict, direct)
}

func (s *taskService) DeleteTask(ctx context.Context, resource models.ResourceType, id string) error {
	resolvedID, err := s.resolveForMutation(ctx, id)
	if err != nil {
		return err
	}

	predict := func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		if item := findEither(&next, id, resolvedID); item != nil {
			item.Deleted = true
			// the server cancels reminders inside the soft delete; mirror
			// that atomically in the local view
			item.Reminders = nil
		}
		return next
	}

	direct := func(ctx context.Context) error {
		return tolerateNotFound(s.client.SoftDeleteResource(ctx, resource, resolvedID))
	}

	return s.mutate(ctx, models.ActionDelete, resource, resolvedID, nil, predict, direct)
}

func (s *taskService) RestoreTask(ctx context.Context, resource models.ResourceType, id string) error {
	resolvedID, err := s.resolveForMutation(ctx, id)
	if err != nil {
		return err
	}

	predict := func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		if item := findEither(&next, id, resolvedID); item != nil {
			item.Deleted = false
		}
		return next
	}

	direct := func(ctx context.Context) error {
		return tolerateNotFound(s.client.RestoreResource(ctx, resource, resolvedID))
	}

	return s.mutate(ctx, models.ActionRestore, resource, resolvedID, nil, predict, direct)
}

// Sync replays the offline queue, then reconciles the cached view: resolved
// temporary ids are renamed to their server ids, items whose CREATE was
// rejected permanently are dropped, and the reminder schedule of every
// replayed create and update is resubmitted.
func (s *taskService) Sync(ctx context.Context) (*offline.ReplayResult, error) {
	res, err := s.queue.Replay(ctx)
	if err != nil {
		return nil, err
	}

	renames := map[string]string{}
	for _, item := range s.store.Get().Items {
		if !tempid.IsTemporary(item.ID) {
			continue
		}
		resolved, rerr := s.resolver.Resolve(ctx, item.ID)
		if rerr == nil && resolved != item.ID {
			renames[item.ID] = resolved
		}
	}

	err = s.store.Run(ctx, func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		for oldID, newID := range renames {
			next.Rename(oldID, newID)
		}
		for _, f := range res.Failed {
			if f.Action.Action == models.ActionCreate {
				next.Remove(f.Action.ResourceID)
			}
		}
		return next
	}, func(context.Context) error { return nil })
	if err != nil {
		return nil, err
	}

	// a replayed create or update carries no reminder call of its own;
	// resubmit the cached schedule for each once the server id is known
	if s.monitor.Online() {
		view := s.store.Get()
		pushed := map[string]bool{}
		for _, a := range res.AppliedActions {
			if a.Action != models.ActionCreate && a.Action != models.ActionUpdate {
				continue
			}
			id, rerr := s.resolver.Resolve(ctx, a.ResourceID)
			if rerr != nil || pushed[id] {
				continue
			}
			pushed[id] = true

			item := view.Find(id)
			if item == nil || item.Deleted {
				continue
			}
			rs := make([]backend.Reminder, 0, len(item.Reminders))
			for _, at := range item.Reminders {
				rs = append(rs, backend.Reminder{At: at.Unix()})
			}
			if perr := tolerateNotFound(s.client.SetReminders(ctx, item.Resource, id, rs)); perr != nil {
				s.log.Warn(ctx, "failed to push reminders after sync", "resource_id", id, "error", perr)
			}
		}
	}
	return res, nil
}

// mutate runs predict optimistically and commits either directly or, when
// the backend is unreachable, by enqueueing the action. Queued commits
// succeed synchronously, so the predicted state stays in place without
// rollback.
func (s *taskService) mutate(
	ctx context.Context,
	action models.ActionType,
	resource models.ResourceType,
	resolvedID string,
	payload json.RawMessage,
	predict cache.Mutation[models.TaskListView],
	direct func(ctx context.Context) error,
) error {
	commit := func(ctx context.Context) error {
		if !s.monitor.Online() {
			return s.enqueue(ctx, action, resource, resolvedID, payload)
		}
		err := direct(ctx)
		if backend.IsTransient(err) {
			s.monitor.MarkOffline(ctx)
			return s.enqueue(ctx, action, resource, resolvedID, payload)
		}
		return err
	}
	return s.store.Run(ctx, predict, commit)
}

// resolveForMutation maps id through the resolver. A still-unmapped
// temporary id blocks the mutation only while online: offline, the queue
// preserves order and rewrites the id once the create lands.
func (s *taskService) resolveForMutation(ctx context.Context, id string) (string, error) {
	resolved, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	if tempid.IsTemporary(resolved) && s.monitor.Online() {
		return "", fmt.Errorf("%w: %s", ErrStillSyncing, id)
	}
	return resolved, nil
}

func (s *taskService) enqueue(ctx context.Context, action models.ActionType, resource models.ResourceType, id string, payload json.RawMessage) error {
	return s.queue.Enqueue(ctx, action, resource, id, payload, s.ownerID())
}

func (s *taskService) ownerID() string {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	if s.lastUser != nil {
		return s.lastUser.ID
	}
	return ""
}

// currentLimits reads the tier from the backend at mutation time, falling
// back to the last known user and then to free-tier limits when offline.
func (s *taskService) currentLimits(ctx context.Context) models.Limits {
	if s.monitor.Online() {
		user, err := s.client.GetCurrentUser(ctx)
		if err == nil {
			s.userMu.Lock()
			s.lastUser = user
			s.userMu.Unlock()
			return user.Tier.Limits()
		}
		if backend.IsTransient(err) {
			s.monitor.MarkOffline(ctx)
		}
		s.log.Warn(ctx, "failed to refresh user, using last known tier", "error", err)
	}

	s.userMu.RLock()
	defer s.userMu.RUnlock()
	if s.lastUser != nil {
		return s.lastUser.Tier.Limits()
	}
	return models.TierFree.Limits()
}

func (s *taskService) checkCreateLimits(payload models.Payload, limits models.Limits) error {
	view := s.store.Get()

	if limits.MonthlyTasks > 0 && createdThisMonth(view, s.now()) >= limits.MonthlyTasks {
		return fmt.Errorf("%w: %d tasks this month", ErrLimitExceeded, limits.MonthlyTasks)
	}

	courseID := payload.GetCourseID()
	if limits.MaxCourses > 0 && courseID != "" && !hasCourse(view, courseID) &&
		distinctCourses(view) >= limits.MaxCourses {
		return fmt.Errorf("%w: %d courses", ErrLimitExceeded, limits.MaxCourses)
	}
	return nil
}

// reminderSchedule computes the reminder set for payload. Study sessions
// marked for spaced review use the day-offset review schedule normalized to
// the preferred hour; everything else uses minutes-before offsets.
func (s *taskService) reminderSchedule(payload models.Payload, seedID string, limits models.Limits) ([]scheduler.Reminder, error) {
	if seedID == "" {
		seedID = payload.GetTitle()
	}
	opts := scheduler.Options{
		Mode:          scheduler.MinutesBefore,
		JitterMinutes: s.cfg.JitterMinutes,
		Deterministic: true,
		SeedID:        seedID,
		PreferredHour: -1,
		Now:           s.now,
	}

	offsets := s.cfg.ReminderOffsets
	if session, ok := payload.(models.StudySession); ok && session.SpacedReview {
		opts.Mode = scheduler.DaysAfter
		opts.PreferredHour = s.cfg.PreferredHour
		offsets = s.cfg.ReviewOffsets
	}

	opts.MaxCount = len(offsets)
	if limits.MaxReminders > 0 && limits.MaxReminders < opts.MaxCount {
		opts.MaxCount = limits.MaxReminders
	}

	return scheduler.ComputeReminderTimes(payload.BaseTime(), offsets, opts)
}

// pushReminders replaces the server-side reminder set. The resource exists
// either way, so a failed push is logged rather than unwinding the commit.
func (s *taskService) pushReminders(ctx context.Context, resource models.ResourceType, id string, schedule []scheduler.Reminder) {
	err := tolerateNotFound(s.client.SetReminders(ctx, resource, id, toBackendReminders(schedule)))
	if err != nil {
		if backend.IsTransient(err) {
			s.monitor.MarkOffline(ctx)
		}
		s.log.Warn(ctx, "failed to push reminders", "resource_id", id, "error", err)
	}
}

func (s *taskService) renameInView(ctx context.Context, oldID, newID string) error {
	return s.store.Run(ctx, func(v models.TaskListView) models.TaskListView {
		next := cloneView(v)
		next.Rename(oldID, newID)
		return next
	}, func(context.Context) error { return nil })
}

func cloneView(v models.TaskListView) models.TaskListView {
	items := make([]models.TaskItem, len(v.Items))
	copy(items, v.Items)
	return models.TaskListView{Items: items}
}

func findEither(v *models.TaskListView, id, resolvedID string) *models.TaskItem {
	if item := v.Find(resolvedID); item != nil {
		return item
	}
	return v.Find(id)
}

func tolerateNotFound(err error) error {
	if errors.Is(err, backend.ErrNotFound) {
		return nil
	}
	return err
}

func createdThisMonth(v models.TaskListView, now time.Time) int {
	n := 0
	y, m, _ := now.UTC().Date()
	for _, item := range v.Items {
		iy, im, _ := item.CreatedAt.UTC().Date()
		if iy == y && im == m {
			n++
		}
	}
	return n
}

func hasCourse(v models.TaskListView, courseID string) bool {
	for _, item := range v.Items {
		if item.CourseID == courseID {
			return true
		}
	}
	return false
}

func distinctCourses(v models.TaskListView) int {
	seen := map[string]struct{}{}
	for _, item := range v.Items {
		if item.CourseID != "" {
			seen[item.CourseID] = struct{}{}
		}
	}
	return len(seen)
}

func reminderTimes(schedule []scheduler.Reminder) []time.Time {
	if len(schedule) == 0 {
		return nil
	}
	out := make([]time.Time, 0, len(schedule))
	for _, r := range schedule {
		out = append(out, r.At)
	}
	return out
}

func toBackendReminders(schedule []scheduler.Reminder) []backend.Reminder {
	out := make([]backend.Reminder, 0, len(schedule))
	for _, r := range schedule {
		out = append(out, backend.Reminder{At: r.At.Unix(), Offset: r.Offset})
	}
	return out
}
