package notify

import (
	"context"
	"log/slog"

	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/task"
)

// Notification route labels.
const (
	LabelYandex  = "yandex"
	LabelSpotify = "spotify"
)

// Route describes one label's notification behavior.
type Route struct {
	// DisplayID transforms the task ID for user display. The spotify
	// route strips the broker prefix; the yandex route shows the full ID.
	DisplayID func(taskID string) string
}

// Dispatcher turns terminal task outcomes into exactly one user-facing
// message per labeled task. It implements task.TerminalHooks.
//
// Collaborator handles travel with the invocation (attached by the
// depends middleware); the dispatcher falls back to its constructor
// handles when an invocation carries none, so it works for tasks that
// bypassed the middleware chain.
type Dispatcher struct {
	routes    map[string]Route
	sender    task.Sender
	localizer task.Localizer
	rescanner *Rescanner
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher with the default yandex and spotify
// routes.
func NewDispatcher(sender task.Sender, localizer task.Localizer, rescanner *Rescanner, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		routes: map[string]Route{
			LabelYandex:  {DisplayID: func(id string) string { return id }},
			LabelSpotify: {DisplayID: task.ShortID},
		},
		sender:    sender,
		localizer: localizer,
		rescanner: rescanner,
		logger:    logger.With("component", "notification_dispatcher"),
	}
}

// OnSuccess formats and delivers the kind-specific success message, then
// fires the library rescan signal. Unlabeled tasks are silent.
func (d *Dispatcher) OnSuccess(ctx context.Context, inv *task.Invocation, res domain.MediaResult) {
	route, ok := d.routes[inv.Label]
	if !ok {
		return
	}

	sender, localizer := d.collaborators(inv)
	displayID := route.DisplayID(inv.TaskID)

	var text string
	switch res.Kind {
	case domain.KindAlbum:
		text = localizer.FormatValue(MsgAlbum, map[string]any{
			"task_id":     displayID,
			"artist":      res.Artist,
			"title":       res.Title,
			"track_count": res.TrackCount,
		})
	case domain.KindArtist:
		text = localizer.FormatValue(MsgArtist, map[string]any{
			"task_id": displayID,
			"artist":  res.Artist,
		})
	case domain.KindPlaylist:
		text = localizer.FormatValue(MsgPlaylist, map[string]any{
			"task_id":     displayID,
			"title":       res.Title,
			"track_count": res.TrackCount,
		})
	case domain.KindTrack:
		text = localizer.FormatValue(MsgTrack, map[string]any{
			"task_id": displayID,
			"artist":  res.Artist,
			"title":   res.Title,
		})
	default:
		// A successful task with an unrecognized result shape is an
		// internal error. The user still hears that the task finished
		// rather than hearing nothing.
		d.logger.Error("successful task produced unknown result kind",
			"task_id", inv.TaskID,
			"kind", res.Kind)
		text = localizer.FormatValue(MsgUnknown, map[string]any{
			"task_id": displayID,
		})
	}

	if err := sender.Deliver(ctx, inv.UserID, text, inv.ReplyTo); err != nil {
		d.logger.Error("failed to deliver success notification",
			"task_id", inv.TaskID,
			"user_id", inv.UserID,
			"error", err)
		return
	}

	if err := d.rescanner.Trigger(ctx); err != nil {
		d.logger.Warn("library rescan failed after delivery",
			"task_id", inv.TaskID,
			"error", err)
	}
}

// OnFailure delivers the generic failure message. This path does not
// branch on label specifics beyond the route lookup; unlabeled tasks are
// silent.
func (d *Dispatcher) OnFailure(ctx context.Context, inv *task.Invocation, taskErr error) {
	route, ok := d.routes[inv.Label]
	if !ok {
		return
	}

	sender, localizer := d.collaborators(inv)

	d.logger.Warn("task failed",
		"task_id", inv.TaskID,
		"task_name", inv.Name,
		"error", taskErr)

	text := localizer.FormatValue(MsgFail, map[string]any{
		"task_id": route.DisplayID(inv.TaskID),
		"info":    taskErr.Error(),
	})

	if err := sender.Deliver(ctx, inv.UserID, text, inv.ReplyTo); err != nil {
		d.logger.Error("failed to deliver failure notification",
			"task_id", inv.TaskID,
			"user_id", inv.UserID,
			"error", err)
	}
}

func (d *Dispatcher) collaborators(inv *task.Invocation) (task.Sender, task.Localizer) {
	sender := d.sender
	if inv.Deps.Sender != nil {
		sender = inv.Deps.Sender
	}
	localizer := d.localizer
	if inv.Deps.Localizer != nil {
		localizer = inv.Deps.Localizer
	}
	return sender, localizer
}
