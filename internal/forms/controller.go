package forms

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/api"
	"fintrack/internal/log"
)

// Mutation actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Submission outcomes reported to the Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeBusy    = "busy"
	OutcomeError   = "error"
)

// Mutation describes a write the backend confirmed.
type Mutation struct {
	Resource string
	Action   string
	ID       string
	Message  string
}

// Saved is what a Saver hands back.
type Saved struct {
	ID      string
	Message string
}

// Saver creates and updates records of one resource.
type Saver interface {
	Create(ctx context.Context, payload any) (Saved, error)
	Update(ctx context.Context, id string, payload any) (Saved, error)
}

// Remover deletes records of one resource. *api.Resource satisfies it.
type Remover interface {
	Remove(ctx context.Context, id string) (api.Ack, error)
}

// Publisher announces confirmed mutations to other systems.
type Publisher interface {
	PublishMutation(ctx context.Context, resource, action, id string) error
}

// Recorder counts submissions by outcome.
type Recorder interface {
	ObserveSubmission(resource, action, outcome string)
}

type resourceSaver[T any] struct {
	r *api.Resource[T]
}

// ResourceSaver adapts a typed api.Resource to Saver.
func ResourceSaver[T any](r *api.Resource[T]) Saver {
	return resourceSaver[T]{r: r}
}

func (s resourceSaver[T]) Create(ctx context.Context, payload any) (Saved, error) {
	res, err := s.r.Create(ctx, payload)
	return Saved{ID: res.ID, Message: res.Message}, err
}

func (s resourceSaver[T]) Update(ctx context.Context, id string, payload any) (Saved, error) {
	res, err := s.r.Update(ctx, id, payload)
	return Saved{ID: res.ID, Message: res.Message}, err
}

// Controller validates drafts, sends them to the backend and announces the
// result. It refuses a second submission for the same owner and resource
// while the first is still running.
type Controller struct {
	inflight  *InFlight
	publisher Publisher
	recorder  Recorder
	logger    *log.Logger
}

type ControllerOption func(*Controller)

func WithPublisher(p Publisher) ControllerOption {
	return func(c *Controller) { c.publisher = p }
}

func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) { c.recorder = r }
}

func NewController(logger *log.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		inflight: NewInFlight(),
		logger:   logger.WithComponent(log.ComponentForms),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates draft and creates or updates the record depending on
// edit. owner identifies the visitor, usually by session id.
func (c *Controller) Submit(ctx context.Context, owner string, draft Draft, edit EditSession, saver Saver) (Mutation, error) {
	resource := draft.Resource()
	action := ActionCreated
	if edit.Editing() {
		action = ActionUpdated
	}

	release, ok := c.inflight.Acquire(owner + "|" + resource)
	if !ok {
		c.observe(resource, action, OutcomeBusy)
		return Mutation{}, ErrSubmitInFlight
	}
	defer release()

	payload, err := draft.Payload()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.logger.DebugContext(ctx, "Form rejected",
				log.FieldResource, resource,
				log.FieldMissing, verr.MissingNames())
			c.observe(resource, action, OutcomeInvalid)
			return Mutation{}, err
		}
		c.observe(resource, action, OutcomeError)
		return Mutation{}, fmt.Errorf("build %s payload: %w", resource, err)
	}

	var saved Saved
	if edit.Editing() {
		saved, err = saver.Update(ctx, edit.ID, payload)
	} else {
		saved, err = saver.Create(ctx, payload)
	}
	if err != nil {
		c.observe(resource, action, OutcomeError)
		return Mutation{}, fmt.Errorf("%s %s: %w", action, resource, err)
	}

	m := Mutation{Resource: resource, Action: action, ID: saved.ID, Message: saved.Message}
	c.confirmed(ctx, m)
	return m, nil
}

// Remove deletes id from resource and announces the deletion.
func (c *Controller) Remove(ctx context.Context, owner, resource, id string, remover Remover) (Mutation, error) {
	release, ok := c.inflight.Acquire(owner + "|" + resource)
	if !ok {
		c.observe(resource, ActionDeleted, OutcomeBusy)
		return Mutation{}, ErrSubmitInFlight
	}
	defer release()

	ack, err := remover.Remove(ctx, id)
	if err != nil {
		c.observe(resource, ActionDeleted, OutcomeError)
		return Mutation{}, fmt.Errorf("delete %s: %w", resource, err)
	}

	m := Mutation{Resource: resource, Action: ActionDeleted, ID: ack.ID, Message: ack.Message}
	c.confirmed(ctx, m)
	return m, nil
}

func (c *Controller) confirmed(ctx context.Context, m Mutation) {
	c.observe(m.Resource, m.Action, OutcomeOK)
	c.logger.InfoContext(ctx, "Backend record saved",
		log.FieldResource, m.Resource,
		log.FieldResourceID, m.ID,
		log.FieldOperation, m.Action)

	if c.publisher == nil {
		return
	}
	// The write already succeeded; a failed announcement is only logged.
	if err := c.publisher.PublishMutation(ctx, m.Resource, m.Action, m.ID); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish mutation event",
			log.FieldResource, m.Resource,
			log.FieldResourceID, m.ID,
			log.FieldError, err)
	}
}

func (c *Controller) observe(resource, action, outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveSubmission(resource, action, outcome)
	}
}
