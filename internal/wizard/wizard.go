package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apihttp "github.com/ClareAI/astra-voice-admin/internal/adapters/http"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrNotFinalStep is returned by Submit before the last step is reached.
	ErrNotFinalStep = errors.New("submit is only available on the final step")
	// ErrStepNotReached is returned by GoTo for a step past the furthest one reached.
	ErrStepNotReached = errors.New("step has not been reached yet")
)

// Submitter persists a validated draft.
type Submitter interface {
	Create(ctx context.Context, payload domain.AssistantPayload) (*domain.Assistant, error)
	Update(ctx context.Context, id string, payload domain.AssistantPayload) (*domain.Assistant, error)
}

// Wizard walks one draft through the five configuration steps.
type Wizard struct {
	mu       sync.Mutex
	draft    domain.AssistantDraft
	current  Step
	furthest Step
	submit   Submitter
	notifier notify.Notifier
}

// New starts a wizard on the first step. A draft carrying an assistant id
// is submitted as an update of that assistant.
func New(draft domain.AssistantDraft, submit Submitter, notifier notify.Notifier) *Wizard {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Wizard{
		draft:    Clone(draft),
		current:  StepBasics,
		furthest: StepBasics,
		submit:   submit,
		notifier: notifier,
	}
}

// Resume restores a wizard at a saved position.
func Resume(draft domain.AssistantDraft, current, furthest Step, submit Submitter, notifier notify.Notifier) *Wizard {
	w := New(draft, submit, notifier)
	if furthest.Valid() {
		w.furthest = furthest
	}
	if current.Valid() && current <= w.furthest {
		w.current = current
	}
	return w
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() domain.AssistantDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Clone(w.draft)
}

// Current returns the active step.
func (w *Wizard) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Furthest returns the furthest step reached.
func (w *Wizard) Furthest() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.furthest
}

// Editing reports whether the wizard updates an existing assistant.
func (w *Wizard) Editing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.AssistantID != ""
}

// Edit replaces the draft with fn's result. Edits never change which
// assistant the draft targets, and the owner of an assistant being edited
// cannot be changed.
func (w *Wizard) Edit(fn func(domain.AssistantDraft) domain.AssistantDraft) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := fn(Clone(w.draft))
	next.AssistantID = w.draft.AssistantID
	if w.draft.AssistantID != "" {
		next.UserIDs = append([]string(nil), w.draft.UserIDs...)
	}
	w.draft = next
}

// Validate checks the active step.
func (w *Wizard) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ValidateStep(&w.draft, w.current)
}

// Next advances when the active step is valid.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := ValidateStep(&w.draft, w.current); err != nil {
		return err
	}
	if w.current == StepTask {
		return nil
	}
	w.current++
	if w.current > w.furthest {
		w.furthest = w.current
	}
	return nil
}

// Back moves one step back.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current > StepBasics {
		w.current--
	}
}

// GoTo jumps to a step that has already been reached.
func (w *Wizard) GoTo(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !step.Valid() {
		return fmt.Errorf("%w: unknown wizard step %d", domain.ErrInvalidInput, int(step))
	}
	if step > w.furthest {
		return ErrStepNotReached
	}
	w.current = step
	return nil
}

// Submit re-validates every step and saves the draft: one assistant per
// selected user when creating, or the edited assistant when updating. A
// failing step becomes the active step. Backend failures are reported
// through the notifier and leave the draft as it was, except that owners
// whose assistant was already created are dropped so a resubmit does not
// create them twice.
func (w *Wizard) Submit(ctx context.Context) ([]domain.Assistant, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != StepTask {
		return nil, ErrNotFinalStep
	}
	if err := ValidateAll(&w.draft); err != nil {
		var se *StepError
		if errors.As(err, &se) {
			w.current = se.Step
			w.notifier.Error(ctx, fmt.Sprintf("Please complete step %d (%s): %s", int(se.Step), se.Step, se.Message))
		}
		return nil, err
	}

	if w.draft.AssistantID != "" {
		a, err := w.submit.Update(ctx, w.draft.AssistantID, w.draft.Payload(""))
		if err != nil {
			w.notifier.Error(ctx, apihttp.UserMessage(err))
			return nil, err
		}
		w.notifier.Success(ctx, fmt.Sprintf("Assistant %q updated", a.AgentName))
		return []domain.Assistant{*a}, nil
	}

	users := nonEmpty(w.draft.UserIDs)
	created := make([]domain.Assistant, 0, len(users))
	for i, uid := range users {
		a, err := w.submit.Create(ctx, w.draft.Payload(uid))
		if err != nil {
			logger.Warn(ctx, "assistant creation failed",
				zap.String("user_id", uid),
				zap.Int("created", len(created)),
				zap.Error(err),
			)
			w.notifier.Error(ctx, apihttp.UserMessage(err))
			w.dropOwners(users[:i])
			return created, err
		}
		created = append(created, *a)
	}

	if len(created) == 1 {
		w.notifier.Success(ctx, fmt.Sprintf("Assistant %q created", created[0].AgentName))
	} else {
		w.notifier.Success(ctx, fmt.Sprintf("%d assistants created", len(created)))
	}
	return created, nil
}

// dropOwners removes the given owners from the draft.
func (w *Wizard) dropOwners(owners []string) {
	if len(owners) == 0 {
		return
	}
	done := make(map[string]bool, len(owners))
	for _, id := range owners {
		done[id] = true
	}
	remaining := make([]string, 0, len(w.draft.UserIDs))
	for _, id := range w.draft.UserIDs {
		if !done[strings.TrimSpace(id)] {
			remaining = append(remaining, id)
		}
	}
	w.draft.UserIDs = remaining
}
