package forms

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFinalStep = errors.New("forms: submit is only allowed on the final step")
	ErrMasked       = errors.New("forms: value rejected by input mask")
	ErrUnknownField = errors.New("forms: unknown field")
)

type SubmitFunc func(ctx context.Context, values Values) error

// Wizard walks a Form one step at a time. Not safe for concurrent use.
type Wizard struct {
	form      *Form
	current   int
	values    Values
	errors    FieldErrors
	submitErr error
	submitted bool
}

func NewWizard(f *Form) *Wizard {
	return &Wizard{
		form:    f,
		current: 1,
		values:  Values{},
		errors:  FieldErrors{},
	}
}

func (w *Wizard) Current() int      { return w.current }
func (w *Wizard) TotalSteps() int   { return w.form.TotalSteps() }
func (w *Wizard) IsFinal() bool     { return w.current == w.form.TotalSteps() }
func (w *Wizard) Submitted() bool   { return w.submitted }
func (w *Wizard) SubmitErr() error  { return w.submitErr }
func (w *Wizard) Values() Values    { return w.values.Clone() }
func (w *Wizard) StepTitle() string { return w.form.Steps[w.current-1].Title }

func (w *Wizard) Errors() FieldErrors {
	out := make(FieldErrors, len(w.errors))
	for k, v := range w.errors {
		out[k] = v
	}
	return out
}

// Set stores the values of one field and clears its error. A value the
// field's mask refuses leaves the previous state untouched.
func (w *Wizard) Set(field string, values ...string) error {
	fl, ok := w.form.Field(field)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if fl.Mask != nil {
		for _, v := range values {
			if !fl.Mask.MatchString(v) {
				return fmt.Errorf("%w: %s=%q", ErrMasked, field, v)
			}
		}
	}
	w.values.Set(field, values...)
	delete(w.errors, field)
	return nil
}

// CanAdvance reports whether the active step currently validates.
func (w *Wizard) CanAdvance() bool {
	return len(w.form.ValidateStep(w.current, w.values)) == 0
}

// Next validates the active step and moves forward only when it passes.
func (w *Wizard) Next() bool {
	errs := w.form.ValidateStep(w.current, w.values)
	for k, v := range errs {
		w.errors[k] = v
	}
	if len(errs) > 0 || w.current >= w.form.TotalSteps() {
		return false
	}
	w.current++
	return true
}

func (w *Wizard) Back() {
	if w.current > 1 {
		w.current--
	}
}

// Submit validates every step and hands the values to fn once. A failed
// submission is recorded and the wizard stays on the final step.
func (w *Wizard) Submit(ctx context.Context, fn SubmitFunc) error {
	if !w.IsFinal() {
		return ErrNotFinalStep
	}
	if err := w.form.Validate(w.values); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			for k, v := range verr.Fields {
				w.errors[k] = v
			}
		}
		return err
	}
	w.submitErr = nil
	if err := fn(ctx, w.values.Clone()); err != nil {
		w.submitErr = err
		return err
	}
	w.submitted = true
	return nil
}
