package database

import (
	"context"
	"fmt"
	"log/slog"

	"projectarium/internal/middleware"

	"gorm.io/gorm"
)

// StepFunc is one mutation of a unit of work. It must only use tx.
type StepFunc func(ctx context.Context, tx *gorm.DB) error

// Step is a named entry of a unit of work.
type Step struct {
	Name string
	Run  StepFunc
}

// StepHook runs before each step. Returning an error aborts the unit.
type StepHook func(name string) error

// StepError reports which step of a unit of work failed.
type StepError struct {
	Unit string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %q failed: %v", e.Unit, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// UnitOfWork executes an ordered list of steps inside one transaction.
// Any failing step rolls back every step before it.
type UnitOfWork struct {
	db    *gorm.DB
	name  string
	steps []Step
	hook  StepHook
}

// NewUnitOfWork starts an empty unit named name.
func NewUnitOfWork(db *gorm.DB, name string) *UnitOfWork {
	return &UnitOfWork{db: db, name: name}
}

// Step appends a named step.
func (u *UnitOfWork) Step(name string, fn StepFunc) *UnitOfWork {
	u.steps = append(u.steps, Step{Name: name, Run: fn})
	return u
}

// WithHook installs a hook invoked before each step.
func (u *UnitOfWork) WithHook(hook StepHook) *UnitOfWork {
	u.hook = hook
	return u
}

// Steps returns the step names in execution order.
func (u *UnitOfWork) Steps() []string {
	names := make([]string, len(u.steps))
	for i, s := range u.steps {
		names[i] = s.Name
	}
	return names
}

// Execute runs the steps in order in a single transaction.
func (u *UnitOfWork) Execute(ctx context.Context) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, step := range u.steps {
			if u.hook != nil {
				if err := u.hook(step.Name); err != nil {
					return &StepError{Unit: u.name, Step: step.Name, Err: err}
				}
			}
			if err := step.Run(ctx, tx); err != nil {
				middleware.Logger.WarnContext(ctx, "unit of work step failed, rolling back",
					slog.String("unit", u.name),
					slog.String("step", step.Name),
					slog.String("error", err.Error()),
				)
				return &StepError{Unit: u.name, Step: step.Name, Err: err}
			}
		}
		return nil
	})
}
