package validation

import (
	"errors"
	"testing"

	"github.com/occumed/occumed/internal/domain/verdict"
)

func TestCanTransitionTask(t *testing.T) {
	allowed := []struct {
		from, to TaskStatus
	}{
		{TaskPending, TaskAssigned},
		{TaskPending, TaskCancelled},
		{TaskAssigned, TaskInProgress},
		{TaskAssigned, TaskCancelled},
		{TaskInProgress, TaskSigned},
		{TaskInProgress, TaskCancelled},
	}
	for _, tc := range allowed {
		if err := CanTransitionTask(tc.from, tc.to); err != nil {
			t.Errorf("%s -> %s: expected allowed, got %v", tc.from, tc.to, err)
		}
	}

	rejected := []struct {
		from, to TaskStatus
	}{
		{TaskPending, TaskInProgress},
		{TaskPending, TaskSigned},
		{TaskAssigned, TaskSigned},
		{TaskAssigned, TaskPending},
		{TaskInProgress, TaskAssigned},
		{TaskSigned, TaskCancelled},
		{TaskSigned, TaskInProgress},
		{TaskCancelled, TaskAssigned},
		{TaskCancelled, TaskSigned},
	}
	for _, tc := range rejected {
		err := CanTransitionTask(tc.from, tc.to)
		if err == nil {
			t.Errorf("%s -> %s: expected rejection", tc.from, tc.to)
			continue
		}
		var transition *TaskTransitionError
		if !errors.As(err, &transition) {
			t.Errorf("%s -> %s: expected TaskTransitionError, got %T", tc.from, tc.to, err)
			continue
		}
		if transition.Current != tc.from || transition.Requested != tc.to {
			t.Errorf("error should carry both states, got %+v", transition)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	for _, s := range []TaskStatus{TaskPending, TaskAssigned, TaskInProgress} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskSigned, TaskCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestOverridden(t *testing.T) {
	rec := verdict.NotFit
	fin := verdict.FitWithRestrictions

	task := &ValidationTask{}
	if task.Overridden() {
		t.Error("task without verdicts should not be overridden")
	}

	task.RecommendedVerdict = &rec
	if task.Overridden() {
		t.Error("task without final verdict should not be overridden")
	}

	task.FinalVerdict = &fin
	if !task.Overridden() {
		t.Error("diverging verdicts should be overridden")
	}

	same := verdict.NotFit
	task.FinalVerdict = &same
	if task.Overridden() {
		t.Error("matching verdicts should not be overridden")
	}
}

func TestIncompleteExamErrorMessage(t *testing.T) {
	err := &IncompleteExamError{Missing: []string{"vital sign heart_rate not recorded", "study ecg has no extracted data"}}
	want := "exam incomplete: vital sign heart_rate not recorded; study ecg has no extracted data"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
