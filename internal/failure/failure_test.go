package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "tagged", err: New(ElementNotFound, "locate from input", "missing"), want: ElementNotFound},
		{name: "wrapped", err: fmt.Errorf("create: %w", Wrap(FormNotReady, "wait form", errors.New("slow"))), want: FormNotReady},
		{name: "untagged", err: context.DeadlineExceeded, want: HostOperationFailed},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestSentinelsMatchByKind(t *testing.T) {
	err := fmt.Errorf("update: %w", New(ElementNotFound, "locate update", "no variant matched"))

	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.NotErrorIs(t, err, ErrFormNotReady)
	assert.ErrorIs(t, err, &Error{Kind: ElementNotFound, Op: "locate update"})
	assert.NotErrorIs(t, err, &Error{Kind: ElementNotFound, Op: "locate cancel"})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(HostOperationFailed, "click", nil))
}

func TestErrorString(t *testing.T) {
	err := New(ElementNotFound, "locate from input", "tried %q", "From")
	assert.Equal(t, `locate from input: element not found: tried "From"`, err.Error())
	assert.Equal(t, "form not ready", ErrFormNotReady.Error())
}
