// Package host defines the narrow capabilities the workflow needs from the mail client's page.
package host

import (
	"context"

	"golang.org/x/net/html"
)

// Page is a live, externally owned UI tree.
//
// Snapshot returns a fresh parse in which every element carries
// dom.RefAttr and form controls carry their current value/checked state.
// Refs are only meaningful until the next suspension point; callers take a
// new snapshot rather than reuse nodes across waits.
type Page interface {
	Snapshot(ctx context.Context) (*html.Node, error)
	Click(ctx context.Context, ref string) error
	// SetValue replaces a control's value and dispatches input and change
	// notifications so the page's own state observes it.
	SetValue(ctx context.Context, ref, value string) error
	Location(ctx context.Context) (string, error)
	SetLocation(ctx context.Context, location string) error
}

// Notifier is the blocking confirmation surface shown to the user.
type Notifier interface {
	Alert(ctx context.Context, message string) error
	// Prompt asks for a line of input. Cancelling yields "".
	Prompt(ctx context.Context, message string) (string, error)
}
