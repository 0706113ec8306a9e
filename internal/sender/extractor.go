package sender

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
)

// DefaultMaxDepth bounds the ancestor walk.
const DefaultMaxDepth = 15

// Options tunes the heuristics to the host's markup.
type Options struct {
	// MaxDepth is the number of levels examined, the origin included.
	MaxDepth int
	// AddressAttrs are attributes that hold an address on the node or a descendant (Gmail: email).
	AddressAttrs []string
	// OwnAttrs are attributes read from the level node itself (Gmail: data-hovercard-id).
	OwnAttrs []string
	// SenderSelectors match elements whose text shows the sender.
	SenderSelectors []string
}

// DefaultOptions matches Gmail's message header markup.
func DefaultOptions() Options {
	return Options{
		MaxDepth:        DefaultMaxDepth,
		AddressAttrs:    []string{"email"},
		OwnAttrs:        []string{"data-hovercard-id", "email"},
		SenderSelectors: []string{".gD", ".go", ".zF", ".yP", "span[email]"},
	}
}

// Strategy is one heuristic applied to a single ancestor level.
type Strategy struct {
	Name string
	Find func(level *html.Node) string
}

// Extractor walks ancestors of an origin node and applies Strategies in order.
type Extractor struct {
	opts       Options
	strategies []Strategy
	logger     *zap.Logger
}

// NewExtractor compiles the configured selectors into the default strategy chain.
func NewExtractor(opts Options, logger *zap.Logger) (*Extractor, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sels, err := dom.Compile(opts.SenderSelectors)
	if err != nil {
		return nil, fmt.Errorf("compile sender selectors: %w", err)
	}
	e := &Extractor{opts: opts, logger: logger}
	e.strategies = []Strategy{
		{Name: "address-attribute", Find: e.fromDescendantAttr},
		{Name: "own-attribute", Find: e.fromOwnAttr},
		{Name: "sender-display", Find: displayStrategy(sels)},
	}
	return e, nil
}

// Strategies exposes the chain so callers can extend it.
func (e *Extractor) Strategies() []Strategy {
	return append([]Strategy(nil), e.strategies...)
}

// WithStrategy appends a heuristic tried after the built-in ones at each level.
func (e *Extractor) WithStrategy(s Strategy) *Extractor {
	e.strategies = append(e.strategies, s)
	return e
}

// Extract returns the first valid address found walking up from origin.
// Not finding one is an expected outcome, reported as ok == false.
func (e *Extractor) Extract(origin *html.Node) (string, bool) {
	level := origin
	for depth := 0; depth < e.opts.MaxDepth && level != nil; depth++ {
		for _, s := range e.strategies {
			if addr := s.Find(level); addr != "" {
				e.logger.Debug("sender detected",
					zap.String("strategy", s.Name),
					zap.Int("depth", depth),
					zap.String("sender", addr))
				return addr, true
			}
		}
		level = dom.Parent(level)
	}
	// the clicked element may be the address itself with no surrounding markup
	if addr := ParseAddress(dom.Text(origin)); addr != "" {
		e.logger.Debug("sender detected", zap.String("strategy", "origin-text"), zap.String("sender", addr))
		return addr, true
	}
	return "", false
}

func (e *Extractor) fromDescendantAttr(level *html.Node) string {
	var addr string
	dom.First(level, func(n *html.Node) bool {
		for _, key := range e.opts.AddressAttrs {
			if v, ok := dom.Attr(n, key); ok {
				if a := ParseAddress(v); a != "" {
					addr = a
					return true
				}
			}
		}
		return false
	})
	return addr
}

func (e *Extractor) fromOwnAttr(level *html.Node) string {
	for _, key := range e.opts.OwnAttrs {
		if v, ok := dom.Attr(level, key); ok {
			if a := ParseAddress(v); a != "" {
				return a
			}
		}
	}
	return ""
}

func displayStrategy(sels []cascadia.Sel) func(*html.Node) string {
	return func(level *html.Node) string {
		for _, sel := range sels {
			for _, n := range dom.Select(level, sel) {
				if a := ParseAddress(dom.Text(n)); a != "" {
					return a
				}
			}
		}
		return ""
	}
}
