// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package broker implements the generic publish/subscribe actor every
// fabric module (network, DHT router, storage, signalling) is wired
// together through: a Broker[I, O] accepts input messages, runs registered
// Handlers to produce output messages, and fans those out to Taps and
// linked Brokers.
package broker

import (
	"fmt"
	"sync"

	"github.com/luxfi/log"

	nolog "github.com/luxfi/flo/log"
)

// Ticket is an opaque reference to a Broker, used instead of a direct
// pointer so two Brokers can refer to each other (for Link) without
// creating a reference cycle that outlives either side's Close.
type Ticket uint64

// Handler processes one input message of type I and returns zero or more
// output messages of type O to publish.
type Handler[I, O any] func(I) ([]O, error)

// Broker is a single pub/sub actor. Callers push input with Enqueue, the
// actor runs every registered Handler against it, and the resulting output
// messages are delivered to every registered Tap and every linked Broker's
// Translator.
type Broker[I, O any] struct {
	log    log.Logger
	name   string
	ticket Ticket

	mu       sync.Mutex
	handlers []Handler[I, O]
	inTaps   []func(I)
	outTaps  []func(O)
	links    []link[O]
}

// link is a registered downstream destination for this Broker's output:
// target is the linked broker's Ticket and forward converts an O into that
// broker's own input type and hands it off, type-erased so Broker[I,O] can
// hold links to Brokers of unrelated type parameters.
type link[O any] struct {
	target   Ticket
	forward  func(O) error
}

var (
	registryMu sync.Mutex
	nextTicket Ticket = 1
	registry          = map[Ticket]any{}
)

// register allocates a fresh Ticket for b and records it in the process
// registry, so a Link call elsewhere in the fabric can resolve a Ticket
// back to the live Broker without holding a direct pointer.
func register[I, O any](b *Broker[I, O]) Ticket {
	registryMu.Lock()
	defer registryMu.Unlock()
	t := nextTicket
	nextTicket++
	registry[t] = b
	return t
}

// Lookup resolves a Ticket back to its Broker, for code that only has the
// Ticket (for example because it crossed a settle boundary) and needs to
// call back into the owning Broker.
func Lookup[I, O any](t Ticket) (*Broker[I, O], bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	b, ok := registry[t].(*Broker[I, O])
	return b, ok
}

// Unregister removes a Broker's Ticket from the process registry. Call it
// from Close so a dangling Ticket cannot resolve to a retired Broker.
func Unregister(t Ticket) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, t)
}

// New creates a Broker and registers it in the process-wide Ticket
// registry. A nil logger defaults to a no-op logger rather than leaving
// every call site to guard against a nil b.log.
func New[I, O any](name string, logger log.Logger) *Broker[I, O] {
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	b := &Broker[I, O]{name: name, log: logger}
	b.ticket = register[I, O](b)
	return b
}

// Ticket returns this Broker's registry Ticket, for other Brokers to Link
// against without holding a typed pointer.
func (b *Broker[I, O]) Ticket() Ticket {
	return b.ticket
}

// Close removes this Broker from the process registry. It does not affect
// any goroutine already draining a settle call.
func (b *Broker[I, O]) Close() {
	Unregister(b.ticket)
}

// AddHandler registers h to run against every future Enqueue call.
func (b *Broker[I, O]) AddHandler(h Handler[I, O]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// TapIn registers fn to receive every input message Enqueued on this
// Broker, before any Handler sees it (spec.md §4.1 get_tap_in).
func (b *Broker[I, O]) TapIn(fn func(I)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inTaps = append(b.inTaps, fn)
}

// TapOut registers fn to receive every output message this Broker
// produces, in addition to any Broker it is linked to (spec.md §4.1
// get_tap_out).
func (b *Broker[I, O]) TapOut(fn func(O)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outTaps = append(b.outTaps, fn)
}

// Tap is an alias for TapOut, kept for callers that only ever cared about
// observing output.
func (b *Broker[I, O]) Tap(fn func(O)) {
	b.TapOut(fn)
}

// dispatchOutput delivers one output message to every registered TapOut
// and every Link, the same fan-out Enqueue performs for a Handler's
// output. Translators use it directly to inject a message into a
// Broker's output stream without running that Broker's own Handlers.
func (b *Broker[I, O]) dispatchOutput(msg O) error {
	b.mu.Lock()
	taps := append([]func(O){}, b.outTaps...)
	links := append([]link[O]{}, b.links...)
	b.mu.Unlock()

	var firstErr error
	for _, tap := range taps {
		tap(msg)
	}
	for _, l := range links {
		if err := l.forward(msg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("broker %s: forwarding to ticket %d: %w", b.name, l.target, err)
		}
	}
	return firstErr
}

// Link registers target as a downstream recipient of this Broker's output:
// every O this Broker produces is translated by translate and forwarded
// into target.Enqueue. translate may return ok=false to drop a message
// instead of forwarding it. Link is one-directional; AddTranslatorLink
// composes two Links to implement spec.md §4.1's bidirectional
// add_translator_link.
func Link[I, O, TI, TO any](b *Broker[I, O], target *Broker[TI, TO], translate func(O) (TI, bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.links = append(b.links, link[O]{
		target: target.ticket,
		forward: func(out O) error {
			in, ok := translate(out)
			if !ok {
				return nil
			}
			return target.Enqueue(in)
		},
	})
}

// AddTranslatorLink implements spec.md §4.1's add_translator_link: the two
// Brokers face each other, b's output feeding other's input (via fOut)
// and other's output feeding b's input (via fIn).
func AddTranslatorLink[I, O, TI, TO any](b *Broker[I, O], other *Broker[TI, TO], fOut func(O) (TI, bool), fIn func(TO) (I, bool)) {
	Link(b, other, fOut)
	Link(other, b, fIn)
}

// AddTranslatorDirect implements spec.md §4.1's add_translator_direct:
// "direct" means in↔in, out↔out, as opposed to add_translator_link's
// facing in↔out. b's own inputs are translated by fIn and forwarded into
// other's input stream; other's outputs are translated by fOut and
// mirrored into b's own output stream, so from a Tap on b's output it is
// as if b had produced them itself.
func AddTranslatorDirect[I, O, TI, TO any](b *Broker[I, O], other *Broker[TI, TO], fIn func(I) (TI, bool), fOut func(TO) (O, bool)) {
	b.TapIn(func(in I) {
		if ti, ok := fIn(in); ok {
			_ = other.Enqueue(ti)
		}
	})
	other.TapOut(func(to TO) {
		if o, ok := fOut(to); ok {
			_ = b.dispatchOutput(o)
		}
	})
}

// Enqueue runs every registered Handler against in, delivers the combined
// output to every Tap and every Link, and returns the first Handler error
// encountered (processing still continues for subsequent handlers so one
// failing handler cannot silently swallow another's output).
func (b *Broker[I, O]) Enqueue(in I) error {
	b.mu.Lock()
	inTaps := append([]func(I){}, b.inTaps...)
	handlers := append([]Handler[I, O]{}, b.handlers...)
	b.mu.Unlock()

	for _, tap := range inTaps {
		tap(in)
	}

	var firstErr error
	for _, h := range handlers {
		out, err := h(in)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if b.log != nil {
				b.log.Debug("broker handler returned error",
					log.String("broker", b.name),
					log.Err(err))
			}
			continue
		}
		for _, msg := range out {
			if err := b.dispatchOutput(msg); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
