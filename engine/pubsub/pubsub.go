// Package pubsub routes level logic outputs (floor begin/end, group dead, counter outputs) to subscribers.
//
// Subjects are dot separated. A subscription ending with ".*" receives every subject below that prefix.
// Delivery is synchronous, on the publishing routine, in subscription order.
package pubsub

import (
	"sort"
	"strings"

	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/gwutils"
	trie_tst "github.com/xiaonanln/go-trie-tst"
)

// Handler receives published events
type Handler func(subject string, args ...interface{})

// SubID identifies a subscription
type SubID uint64

const wildcardSuffix = "*"

type subscribing struct {
	handlers map[SubID]Handler
}

func newSubscribing() *subscribing {
	return &subscribing{
		handlers: map[SubID]Handler{},
	}
}

// Bus is an event bus owned by one battle zone
type Bus struct {
	tree     trie_tst.TST
	lastID   SubID
	subjects map[SubID]string
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subjects: map[SubID]string{},
	}
}

func (b *Bus) getSubscribing(subject string) *subscribing {
	t := b.tree.Sub(subject)
	var subs *subscribing
	if t.Val == nil {
		subs = newSubscribing()
		t.Val = subs
	} else {
		subs = t.Val.(*subscribing)
	}
	return subs
}

// Subscribe subscribes the handler to the subject
func (b *Bus) Subscribe(subject string, handler Handler) SubID {
	b.lastID += 1
	id := b.lastID
	b.getSubscribing(subject).handlers[id] = handler
	b.subjects[id] = subject
	gwlog.Debugf("Subscribe: subject=%s, id=%d", subject, id)
	return id
}

// Unsubscribe cancels the subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id SubID) {
	subject, ok := b.subjects[id]
	if !ok {
		return
	}
	delete(b.subjects, id)
	delete(b.getSubscribing(subject).handlers, id)
}

// Count returns the number of live subscriptions
func (b *Bus) Count() int {
	return len(b.subjects)
}

// Publish delivers the event to every matching subscription and returns the number of handlers called
//
// Handlers may subscribe or unsubscribe while being called; a handler unsubscribed during the publish is skipped.
func (b *Bus) Publish(subject string, args ...interface{}) int {
	type match struct {
		id      SubID
		handler Handler
	}
	var matches []match
	collect := func(key string) {
		for id, h := range b.getSubscribing(key).handlers {
			matches = append(matches, match{id, h})
		}
	}

	collect(subject)
	collect(wildcardSuffix)
	for i := strings.IndexByte(subject, '.'); i >= 0; {
		collect(subject[:i+1] + wildcardSuffix)
		next := strings.IndexByte(subject[i+1:], '.')
		if next < 0 {
			break
		}
		i += next + 1
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].id < matches[j].id })
	called := 0
	for _, m := range matches {
		if _, ok := b.subjects[m.id]; !ok {
			continue
		}
		called += 1
		h := m.handler
		gwutils.RunPanicless(func() {
			h(subject, args...)
		})
	}
	return called
}
