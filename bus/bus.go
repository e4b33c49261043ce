// bus.go
package bus

import (
	"context"
	"sync"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Topic is a sequence of tokens. A token is a string or an int.
// Subscriptions may use the MQTT-style wildcards "+" (one level) and
// "#" (remaining levels, including none). Published topics are concrete.
type Topic []any

// T builds a topic from tokens.
func T(tokens ...any) Topic { return Topic(tokens) }

const (
	wildOne  = "+"
	wildRest = "#"
)

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	bus   *Bus
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

// One trie holds both subscription patterns (wildcard tokens are ordinary
// keys) and retained messages (stored only under concrete paths).
type node struct {
	children map[any]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu       sync.RWMutex
	root     *node
	qLen     int
	replySeq int
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// NewMessage builds a message for this bus.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// addSubscription inserts a subscription pattern into the trie and delivers
// any retained messages the pattern matches.
func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range topic {
		if n.children == nil {
			n.children = make(map[any]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	var retained []*Message
	collectRetained(b.root, topic, &retained)
	for _, m := range retained {
		push(sub, m)
	}
}

// collectRetained gathers retained messages under nodes matching pattern.
func collectRetained(n *node, pattern Topic, out *[]*Message) {
	if n == nil {
		return
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			*out = append(*out, n.retained)
		}
		return
	}
	switch pattern[0] {
	case wildRest:
		collectAllRetained(n, out)
	case wildOne:
		for _, child := range n.children {
			collectRetained(child, pattern[1:], out)
		}
	default:
		collectRetained(n.children[pattern[0]], pattern[1:], out)
	}
}

func collectAllRetained(n *node, out *[]*Message) {
	if n.retained != nil {
		*out = append(*out, n.retained)
	}
	for _, child := range n.children {
		collectAllRetained(child, out)
	}
}

// Publish delivers a message to all subscribers whose pattern matches its
// (concrete) topic, then stores or clears the retained copy.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.match(b.root, msg.Topic, msg)

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			if n.children == nil {
				n.children = make(map[any]*node)
			}
			child, ok := n.children[tok]
			if !ok {
				child = &node{}
				n.children[tok] = child
			}
			n = child
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

// match walks the pattern trie against the concrete topic.
func (b *Bus) match(n *node, toks Topic, msg *Message) {
	if rest, ok := n.children[wildRest]; ok {
		deliver(rest.subs, msg)
	}
	if len(toks) == 0 {
		deliver(n.subs, msg)
		return
	}
	if child, ok := n.children[toks[0]]; ok {
		b.match(child, toks[1:], msg)
	}
	if one, ok := n.children[wildOne]; ok {
		b.match(one, toks[1:], msg)
	}
}

func deliver(subs []*Subscription, msg *Message) {
	for _, sub := range subs {
		push(sub, msg)
	}
}

// push never blocks: if a queue is full the oldest message is dropped.
func push(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// unsubscribe removes a subscription from the trie.
func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, t := range topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[t]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune empty nodes.
	for i := len(topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

func (b *Bus) nextReplySeq() int {
	b.mu.Lock()
	b.replySeq++
	n := b.replySeq
	b.mu.Unlock()
	return n
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// NewMessage builds a message for the connection's bus.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		bus:   c.bus,
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}

// -----------------------------------------------------------------------------
// Request / Reply
// -----------------------------------------------------------------------------

// Request assigns a private ReplyTo topic, subscribes to it, and publishes
// the request. The caller owns the returned subscription.
func (c *Connection) Request(msg *Message) *Subscription {
	msg.ReplyTo = Topic{"$reply", c.id, c.bus.nextReplySeq()}
	sub := c.Subscribe(msg.ReplyTo)
	c.Publish(msg)
	return sub
}

// RequestWait publishes the request and waits for one reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)
	select {
	case m := <-sub.ch:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply publishes a response on the request's ReplyTo topic, if present.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if len(req.ReplyTo) == 0 {
		return
	}
	c.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}
