// bus.go
package bus

// -----------------------------------------------------------------------------
// Tokens + Topics
// -----------------------------------------------------------------------------

// Token is a single element in a topic path.
// It can be either a string or an integer.
type Token struct {
	kind byte // 0 = string, 1 = int
	sval string
	ival int
}

// Constructors
func S(s string) Token { return Token{kind: 0, sval: s} }
func I(i int) Token    { return Token{kind: 1, ival: i} }

func (t Token) String() string {
	if t.kind == 1 {
		return itoa(t.ival)
	}
	return t.sval
}

// Topic is a sequence of tokens.
type Topic []Token

// T builds a topic from string parts.
func T(parts ...string) Topic {
	tp := make(Topic, len(parts))
	for i, p := range parts {
		tp[i] = S(p)
	}
	return tp
}

// String joins the topic with '/' separators.
func (tp Topic) String() string {
	s := ""
	for i, tok := range tp {
		if i > 0 {
			s += "/"
		}
		s += tok.String()
	}
	return s
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	b := len(buf)
	for i > 0 {
		b--
		buf[b] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		b--
		buf[b] = '-'
	}
	return string(buf[b:])
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

// Handler receives a message during Publish, on the publisher's
// goroutine. Handlers must return promptly and must not publish back
// onto the same topic.
type Handler func(*Message)

type Subscription struct {
	topic Topic
	fn    Handler
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic { return s.topic }
func (s *Subscription) Unsubscribe() { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

// Bus is a synchronous topic notifier. The whole process is one
// cooperative thread, so delivery happens inline in Publish and there
// is no queueing and no locking.
type Bus struct {
	root *node
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{root: &node{}}
}

// addSubscription inserts a subscription into the trie.
func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	n := b.root
	for _, tok := range topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}

	n.subs = append(n.subs, sub)

	// Deliver retained message if present.
	if n.retained != nil {
		sub.fn(n.retained)
	}
}

// Publish delivers a message inline to all subscribers of its topic.
func (b *Bus) Publish(msg *Message) {
	n := b.root
	for _, token := range msg.Topic {
		if n.children == nil {
			if !msg.Retained {
				return
			}
			n.children = make(map[Token]*node)
		}
		child, exists := n.children[token]
		if !exists {
			if !msg.Retained {
				return
			}
			child = &node{}
			n.children[token] = child
		}
		n = child
	}

	// Store or clear retained message first so handlers observing the
	// bus see the new document.
	if msg.Retained {
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}

	for _, sub := range n.subs {
		sub.fn(msg)
	}
}

// Retained returns the retained message at topic, if any.
func (b *Bus) Retained(topic Topic) (*Message, bool) {
	n := b.root
	for _, tok := range topic {
		child, ok := n.children[tok]
		if !ok {
			return nil, false
		}
		n = child
	}
	if n.retained == nil {
		return nil, false
	}
	return n.retained, true
}

// RetainedTopics appends every topic holding a retained message.
func (b *Bus) RetainedTopics() []Topic {
	var out []Topic
	var walk func(n *node, prefix Topic)
	walk = func(n *node, prefix Topic) {
		if n.retained != nil {
			out = append(out, append(Topic(nil), prefix...))
		}
		for tok, child := range n.children {
			walk(child, append(prefix, tok))
		}
	}
	walk(b.root, nil)
	return out
}

// unsubscribe removes a subscription from the trie.
func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
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

	// Remove subscription.
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

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	id   string // identity for future auth/diagnostics
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// NewMessage builds a message for Publish.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a synchronous handler owned by this connection.
func (c *Connection) Subscribe(topic Topic, fn Handler) *Subscription {
	sub := &Subscription{
		topic: topic,
		fn:    fn,
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.subs = append(c.subs, sub)
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	subs := c.subs
	c.subs = nil
	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
	}
}
