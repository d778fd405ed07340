package shorttermmemory

import (
	"iter"
	"slices"

	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/uuidx"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AggregatedMessages is an ordered conversation.
type AggregatedMessages []messages.Message[messages.ModelMessage]

func (a AggregatedMessages) Len() int {
	return len(a)
}

// Last returns the most recent message, if any.
func (a AggregatedMessages) Last() (messages.Message[messages.ModelMessage], bool) {
	if len(a) == 0 {
		return messages.Message[messages.ModelMessage]{}, false
	}
	return a[len(a)-1], true
}

// New creates an empty thread with a fresh id.
func New() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: make(AggregatedMessages, 0),
	}
}

// Aggregator is the conversation thread of a run plus its token usage.
// A thread is forked for every agent run and joined back when the run
// finishes, so the parent only sees the messages of completed turns.
//
// An Aggregator is not safe for concurrent use; each attempt owns its own.
type Aggregator struct {
	id       uuid.UUID
	messages AggregatedMessages
	initLen  int // length at fork time
	usage    Usage
}

func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

func (a *Aggregator) Len() int {
	return a.messages.Len()
}

// TurnLen counts the messages added since the fork.
func (a *Aggregator) TurnLen() int {
	return len(a.messages) - a.initLen
}

// Messages returns a copy of the thread.
func (a *Aggregator) Messages() AggregatedMessages {
	return slices.Clone(a.messages)
}

func (a *Aggregator) MessagesIter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(a.messages)
}

// AddMessage appends a message of any payload type.
func AddMessage[T messages.ModelMessage](a *Aggregator, m messages.Message[T]) {
	a.add(messages.Erase(m))
}

func (a *Aggregator) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	a.add(messages.Erase(m))
}

func (a *Aggregator) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	a.add(messages.Erase(m))
}

func (a *Aggregator) AddToolCall(m messages.Message[messages.ToolCallMessage]) {
	a.add(messages.Erase(m))
}

func (a *Aggregator) AddToolResponse(m messages.Message[messages.ToolResponse]) {
	a.add(messages.Erase(m))
}

func (a *Aggregator) add(m messages.Message[messages.ModelMessage]) {
	a.messages = append(a.messages, m)
}

func (a *Aggregator) Usage() Usage {
	return a.usage
}

func (a *Aggregator) AddUsage(u *Usage) {
	a.usage.AddUsage(u)
}

// Fork copies the thread into a new aggregator that remembers where it started.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: slices.Clone(a.messages),
		initLen:  a.Len(),
	}
}

// Join appends the messages b gained after its fork and adds its usage.
//
//	original := New()          // [1,2]
//	forked := original.Fork()  // [1,2], initLen=2
//	original.AddUserPrompt(m3) // [1,2,3]
//	forked.AddUserPrompt(m4)   // [1,2,4]
//	original.Join(forked)      // [1,2,3,4]
func (a *Aggregator) Join(b *Aggregator) {
	a.messages = append(a.messages, b.messages[b.initLen:]...)
	a.usage.AddUsage(&b.usage)
}

// Checkpoint snapshots the aggregator.
func (a *Aggregator) Checkpoint() Checkpoint {
	return Checkpoint{
		id:       a.id,
		messages: slices.Clone(a.messages),
		usage:    a.usage,
		initLen:  a.initLen,
	}
}

// Checkpoint is an immutable snapshot of a thread. Checkpoints are what gets
// persisted or shipped between processes; Restore turns one back into a thread.
type Checkpoint struct {
	id       uuid.UUID
	messages AggregatedMessages
	usage    Usage
	initLen  int
}

func (c *Checkpoint) ID() uuid.UUID {
	return c.id
}

func (c *Checkpoint) Messages() AggregatedMessages {
	return slices.Clone(c.messages)
}

func (c *Checkpoint) Usage() Usage {
	return c.usage
}

// MergeInto appends the messages recorded after the checkpoint's fork point to other.
func (c *Checkpoint) MergeInto(other *Aggregator) {
	other.messages = append(other.messages, c.messages[c.initLen:]...)
	other.usage.AddUsage(&c.usage)
	if other.id == uuid.Nil {
		other.id = c.id
	}
}

// Restore creates a thread holding the full checkpointed conversation.
func (c *Checkpoint) Restore() *Aggregator {
	return &Aggregator{
		id:       c.id,
		messages: slices.Clone(c.messages),
		usage:    c.usage,
	}
}

type checkpointJSON struct {
	ID       string                                    `json:"id"`
	Messages []messages.Message[messages.ModelMessage] `json:"messages"`
	Usage    Usage                                     `json:"usage"`
	InitLen  int                                       `json:"init_len"`
}

func (c Checkpoint) MarshalJSON() ([]byte, error) {
	msgs := c.messages
	if msgs == nil {
		msgs = AggregatedMessages{}
	}
	return json.Marshal(checkpointJSON{
		ID:       c.id.String(),
		Messages: msgs,
		Usage:    c.usage,
		InitLen:  c.initLen,
	})
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var tmp checkpointJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	id, err := uuid.Parse(tmp.ID)
	if err != nil {
		return err
	}
	c.id = id
	c.messages = tmp.Messages
	c.usage = tmp.Usage
	c.initLen = tmp.InitLen
	return nil
}
