package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

const (
	commandChannelSize = 256
	commandTimeout     = 5 * time.Second
	stopTimeout        = 10 * time.Second

	// A subscriber's delivery channel holds exactly one pending snapshot;
	// publish replaces a stale pending snapshot with the newest one.
	subscriberQueueSize = 1

	// maxMissedPublishes evicts a subscriber whose pending slot was still
	// full on this many consecutive publishes.
	maxMissedPublishes = 8

	// sourceCatchUp tags the snapshot delivered to a late-joining
	// subscriber on registration.
	sourceCatchUp = "current_data"
)

// Snapshotter provides a consistent point-in-time view of the stream
// buffer.
type Snapshotter interface {
	Snapshot() []domain.Record
}

// Subscriber is the handle handed to one attached viewer. The hub keeps
// membership only; the viewer's connection lifetime belongs to the
// transport layer.
type Subscriber struct {
	id      uuid.UUID
	updates chan domain.Update
}

func (s *Subscriber) ID() uuid.UUID { return s.id }

// Updates is the subscriber's delivery channel. It is closed when the
// subscriber is unsubscribed or evicted.
func (s *Subscriber) Updates() <-chan domain.Update { return s.updates }

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type subscribeCmd struct {
	baseHubCmd
	replyChannel chan subscribeReply
}

type subscribeReply struct {
	subscriber *Subscriber
	err        error
}

type unsubscribeCmd struct {
	baseHubCmd
	id uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	source string
}

type countCmd struct {
	baseHubCmd
	replyChannel chan int
}

type hubStopCmd struct {
	baseHubCmd
}

type subscriberState struct {
	subscriber *Subscriber
	missed     int
}

// Hub is the actor that owns the subscriber registry. All state lives in
// the run goroutine; the public API only sends commands.
type Hub struct {
	cmdCh          chan hubCmd
	clock          clockwork.Clock
	source         Snapshotter
	subscribers    map[uuid.UUID]*subscriberState
	maxSubscribers int
	done           chan struct{}
}

// NewHub creates a hub reading snapshots from source. maxSubscribers
// bounds the registry; zero or negative means unlimited.
func NewHub(source Snapshotter, clock clockwork.Clock, maxSubscribers int) *Hub {
	h := &Hub{
		cmdCh:          make(chan hubCmd, commandChannelSize),
		clock:          clock,
		source:         source,
		subscribers:    make(map[uuid.UUID]*subscriberState),
		maxSubscribers: maxSubscribers,
		done:           make(chan struct{}),
	}
	go h.run()
	return h
}

// Subscribe registers a new subscriber and immediately delivers a
// snapshot of the current buffer, so a late joiner never starts blank.
func (h *Hub) Subscribe() (*Subscriber, error) {
	replyCh := make(chan subscribeReply, 1)
	h.cmdCh <- subscribeCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.subscriber, reply.err
	case <-timer.Chan():
		return nil, fmt.Errorf("subscribe command timed out after %v", commandTimeout)
	}
}

// Unsubscribe removes the subscriber and closes its delivery channel.
// Idempotent: removing an already-removed subscriber is a no-op.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.cmdCh <- unsubscribeCmd{id: id}
}

// Publish takes a fresh snapshot and delivers it to every registered
// subscriber, tagged with the source of the append that triggered it.
func (h *Hub) Publish(source string) {
	h.cmdCh <- publishCmd{source: source}
}

// SubscriberCount returns the current registry size, or -1 on timeout.
func (h *Hub) SubscriberCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- countCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("SubscriberCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing every subscriber channel. Blocks
// until the actor goroutine has exited or the stop timeout passes.
func (h *Hub) Stop() {
	h.cmdCh <- hubStopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Broadcast hub stopped")
	case <-timer.Chan():
		slog.Warn("Broadcast hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case subscribeCmd:
			h.handleSubscribe(c)
		case unsubscribeCmd:
			h.handleUnsubscribe(c.id)
		case publishCmd:
			h.handlePublish(c.source)
		case countCmd:
			c.replyChannel <- len(h.subscribers)
		case hubStopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Broadcast hub received unknown command", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleSubscribe(c subscribeCmd) {
	if h.maxSubscribers > 0 && len(h.subscribers) >= h.maxSubscribers {
		slog.Warn("Rejecting subscriber: max subscribers reached", "max_subscribers", h.maxSubscribers)
		c.replyChannel <- subscribeReply{err: fmt.Errorf("max subscribers (%d) reached", h.maxSubscribers)}
		return
	}

	sub := &Subscriber{
		id:      uuid.New(),
		updates: make(chan domain.Update, subscriberQueueSize),
	}
	h.subscribers[sub.id] = &subscriberState{subscriber: sub}

	// Late-join catch-up: the empty delivery slot always takes this.
	sub.updates <- h.makeUpdate(sourceCatchUp)

	metrics.BroadcastSubscribers.Set(float64(len(h.subscribers)))
	slog.Debug("Subscriber registered", "subscriber_id", sub.id.String(), "total_subscribers", len(h.subscribers))
	c.replyChannel <- subscribeReply{subscriber: sub}
}

func (h *Hub) handleUnsubscribe(id uuid.UUID) {
	state, exists := h.subscribers[id]
	if !exists {
		return
	}
	delete(h.subscribers, id)
	close(state.subscriber.updates)

	metrics.BroadcastSubscribers.Set(float64(len(h.subscribers)))
	slog.Debug("Subscriber unregistered", "subscriber_id", id.String(), "remaining_subscribers", len(h.subscribers))
}

func (h *Hub) handlePublish(source string) {
	if len(h.subscribers) == 0 {
		return
	}

	update := h.makeUpdate(source)
	metrics.BroadcastPublishesTotal.Inc()

	var stalled []uuid.UUID
	for id, state := range h.subscribers {
		if h.deliver(state, update) {
			stalled = append(stalled, id)
		}
	}

	for _, id := range stalled {
		slog.Warn("Evicting stalled subscriber", "subscriber_id", id.String(), "missed_publishes", maxMissedPublishes)
		metrics.BroadcastSlowSubscribersEvicted.Inc()
		h.handleUnsubscribe(id)
	}
}

// deliver enqueues the update without blocking. If the subscriber's slot
// is still full, the stale pending snapshot is replaced by the newest
// one. Returns true when the subscriber should be evicted.
func (h *Hub) deliver(state *subscriberState, update domain.Update) bool {
	select {
	case state.subscriber.updates <- update:
		state.missed = 0
		return false
	default:
	}

	select {
	case <-state.subscriber.updates:
		metrics.BroadcastCoalescedUpdatesTotal.Inc()
	default:
	}
	select {
	case state.subscriber.updates <- update:
	default:
	}

	state.missed++
	return state.missed >= maxMissedPublishes
}

func (h *Hub) makeUpdate(source string) domain.Update {
	snapshot := h.source.Snapshot()
	return domain.Update{
		Records:      snapshot,
		TotalRecords: len(snapshot),
		Timestamp:    h.clock.Now().UTC(),
		Source:       source,
	}
}

func (h *Hub) handleStop() {
	for id, state := range h.subscribers {
		close(state.subscriber.updates)
		delete(h.subscribers, id)
	}
	metrics.BroadcastSubscribers.Set(0)
	slog.Info("Broadcast hub shutdown complete")
}
