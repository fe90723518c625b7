package notifier

import (
	"sync"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
)

const (
	subscriptionBuffer = 32
	publishBuffer      = 64
)

// Hub fans newly stored messages out to live subscriptions, keyed by
// receiver id. It is purely a latency optimization: events for users with
// no subscription are dropped, and the message log remains the source of
// truth. A single goroutine owns the registry, so no locking is needed
// around the subscriber map.
type Hub struct {
	subscribers map[int64]map[*Subscription]struct{}
	register    chan *Subscription
	unregister  chan *Subscription
	publish     chan *models.Message
}

// Subscription is a live registration for one connected client. C closes
// when the subscription is cancelled, either explicitly or because the
// client stopped draining.
type Subscription struct {
	UserID int64
	C      chan models.Message

	hub  *Hub
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[*Subscription]struct{}),
		register:    make(chan *Subscription),
		unregister:  make(chan *Subscription),
		publish:     make(chan *models.Message, publishBuffer),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			set, ok := h.subscribers[sub.UserID]
			if !ok {
				set = make(map[*Subscription]struct{})
				h.subscribers[sub.UserID] = set
			}
			set[sub] = struct{}{}
		case sub := <-h.unregister:
			h.drop(sub)
		case message := <-h.publish:
			h.deliver(message)
		}
	}
}

// Subscribe registers a new subscription for the user. Multiple
// subscriptions per user (multiple devices) each receive every event
// independently. There is no replay: messages stored before the
// subscription existed are only visible through the store.
func (h *Hub) Subscribe(userID int64) *Subscription {
	sub := &Subscription{
		UserID: userID,
		C:      make(chan models.Message, subscriptionBuffer),
		hub:    h,
	}
	h.register <- sub
	return sub
}

// Publish hands a freshly appended message to the hub. It never blocks the
// caller: if the hub's queue is full the event is dropped and the receiver
// catches up from the store on their next read.
func (h *Hub) Publish(message *models.Message) {
	select {
	case h.publish <- message:
	default:
	}
}

// Cancel detaches the subscription and closes C. Safe to call more than
// once and safe to race with delivery.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.unregister <- s
	})
}

func (h *Hub) deliver(message *models.Message) {
	set, ok := h.subscribers[message.ReceiverID]
	if !ok {
		return
	}

	for sub := range set {
		select {
		case sub.C <- *message:
		default:
			// Subscriber stopped draining; detach it rather than
			// hold up everyone else. The closed channel tells the
			// client to re-fetch from the store.
			delete(set, sub)
			close(sub.C)
		}
	}
	if len(set) == 0 {
		delete(h.subscribers, message.ReceiverID)
	}
}

func (h *Hub) drop(sub *Subscription) {
	set, ok := h.subscribers[sub.UserID]
	if !ok {
		return
	}
	if _, exists := set[sub]; exists {
		delete(set, sub)
		close(sub.C)
	}
	if len(set) == 0 {
		delete(h.subscribers, sub.UserID)
	}
}
