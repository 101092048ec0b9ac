// Package telemetry correlates start/stop events per logical request and
// decides, at flush time, whether the batch is handed to the configured
// receiver.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

// Well-known event names.
const (
	EventAPI   = "api_event"
	EventHTTP  = "http_event"
	EventCache = "cache_event"
	EventUI    = "ui_event"
)

// Property keys on events.
const (
	PropertySuccess    = "is_successful"
	PropertyStart      = "start_time"
	PropertyStop       = "stop_time"
	PropertyUICount    = "ui_event_count"
	PropertyHTTPCount  = "http_event_count"
	PropertyCacheCount = "cache_event_count"
)

// Event is one telemetry event. Properties hold everything the receiver
// sees; identifiers must be pseudonymized with HashIdentifier before being
// set.
type Event struct {
	RequestID  string
	Name       string
	Properties map[string]string
}

// NewEvent builds an event with an allocated property map.
func NewEvent(requestID, name string) Event {
	return Event{RequestID: requestID, Name: name, Properties: map[string]string{}}
}

// Receiver is the external sink for completed batches.
type Receiver interface {
	ReceiveEvents(requestID string, events []Event)
}

// Aggregator collects events from arbitrary request goroutines. Start/stop
// pairs are matched by (request id, event name); a stop without a start is a
// no-op. Flush collates completed events with any orphaned in-flight events
// for the request and prepends a header event carrying aggregate counters.
type Aggregator struct {
	inFlight  sync.Map // "requestID|name" -> Event
	completed sync.Map // requestID -> *eventList

	mu               sync.Mutex
	receiver         Receiver
	onlySendFailures bool
}

type eventList struct {
	mu     sync.Mutex
	events []Event
}

// NewAggregator is the constructor for Aggregator.
func NewAggregator(receiver Receiver) *Aggregator {
	return &Aggregator{receiver: receiver}
}

// SetReceiver swaps the receiver at runtime.
func (a *Aggregator) SetReceiver(r Receiver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.receiver = r
}

// SetOnlySendFailures toggles dropping successful requests at flush time.
func (a *Aggregator) SetOnlySendFailures(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onlySendFailures = v
}

func inFlightKey(requestID, name string) string { return requestID + "|" + name }

// StartEvent records the beginning of an event.
func (a *Aggregator) StartEvent(requestID, name string) {
	e := NewEvent(requestID, name)
	e.Properties[PropertyStart] = strconv.FormatInt(time.Now().Unix(), 10)
	a.inFlight.Store(inFlightKey(requestID, name), e)
}

// StopEvent completes an event, folding extra properties in. A stop with no
// matching start is silently ignored.
func (a *Aggregator) StopEvent(requestID, name string, properties map[string]string) {
	v, ok := a.inFlight.LoadAndDelete(inFlightKey(requestID, name))
	if !ok {
		return
	}
	e := v.(Event)
	e.Properties[PropertyStop] = strconv.FormatInt(time.Now().Unix(), 10)
	for k, val := range properties {
		e.Properties[k] = val
	}

	listAny, _ := a.completed.LoadOrStore(requestID, &eventList{})
	list := listAny.(*eventList)
	list.mu.Lock()
	list.events = append(list.events, e)
	list.mu.Unlock()
}

// Flush hands the request's batch to the receiver: completed events plus any
// still-in-flight (orphaned) events for the same request id, behind a header
// event with the UI/HTTP/cache counters. When only-send-failures is on, a
// batch whose first API event reports success is dropped entirely.
func (a *Aggregator) Flush(requestID string) {
	var events []Event
	if listAny, ok := a.completed.LoadAndDelete(requestID); ok {
		list := listAny.(*eventList)
		list.mu.Lock()
		events = append(events, list.events...)
		list.mu.Unlock()
	}

	a.inFlight.Range(func(key, value any) bool {
		e := value.(Event)
		if e.RequestID == requestID {
			events = append(events, e)
			a.inFlight.Delete(key)
		}
		return true
	})

	if len(events) == 0 {
		return
	}

	a.mu.Lock()
	receiver := a.receiver
	onlyFailures := a.onlySendFailuresLocked(events)
	a.mu.Unlock()

	if receiver == nil || onlyFailures {
		return
	}

	batch := append([]Event{a.headerEvent(requestID, events)}, events...)
	receiver.ReceiveEvents(requestID, batch)
}

// onlySendFailuresLocked decides whether the batch should be dropped. Only
// the first API event found is consulted; multi-API-event batches follow the
// first one. Caller holds a.mu.
func (a *Aggregator) onlySendFailuresLocked(events []Event) bool {
	if !a.onlySendFailures {
		return false
	}
	for _, e := range events {
		if e.Name == EventAPI {
			return e.Properties[PropertySuccess] == "true"
		}
	}
	return false
}

func (a *Aggregator) headerEvent(requestID string, events []Event) Event {
	var ui, httpCount, cacheCount int
	for _, e := range events {
		switch e.Name {
		case EventUI:
			ui++
		case EventHTTP:
			httpCount++
		case EventCache:
			cacheCount++
		}
	}
	header := NewEvent(requestID, "default_event")
	header.Properties[PropertyUICount] = strconv.Itoa(ui)
	header.Properties[PropertyHTTPCount] = strconv.Itoa(httpCount)
	header.Properties[PropertyCacheCount] = strconv.Itoa(cacheCount)
	return header
}

// HashIdentifier pseudonymizes an identifier before it enters telemetry.
func HashIdentifier(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
