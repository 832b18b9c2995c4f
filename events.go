package grove

import (
	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/keyframe"
)

const (
	ANIMATION_START EventType = iota
	ANIMATION_REST
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// AnimationStartEvent is sent when an animated node leaves its resting phase
type AnimationStartEvent struct {
	Node *graph.Node
	Time float64
}

func (e AnimationStartEvent) Type() EventType { return ANIMATION_START }

// AnimationRestEvent is sent when an animated node stops interpolating
type AnimationRestEvent struct {
	Node *graph.Node
	Time float64
}

func (e AnimationRestEvent) Type() EventType { return ANIMATION_REST }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Last observed phase of every animated node
	phases map[*graph.Node]keyframe.Phase
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 64),
		phases:    make(map[*graph.Node]keyframe.Phase),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// processPhaseEvents compares the phase of each animated node at time t with
// the previous frame. A node seen for the first time counts as resting.
// Nodes missing from this frame are forgotten.
func (e *Events) processPhaseEvents(t float64, nodes []*graph.Node) {
	if e.phases == nil {
		e.phases = make(map[*graph.Node]keyframe.Phase)
	}

	seen := make(map[*graph.Node]bool, len(nodes))
	for _, node := range nodes {
		seen[node] = true
		phase := node.Phase(t)
		tracked := e.phases[node]

		if tracked == keyframe.Resting && phase == keyframe.Interpolating {
			e.buffer = append(e.buffer, AnimationStartEvent{Node: node, Time: t})
		} else if tracked == keyframe.Interpolating && phase == keyframe.Resting {
			e.buffer = append(e.buffer, AnimationRestEvent{Node: node, Time: t})
		}
		e.phases[node] = phase
	}

	for node := range e.phases {
		if !seen[node] {
			delete(e.phases, node)
		}
	}
}

// forget drops the tracked phases of a subtree
func (e *Events) forget(root *graph.Node) {
	if e.phases == nil {
		return
	}
	var stack []*graph.Node
	stack = append(stack, root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		delete(e.phases, n)
		stack = append(stack, n.Children()...)
	}
}

// flush sends all buffered events and clears the buffer.
// The buffer is detached first so that listeners may step the world again.
func (e *Events) flush() {
	buffer := e.buffer
	e.buffer = nil

	for _, event := range buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}

	if e.buffer == nil {
		e.buffer = buffer[:0]
	}
}
