package grove

import (
	"testing"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/keyframe"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createAnimatedNode creates a node translating along x between start and end
func createAnimatedNode(t *testing.T, name string, start, end float64) *graph.Node {
	t.Helper()
	kf, err := keyframe.NewTransformFromMaps(
		map[float64]mgl64.Vec3{start: {0, 0, 0}, end: {1, 0, 0}},
		map[float64]mgl64.Quat{0: mgl64.QuatIdent()},
		map[float64]float64{0: 1},
	)
	require.NoError(t, err)

	return graph.NewControlNode(kf, graph.WithName(name))
}

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	for _, e := range ec.events {
		if e.Type() == eventType {
			return true
		}
	}
	return false
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_Subscribe(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}

	events.Subscribe(ANIMATION_START, capture.capture)

	assert.Len(t, events.listeners[ANIMATION_START], 1)
	assert.Empty(t, events.listeners[ANIMATION_REST])
}

func TestEvents_SubscribeZeroValue(t *testing.T) {
	var events Events
	capture := &eventCapture{}

	events.Subscribe(ANIMATION_START, capture.capture)
	events.processPhaseEvents(0.5, []*graph.Node{createAnimatedNode(t, "a", 0, 1)})
	events.flush()

	assert.Equal(t, 1, capture.count())
}

func TestEvents_MultipleListeners(t *testing.T) {
	events := NewEvents()
	capture1 := &eventCapture{}
	capture2 := &eventCapture{}
	capture3 := &eventCapture{}

	events.Subscribe(ANIMATION_START, capture1.capture)
	events.Subscribe(ANIMATION_START, capture2.capture)
	events.Subscribe(ANIMATION_START, capture3.capture)
	require.Len(t, events.listeners[ANIMATION_START], 3)

	events.processPhaseEvents(0.5, []*graph.Node{createAnimatedNode(t, "a", 0, 1)})
	events.flush()

	assert.Equal(t, 1, capture1.count())
	assert.Equal(t, 1, capture2.count())
	assert.Equal(t, 1, capture3.count())
}

func TestEvents_DifferentEventTypes(t *testing.T) {
	events := NewEvents()
	captureStart := &eventCapture{}
	captureRest := &eventCapture{}

	events.Subscribe(ANIMATION_START, captureStart.capture)
	events.Subscribe(ANIMATION_REST, captureRest.capture)

	events.processPhaseEvents(0.5, []*graph.Node{createAnimatedNode(t, "a", 0, 1)})
	events.flush()

	assert.Equal(t, 1, captureStart.count())
	assert.Equal(t, 0, captureRest.count())
}

// =============================================================================
// Phase Tracking Tests
// =============================================================================

func TestEvents_PhaseTransitions(t *testing.T) {
	node := createAnimatedNode(t, "arm", 1, 2)

	tests := []struct {
		name  string
		times []float64
		want  []EventType
	}{
		{"resting before the first key", []float64{0, 0.5, 1}, nil},
		{"start once", []float64{0.5, 1.2, 1.5, 1.8}, []EventType{ANIMATION_START}},
		{"start then rest", []float64{0.5, 1.5, 2.5}, []EventType{ANIMATION_START, ANIMATION_REST}},
		{"already interpolating when first seen", []float64{1.5}, []EventType{ANIMATION_START}},
		{"jump over the whole animation", []float64{0, 3}, nil},
		{"restart when rewinding", []float64{1.5, 3, 1.5}, []EventType{ANIMATION_START, ANIMATION_REST, ANIMATION_START}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := NewEvents()
			capture := &eventCapture{}
			events.Subscribe(ANIMATION_START, capture.capture)
			events.Subscribe(ANIMATION_REST, capture.capture)

			for _, at := range tt.times {
				events.processPhaseEvents(at, []*graph.Node{node})
				events.flush()
			}

			var got []EventType
			for _, e := range capture.events {
				got = append(got, e.Type())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvents_EventPayload(t *testing.T) {
	node := createAnimatedNode(t, "arm", 0, 1)
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ANIMATION_START, capture.capture)
	events.Subscribe(ANIMATION_REST, capture.capture)

	events.processPhaseEvents(0.25, []*graph.Node{node})
	events.processPhaseEvents(1.5, []*graph.Node{node})
	events.flush()

	require.Equal(t, 2, capture.count())
	assert.Equal(t, AnimationStartEvent{Node: node, Time: 0.25}, capture.events[0])
	assert.Equal(t, AnimationRestEvent{Node: node, Time: 1.5}, capture.events[1])
}

func TestEvents_MissingNodesAreForgotten(t *testing.T) {
	a := createAnimatedNode(t, "a", 0, 1)
	b := createAnimatedNode(t, "b", 0, 1)
	events := NewEvents()

	events.processPhaseEvents(0.5, []*graph.Node{a, b})
	assert.Len(t, events.phases, 2)

	events.processPhaseEvents(0.6, []*graph.Node{a})
	assert.Len(t, events.phases, 1)
	assert.Contains(t, events.phases, a)
}

func TestEvents_Forget(t *testing.T) {
	root := graph.NewNode(mgl64.Ident4(), graph.WithName("root"))
	a := createAnimatedNode(t, "a", 0, 1)
	b := createAnimatedNode(t, "b", 0, 1)
	require.NoError(t, root.Add(a))
	require.NoError(t, a.Add(b))

	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ANIMATION_START, capture.capture)

	events.processPhaseEvents(0.5, []*graph.Node{a, b})
	events.flush()
	assert.Equal(t, 2, capture.count())

	events.forget(root)
	assert.Empty(t, events.phases)

	// tracked again from scratch
	capture.reset()
	events.processPhaseEvents(0.5, []*graph.Node{b})
	events.flush()
	assert.True(t, capture.hasEventType(ANIMATION_START))
}

func TestEvents_FlushClearsBuffer(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ANIMATION_START, capture.capture)

	events.processPhaseEvents(0.5, []*graph.Node{createAnimatedNode(t, "a", 0, 1)})
	events.flush()
	events.flush()

	assert.Equal(t, 1, capture.count())
	assert.Empty(t, events.buffer)
}
