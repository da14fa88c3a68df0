// Package delivery governs the read-status progression of a message on the
// device that owns it.
package delivery

import (
	"errors"
	"fmt"

	"github.com/sendlink/sendlink/pkg/models"
)

// Event is a cause for a read-status transition.
type Event string

const (
	// EventPushConfirmed fires when the push loop confirms the remote store
	// accepted the message.
	EventPushConfirmed Event = "push_confirmed"
	// EventDeliveredAck fires when a pull reveals the remote store has
	// acknowledged visibility to the recipient.
	EventDeliveredAck Event = "delivered_ack"
	// EventReadMark fires when a pull carries the recipient's read marker,
	// or when the local user reads a received message.
	EventReadMark Event = "read_mark"
	// EventRetract tombstones the message. Terminal.
	EventRetract Event = "retract"
)

// ErrIllegalTransition is returned when an event does not apply to the
// message's current state.
var ErrIllegalTransition = errors.New("illegal read status transition")

// transitions is the closed table of sender-driven forward edges. No event
// skips a state; skipping only happens on direct ingestion of an
// already-advanced remote record during a history pull, which bypasses the
// state machine entirely.
var transitions = map[models.ReadStatus]map[Event]models.ReadStatus{
	models.ReadPending: {
		EventPushConfirmed: models.ReadSent,
		EventRetract:       models.ReadRetracted,
	},
	models.ReadSent: {
		EventDeliveredAck: models.ReadDelivered,
		EventRetract:      models.ReadRetracted,
	},
	models.ReadDelivered: {
		EventReadMark: models.ReadRead,
		EventRetract:  models.ReadRetracted,
	},
	models.ReadRead: {
		EventRetract: models.ReadRetracted,
	},
	models.ReadRetracted: {},
}

// Next returns the state reached by applying ev in state cur.
func Next(cur models.ReadStatus, ev Event) (models.ReadStatus, error) {
	next, ok := transitions[cur][ev]
	if !ok {
		return cur, fmt.Errorf("%s + %s: %w", cur, ev, ErrIllegalTransition)
	}
	return next, nil
}

// Advance applies ev to the message in place. Events that would not move the
// state forward (a duplicate ack, for example) are ignored rather than
// failed, since the sync loops replay history freely.
func Advance(m *models.Message, ev Event) error {
	next, err := Next(m.ReadStatus, ev)
	if err != nil {
		if target, known := eventTargets[ev]; known && !regresses(m.ReadStatus, target) {
			return nil
		}
		return err
	}
	m.ReadStatus = next
	return nil
}

// eventTargets maps each event to the state it establishes, used to tell a
// harmless replay from a genuine ordering violation.
var eventTargets = map[Event]models.ReadStatus{
	EventPushConfirmed: models.ReadSent,
	EventDeliveredAck:  models.ReadDelivered,
	EventReadMark:      models.ReadRead,
	EventRetract:       models.ReadRetracted,
}

func regresses(cur, target models.ReadStatus) bool {
	return models.MergeRead(cur, target) != cur
}
