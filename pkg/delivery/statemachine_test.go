package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/models"
)

func TestNext(t *testing.T) {
	testCases := []struct {
		name    string
		cur     models.ReadStatus
		ev      Event
		want    models.ReadStatus
		wantErr bool
	}{
		{"pending advances on push confirmation", models.ReadPending, EventPushConfirmed, models.ReadSent, false},
		{"sent advances on delivery ack", models.ReadSent, EventDeliveredAck, models.ReadDelivered, false},
		{"delivered advances on read mark", models.ReadDelivered, EventReadMark, models.ReadRead, false},
		{"pending cannot jump to delivered", models.ReadPending, EventDeliveredAck, models.ReadPending, true},
		{"sent cannot jump to read", models.ReadSent, EventReadMark, models.ReadSent, true},
		{"retract from pending", models.ReadPending, EventRetract, models.ReadRetracted, false},
		{"retract from read", models.ReadRead, EventRetract, models.ReadRetracted, false},
		{"retracted is terminal", models.ReadRetracted, EventReadMark, models.ReadRetracted, true},
		{"retracted cannot be retracted again", models.ReadRetracted, EventRetract, models.ReadRetracted, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.cur, tc.ev)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAdvance(t *testing.T) {
	t.Run("applies a legal transition", func(t *testing.T) {
		m := &models.Message{ReadStatus: models.ReadPending}
		require.NoError(t, Advance(m, EventPushConfirmed))
		assert.Equal(t, models.ReadSent, m.ReadStatus)
	})

	t.Run("ignores a replayed event", func(t *testing.T) {
		m := &models.Message{ReadStatus: models.ReadRead}
		require.NoError(t, Advance(m, EventDeliveredAck))
		assert.Equal(t, models.ReadRead, m.ReadStatus)
	})

	t.Run("rejects a genuine skip", func(t *testing.T) {
		m := &models.Message{ReadStatus: models.ReadPending}
		err := Advance(m, EventReadMark)
		assert.ErrorIs(t, err, ErrIllegalTransition)
		assert.Equal(t, models.ReadPending, m.ReadStatus)
	})

	t.Run("tolerates a duplicate retract", func(t *testing.T) {
		m := &models.Message{ReadStatus: models.ReadRetracted}
		require.NoError(t, Advance(m, EventRetract))
		assert.Equal(t, models.ReadRetracted, m.ReadStatus)
	})
}
