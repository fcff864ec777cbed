package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name   string
		source SourceType
		from   Status
		to     Status
		want   bool
	}{
		{"table pending to attended", SourceTable, StatusPending, StatusAttended, true},
		{"takeaway pending to attended", SourceTakeaway, StatusPending, StatusAttended, true},
		{"table pending to in_progress", SourceTable, StatusPending, StatusInProgress, false},
		{"table attended is terminal", SourceTable, StatusAttended, StatusPending, false},
		{"web pending to in_progress", SourceWeb, StatusPending, StatusInProgress, true},
		{"web pending skips to ready", SourceWeb, StatusPending, StatusReady, false},
		{"web in_progress to ready", SourceWeb, StatusInProgress, StatusReady, true},
		{"web ready to delivered", SourceWeb, StatusReady, StatusDelivered, true},
		{"web delivered back to pending", SourceWeb, StatusDelivered, StatusPending, false},
		{"web pending to attended", SourceWeb, StatusPending, StatusAttended, false},
		{"unknown source", SourceType("phone"), StatusPending, StatusAttended, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.source, tc.from, tc.to))
		})
	}
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusPending.Known())
	assert.True(t, StatusDelivered.Known())
	assert.False(t, Status(-1).Known())
	assert.False(t, Status(99).Known())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "attended", StatusAttended.String())
	assert.Equal(t, "delivered", StatusDelivered.String())
	assert.Equal(t, "unknown", Status(42).String())
}
