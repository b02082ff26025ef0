package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAppliedEventKeepsWindow(t *testing.T) {
	var staff StaffRecord
	for _, id := range []string{"e1", "e2", "e3"} {
		staff.RecordAppliedEvent(id, 2)
	}
	assert.Equal(t, []string{"e2", "e3"}, staff.AppliedEventIDs)
	assert.True(t, staff.HasAppliedEvent("e3"))
	assert.False(t, staff.HasAppliedEvent("e1"))
}
