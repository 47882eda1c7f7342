package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

func TestNewEvent(t *testing.T) {
	claim := entity.NewClaim(entity.Period{Year: 2025, Month: 4}, "emp-1")
	claim.ID = 42

	evt := NewEvent(TypeClaimSubmitted, claim, map[string]interface{}{KeyTotal: int64(17590)})

	require.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeClaimSubmitted, evt.Type)
	assert.Equal(t, int64(42), evt.ClaimID())
	assert.Equal(t, int64(17590), evt.GetPayloadInt(KeyTotal))
	assert.False(t, evt.Timestamp.IsZero())

	// the event keeps its own snapshot
	claim.Rows[0].Amount = "9000"
	assert.Empty(t, evt.Claim.Rows[0].Amount)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	claim := entity.NewClaim(entity.Period{Year: 2025, Month: 4}, "emp-1")
	a := NewEvent(TypeClaimApproved, claim, nil)
	b := NewEvent(TypeClaimApproved, claim, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Payload)
}

func TestPayloadAccessors(t *testing.T) {
	evt := &Event{Payload: map[string]interface{}{
		KeyReason: "missing receipt",
		"int":     7,
		"float":   float64(8),
		"wrong":   true,
	}}

	assert.Equal(t, "missing receipt", evt.GetPayloadString(KeyReason))
	assert.Equal(t, "", evt.GetPayloadString("wrong"))
	assert.Equal(t, int64(7), evt.GetPayloadInt("int"))
	assert.Equal(t, int64(8), evt.GetPayloadInt("float"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("missing"))
	assert.Equal(t, int64(0), (&Event{}).ClaimID())
}

func TestType_IsValid(t *testing.T) {
	for _, typ := range []Type{TypeClaimSubmitted, TypeClaimApproved, TypeClaimRejected} {
		assert.True(t, typ.IsValid(), typ.String())
	}
	assert.False(t, Type("instance.created").IsValid())
}
