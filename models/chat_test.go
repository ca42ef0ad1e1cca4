package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatHasParticipant(t *testing.T) {
	chat := Chat{CustomerID: 10, TechnicianID: 20}

	assert.True(t, chat.HasParticipant(10))
	assert.True(t, chat.HasParticipant(20))
	assert.False(t, chat.HasParticipant(30))
	assert.False(t, chat.HasParticipant(0))
}

func TestChatParticipants(t *testing.T) {
	chat := Chat{CustomerID: 10, TechnicianID: 20}
	customerID, technicianID := chat.Participants()
	assert.Equal(t, uint(10), customerID)
	assert.Equal(t, uint(20), technicianID)
}
