package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"repair-match-server/models"
)

type recordingBroadcaster struct {
	chatIDs  []uint
	messages []*models.Message
}

func (r *recordingBroadcaster) BroadcastMessage(chatID uint, message *models.Message) {
	r.chatIDs = append(r.chatIDs, chatID)
	r.messages = append(r.messages, message)
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

// A system message is persisted inside the caller's transaction but must not
// reach connected clients until the caller broadcasts it after commit. A
// rolled-back transaction would otherwise have announced a message that never
// existed.
func TestSystemMessageNotBroadcastBeforeCommit(t *testing.T) {
	db := dryRunDB(t)
	recorder := &recordingBroadcaster{}
	svc := NewMessagingService(db, recorder)

	request := &models.RepairRequest{
		ID:           1,
		CustomerID:   10,
		TechnicianID: uintPtr(20),
		Status:       models.StatusInProgress,
	}

	message, err := svc.PostSystemMessageTx(db, request, "Technician has started the repair process.")
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.True(t, message.IsSystemMessage)
	assert.Equal(t, models.SenderRoleSystem, message.SenderRole)
	assert.Empty(t, recorder.messages, "nothing may be announced while the transaction is open")

	svc.Broadcast(message)
	require.Len(t, recorder.messages, 1)
	assert.Equal(t, message, recorder.messages[0])
}

func TestBroadcastIgnoresNilMessage(t *testing.T) {
	recorder := &recordingBroadcaster{}
	svc := NewMessagingService(nil, recorder)

	svc.Broadcast(nil)
	assert.Empty(t, recorder.messages)
}
