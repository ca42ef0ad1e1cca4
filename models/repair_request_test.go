package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairRequestIsTerminal(t *testing.T) {
	terminal := []RepairRequestStatus{StatusPaid, StatusDenied, StatusDeclined, StatusCancelled}
	for _, status := range terminal {
		req := RepairRequest{Status: status}
		assert.True(t, req.IsTerminal(), "status %s", status)
	}

	active := []RepairRequestStatus{
		StatusPending, StatusNegotiating, StatusServiceRequest,
		StatusAccepted, StatusInProgress, StatusCompleted,
	}
	for _, status := range active {
		req := RepairRequest{Status: status}
		assert.False(t, req.IsTerminal(), "status %s", status)
	}
}

func TestRepairRequestHasParticipant(t *testing.T) {
	technicianID := uint(20)
	req := RepairRequest{CustomerID: 10, TechnicianID: &technicianID}

	assert.True(t, req.HasParticipant(10))
	assert.True(t, req.HasParticipant(20))
	assert.False(t, req.HasParticipant(99))

	unassigned := RepairRequest{CustomerID: 10}
	assert.True(t, unassigned.HasParticipant(10))
	assert.False(t, unassigned.HasParticipant(20))
}

func TestRepairRequestStatusWireLiterals(t *testing.T) {
	// these literals are consumed by the mobile clients and must not drift
	assert.Equal(t, "Pending", string(StatusPending))
	assert.Equal(t, "Negotiating", string(StatusNegotiating))
	assert.Equal(t, "ServiceRequest", string(StatusServiceRequest))
	assert.Equal(t, "Accepted", string(StatusAccepted))
	assert.Equal(t, "In Progress", string(StatusInProgress))
	assert.Equal(t, "Completed", string(StatusCompleted))
	assert.Equal(t, "Paid", string(StatusPaid))
	assert.Equal(t, "Denied", string(StatusDenied))
	assert.Equal(t, "Declined", string(StatusDeclined))
}

func TestRepairRequestJSONFieldNames(t *testing.T) {
	req := RepairRequest{Status: StatusInProgress, DeviceType: "Laptop"}
	data, err := json.Marshal(&req)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "customerId")
	assert.Contains(t, m, "deviceType")
	assert.Contains(t, m, "agreedPrice")
	assert.Contains(t, m, "paymentCompleted")
	assert.Equal(t, "In Progress", m["status"])
}
