package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repair-match-server/models"
)

func floatPtr(v float64) *float64 { return &v }
func uintPtr(v uint) *uint        { return &v }

func pendingRequest() *models.RepairRequest {
	return &models.RepairRequest{
		ID:           1,
		CustomerID:   10,
		CustomerName: "Alice",
		DeviceType:   "Laptop",
		Description:  "Cracked screen",
		Status:       models.StatusPending,
	}
}

func assignedRequest(status models.RepairRequestStatus) *models.RepairRequest {
	req := pendingRequest()
	req.Status = status
	req.TechnicianID = uintPtr(20)
	req.TechnicianName = "Bob"
	return req
}

var (
	customer   = Actor{UserID: 10, Role: models.UserTypeCustomer, Name: "Alice"}
	technician = Actor{UserID: 20, Role: models.UserTypeTechnician, Name: "Bob"}
)

func TestPlanTransitionTable(t *testing.T) {
	tests := []struct {
		name   string
		req    *models.RepairRequest
		event  Event
		actor  Actor
		params TransitionParams
		want   models.RepairRequestStatus
	}{
		{"pending accept", pendingRequest(), EventAccept, technician, TransitionParams{}, models.StatusAccepted},
		{"pending negotiate", pendingRequest(), EventStartNegotiation, technician, TransitionParams{}, models.StatusNegotiating},
		{"pending deny", pendingRequest(), EventDeny, technician, TransitionParams{}, models.StatusDenied},
		{"pending cancel", pendingRequest(), EventCancel, customer, TransitionParams{}, models.StatusCancelled},
		{"negotiating approve", assignedRequest(models.StatusNegotiating), EventCustomerApprove, customer, TransitionParams{}, models.StatusAccepted},
		{"negotiating offer", assignedRequest(models.StatusNegotiating), EventSendServiceRequest, customer, TransitionParams{AgreedPrice: floatPtr(120)}, models.StatusServiceRequest},
		{"service request accept", assignedRequest(models.StatusServiceRequest), EventAccept, technician, TransitionParams{}, models.StatusAccepted},
		{"service request decline", assignedRequest(models.StatusServiceRequest), EventDecline, technician, TransitionParams{}, models.StatusDeclined},
		{"accepted start", assignedRequest(models.StatusAccepted), EventStartRepair, technician, TransitionParams{}, models.StatusInProgress},
		{"in progress update", assignedRequest(models.StatusInProgress), EventUpdateProgress, technician, TransitionParams{Percentage: 40}, models.StatusInProgress},
		{"in progress complete", assignedRequest(models.StatusInProgress), EventCompleteRepair, technician, TransitionParams{FinalPrice: floatPtr(150)}, models.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := PlanTransition(tt.req, tt.event, tt.actor, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.NewStatus)
			assert.Equal(t, tt.want, outcome.Updates["status"])
		})
	}
}

func TestPlanTransitionRejectsUnlistedPairs(t *testing.T) {
	tests := []struct {
		name  string
		req   *models.RepairRequest
		event Event
		actor Actor
	}{
		{"pending start", pendingRequest(), EventStartRepair, technician},
		{"pending approve", pendingRequest(), EventCustomerApprove, customer},
		{"pending complete", pendingRequest(), EventCompleteRepair, technician},
		{"negotiating accept", assignedRequest(models.StatusNegotiating), EventAccept, technician},
		{"negotiating deny", assignedRequest(models.StatusNegotiating), EventDeny, technician},
		{"service request approve", assignedRequest(models.StatusServiceRequest), EventCustomerApprove, customer},
		{"accepted accept again", assignedRequest(models.StatusAccepted), EventAccept, technician},
		{"accepted cancel", assignedRequest(models.StatusAccepted), EventCancel, customer},
		{"in progress start again", assignedRequest(models.StatusInProgress), EventStartRepair, technician},
		{"completed complete again", assignedRequest(models.StatusCompleted), EventCompleteRepair, technician},
		{"completed progress", assignedRequest(models.StatusCompleted), EventUpdateProgress, technician},
		{"paid anything", assignedRequest(models.StatusPaid), EventStartRepair, technician},
		{"denied anything", assignedRequest(models.StatusDenied), EventAccept, technician},
		{"declined anything", assignedRequest(models.StatusDeclined), EventAccept, technician},
		{"cancelled anything", assignedRequest(models.StatusCancelled), EventAccept, technician},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanTransition(tt.req, tt.event, tt.actor, TransitionParams{})
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestPlanTransitionActorRole(t *testing.T) {
	_, err := PlanTransition(pendingRequest(), EventAccept, customer, TransitionParams{})
	assert.ErrorIs(t, err, ErrWrongActor)

	_, err = PlanTransition(pendingRequest(), EventCancel, technician, TransitionParams{})
	assert.ErrorIs(t, err, ErrWrongActor)

	_, err = PlanTransition(assignedRequest(models.StatusNegotiating), EventSendServiceRequest, technician, TransitionParams{AgreedPrice: floatPtr(100)})
	assert.ErrorIs(t, err, ErrWrongActor)

	_, err = PlanTransition(assignedRequest(models.StatusInProgress), EventCompleteRepair, customer, TransitionParams{FinalPrice: floatPtr(100)})
	assert.ErrorIs(t, err, ErrWrongActor)
}

func TestPlanTransitionActorIdentity(t *testing.T) {
	otherCustomer := Actor{UserID: 99, Role: models.UserTypeCustomer, Name: "Mallory"}
	otherTechnician := Actor{UserID: 98, Role: models.UserTypeTechnician, Name: "Trent"}

	_, err := PlanTransition(pendingRequest(), EventCancel, otherCustomer, TransitionParams{})
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = PlanTransition(assignedRequest(models.StatusAccepted), EventStartRepair, otherTechnician, TransitionParams{})
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = PlanTransition(assignedRequest(models.StatusNegotiating), EventCustomerApprove, otherCustomer, TransitionParams{})
	assert.ErrorIs(t, err, ErrNotParticipant)

	// the request's own customer cannot pose as its technician
	selfServing := Actor{UserID: 10, Role: models.UserTypeTechnician, Name: "Alice"}
	_, err = PlanTransition(pendingRequest(), EventAccept, selfServing, TransitionParams{})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestPlanTransitionAcceptBindsTechnician(t *testing.T) {
	outcome, err := PlanTransition(pendingRequest(), EventAccept, technician, TransitionParams{})
	require.NoError(t, err)
	assert.Equal(t, technician.UserID, outcome.Updates["technician_id"])
	assert.Equal(t, "Bob", outcome.Updates["technician_name"])
	assert.NotNil(t, outcome.Updates["accepted_at"])

	require.NotNil(t, outcome.Notification)
	assert.Equal(t, uint(10), outcome.Notification.UserID)
	assert.Equal(t, "Request Accepted", outcome.Notification.Title)
	assert.Contains(t, outcome.Notification.Message, "Laptop")
}

func TestPlanTransitionServiceRequestAcceptKeepsAssignment(t *testing.T) {
	req := assignedRequest(models.StatusServiceRequest)
	req.AgreedPrice = floatPtr(120)

	outcome, err := PlanTransition(req, EventAccept, technician, TransitionParams{})
	require.NoError(t, err)
	assert.NotContains(t, outcome.Updates, "technician_id")
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, "Service Request Accepted", outcome.Notification.Title)
}

func TestPlanTransitionOfferRequiresPrice(t *testing.T) {
	req := assignedRequest(models.StatusNegotiating)

	_, err := PlanTransition(req, EventSendServiceRequest, customer, TransitionParams{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = PlanTransition(req, EventSendServiceRequest, customer, TransitionParams{AgreedPrice: floatPtr(0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = PlanTransition(req, EventSendServiceRequest, customer, TransitionParams{AgreedPrice: floatPtr(-5)})
	assert.ErrorIs(t, err, ErrValidation)

	outcome, err := PlanTransition(req, EventSendServiceRequest, customer, TransitionParams{AgreedPrice: floatPtr(149.99)})
	require.NoError(t, err)
	assert.Equal(t, 149.99, outcome.Updates["agreed_price"])
}

func TestPlanTransitionProgressRules(t *testing.T) {
	req := assignedRequest(models.StatusInProgress)
	req.ProgressPercentage = 50

	for _, pct := range []int{0, -10, 101} {
		_, err := PlanTransition(req, EventUpdateProgress, technician, TransitionParams{Percentage: pct})
		assert.ErrorIs(t, err, ErrValidation, "percentage %d", pct)
	}

	// progress never decreases
	_, err := PlanTransition(req, EventUpdateProgress, technician, TransitionParams{Percentage: 40})
	assert.ErrorIs(t, err, ErrValidation)

	// staying level is allowed, the timeline entry still lands
	outcome, err := PlanTransition(req, EventUpdateProgress, technician, TransitionParams{Percentage: 50, ProgressText: "waiting on parts"})
	require.NoError(t, err)
	require.NotNil(t, outcome.Progress)
	assert.Equal(t, 50, outcome.Progress.Percentage)
	assert.Equal(t, "waiting on parts", outcome.Progress.Text)

	outcome, err = PlanTransition(req, EventUpdateProgress, technician, TransitionParams{Percentage: 75})
	require.NoError(t, err)
	assert.Equal(t, 75, outcome.Updates["progress_percentage"])
	require.NotNil(t, outcome.Notification)
	assert.Contains(t, outcome.Notification.Message, "75%")

	// the apply-time guard must lose to any write that already moved
	// progress past this plan's percentage
	require.NotNil(t, outcome.ProgressGuard)
	assert.Equal(t, 75, *outcome.ProgressGuard)
}

func TestPlanTransitionProgressGuardOnlyOnProgressEvents(t *testing.T) {
	outcome, err := PlanTransition(assignedRequest(models.StatusAccepted), EventStartRepair, technician, TransitionParams{})
	require.NoError(t, err)
	assert.Nil(t, outcome.ProgressGuard)

	outcome, err = PlanTransition(assignedRequest(models.StatusInProgress), EventCompleteRepair, technician, TransitionParams{FinalPrice: floatPtr(150)})
	require.NoError(t, err)
	assert.Nil(t, outcome.ProgressGuard)
}

func TestPlanTransitionComplete(t *testing.T) {
	req := assignedRequest(models.StatusInProgress)
	req.ProgressPercentage = 80

	_, err := PlanTransition(req, EventCompleteRepair, technician, TransitionParams{})
	assert.ErrorIs(t, err, ErrValidation)

	duration := 2.5
	outcome, err := PlanTransition(req, EventCompleteRepair, technician, TransitionParams{
		FinalPrice:      floatPtr(199.5),
		CompletionNotes: "Replaced the display assembly",
		RepairDuration:  &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, outcome.NewStatus)
	assert.Equal(t, 199.5, outcome.Updates["final_price"])
	assert.Equal(t, 199.5, outcome.Updates["agreed_price"])
	assert.Equal(t, 100, outcome.Updates["progress_percentage"])
	assert.Equal(t, false, outcome.Updates["payment_completed"])
	assert.Equal(t, 2.5, outcome.Updates["repair_duration"])
	assert.Contains(t, outcome.SystemMessage, "$199.50")

	require.NotNil(t, outcome.Notification)
	assert.Equal(t, "Repair Completed", outcome.Notification.Title)
}

func TestPlanTransitionStartRepairSideEffects(t *testing.T) {
	outcome, err := PlanTransition(assignedRequest(models.StatusAccepted), EventStartRepair, technician, TransitionParams{})
	require.NoError(t, err)
	assert.Equal(t, "Technician has started the repair process.", outcome.SystemMessage)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, "Repair Started", outcome.Notification.Title)
	assert.NotNil(t, outcome.Updates["repair_started_at"])
}

func TestPlanTransitionApproveNotifiesTechnician(t *testing.T) {
	outcome, err := PlanTransition(assignedRequest(models.StatusNegotiating), EventCustomerApprove, customer, TransitionParams{})
	require.NoError(t, err)
	assert.Equal(t, true, outcome.Updates["approved_by_customer"])
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, uint(20), outcome.Notification.UserID)
}

func TestPlanTransitionDeclineNotifiesCustomer(t *testing.T) {
	outcome, err := PlanTransition(assignedRequest(models.StatusServiceRequest), EventDecline, technician, TransitionParams{})
	require.NoError(t, err)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, uint(10), outcome.Notification.UserID)
	assert.Equal(t, "Service Request Declined", outcome.Notification.Title)
}
