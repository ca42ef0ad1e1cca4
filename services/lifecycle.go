package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"repair-match-server/models"
)

// Actor identifies who is issuing a lifecycle event. Handlers always pass an
// explicit actor instead of reading ambient auth state.
type Actor struct {
	UserID uint
	Role   models.UserType
	Name   string
}

// Event is a lifecycle intent issued by a client.
type Event string

const (
	EventAccept             Event = "accept"
	EventStartNegotiation   Event = "startNegotiation"
	EventDeny               Event = "deny"
	EventCustomerApprove    Event = "customerApprove"
	EventSendServiceRequest Event = "sendServiceRequest"
	EventDecline            Event = "decline"
	EventStartRepair        Event = "startRepair"
	EventUpdateProgress     Event = "updateProgress"
	EventCompleteRepair     Event = "completeRepair"
	EventCancel             Event = "cancel"
)

// TransitionParams carries the per-event payload.
type TransitionParams struct {
	AgreedPrice     *float64 // sendServiceRequest
	FinalPrice      *float64 // completeRepair
	CompletionNotes string   // completeRepair
	RepairDuration  *float64 // completeRepair, hours
	Percentage      int      // updateProgress
	ProgressText    string   // updateProgress
}

// NotificationIntent is a notification the engine wants filed as part of the
// transition's transaction.
type NotificationIntent struct {
	UserID  uint
	Title   string
	Message string
	Type    string
}

// TransitionOutcome describes every write a validated transition performs.
type TransitionOutcome struct {
	NewStatus     models.RepairRequestStatus
	Updates       map[string]interface{}
	SystemMessage string
	Notification  *NotificationIntent
	Progress      *models.ProgressUpdate

	// ProgressGuard, when set, requires the stored progress to still be at
	// or below this value when the transition is applied. It closes the race
	// where a higher percentage commits between plan and apply.
	ProgressGuard *int
}

// transition table: which (status, event) pairs exist and which role drives
// them. Anything not listed is rejected.
type transitionRule struct {
	to    models.RepairRequestStatus
	actor models.UserType
}

var transitionTable = map[models.RepairRequestStatus]map[Event]transitionRule{
	models.StatusPending: {
		EventAccept:           {models.StatusAccepted, models.UserTypeTechnician},
		EventStartNegotiation: {models.StatusNegotiating, models.UserTypeTechnician},
		EventDeny:             {models.StatusDenied, models.UserTypeTechnician},
		EventCancel:           {models.StatusCancelled, models.UserTypeCustomer},
	},
	models.StatusNegotiating: {
		EventCustomerApprove:    {models.StatusAccepted, models.UserTypeCustomer},
		EventSendServiceRequest: {models.StatusServiceRequest, models.UserTypeCustomer},
	},
	models.StatusServiceRequest: {
		EventAccept:  {models.StatusAccepted, models.UserTypeTechnician},
		EventDecline: {models.StatusDeclined, models.UserTypeTechnician},
	},
	models.StatusAccepted: {
		EventStartRepair: {models.StatusInProgress, models.UserTypeTechnician},
	},
	models.StatusInProgress: {
		EventUpdateProgress: {models.StatusInProgress, models.UserTypeTechnician},
		EventCompleteRepair: {models.StatusCompleted, models.UserTypeTechnician},
	},
}

// PlanTransition validates (status, event, actor, params) against the
// transition table and returns the writes the transition performs. It never
// touches the database; all persistence happens in LifecycleService.Apply.
func PlanTransition(req *models.RepairRequest, event Event, actor Actor, p TransitionParams) (*TransitionOutcome, error) {
	rules, ok := transitionTable[req.Status]
	if !ok {
		return nil, fmt.Errorf("%w: no events allowed from status %q", ErrInvalidTransition, req.Status)
	}
	rule, ok := rules[event]
	if !ok {
		return nil, fmt.Errorf("%w: event %q not allowed from status %q", ErrInvalidTransition, event, req.Status)
	}

	if actor.Role != rule.actor {
		return nil, fmt.Errorf("%w: event %q requires a %s", ErrWrongActor, event, rule.actor)
	}
	if err := checkIdentity(req, actor); err != nil {
		return nil, err
	}

	now := time.Now()
	out := &TransitionOutcome{
		NewStatus: rule.to,
		Updates:   map[string]interface{}{"status": rule.to},
	}

	switch event {
	case EventAccept:
		out.Updates["accepted_at"] = &now
		if req.TechnicianID == nil {
			out.Updates["technician_id"] = actor.UserID
			out.Updates["technician_name"] = actor.Name
		}
		if req.Status == models.StatusServiceRequest {
			out.Notification = &NotificationIntent{
				UserID:  req.CustomerID,
				Title:   "Service Request Accepted",
				Message: fmt.Sprintf("Your service request for %s has been accepted by the technician.", req.DeviceType),
				Type:    "service_request_accepted",
			}
		} else {
			out.Notification = &NotificationIntent{
				UserID:  req.CustomerID,
				Title:   "Request Accepted",
				Message: fmt.Sprintf("Your repair request for %s has been accepted by a technician.", req.DeviceType),
				Type:    "request_accepted",
			}
		}

	case EventStartNegotiation:
		out.Updates["technician_id"] = actor.UserID
		out.Updates["technician_name"] = actor.Name

	case EventDeny:
		// records who denied
		out.Updates["technician_id"] = actor.UserID
		out.Updates["technician_name"] = actor.Name
		out.Updates["declined_at"] = &now

	case EventCustomerApprove:
		out.Updates["approved_by_customer"] = true
		out.Updates["accepted_at"] = &now
		if req.TechnicianID != nil {
			out.Notification = &NotificationIntent{
				UserID:  *req.TechnicianID,
				Title:   "Price Approved",
				Message: fmt.Sprintf("The customer approved the negotiated price for the %s repair.", req.DeviceType),
				Type:    "price_approved",
			}
		}

	case EventSendServiceRequest:
		if p.AgreedPrice == nil || *p.AgreedPrice <= 0 {
			return nil, fmt.Errorf("%w: a positive agreed price is required", ErrValidation)
		}
		out.Updates["agreed_price"] = *p.AgreedPrice

	case EventDecline:
		out.Updates["declined_at"] = &now
		out.Notification = &NotificationIntent{
			UserID:  req.CustomerID,
			Title:   "Service Request Declined",
			Message: fmt.Sprintf("Your service request for %s has been declined by the technician.", req.DeviceType),
			Type:    "service_request_declined",
		}

	case EventStartRepair:
		out.Updates["repair_started_at"] = &now
		out.SystemMessage = "Technician has started the repair process."
		out.Notification = &NotificationIntent{
			UserID:  req.CustomerID,
			Title:   "Repair Started",
			Message: fmt.Sprintf("Repair work has begun on your %s.", req.DeviceType),
			Type:    "repair_started",
		}

	case EventUpdateProgress:
		if p.Percentage < 1 || p.Percentage > 100 {
			return nil, fmt.Errorf("%w: progress percentage must be between 1 and 100", ErrValidation)
		}
		if p.Percentage < req.ProgressPercentage {
			return nil, fmt.Errorf("%w: progress may not decrease (currently %d%%)", ErrValidation, req.ProgressPercentage)
		}
		pct := p.Percentage
		out.ProgressGuard = &pct
		out.Updates["progress_percentage"] = p.Percentage
		out.Progress = &models.ProgressUpdate{
			RequestID:  req.ID,
			Percentage: p.Percentage,
			Text:       strings.TrimSpace(p.ProgressText),
		}
		out.Notification = &NotificationIntent{
			UserID:  req.CustomerID,
			Title:   "Progress Update",
			Message: fmt.Sprintf("Your %s repair is %d%% complete.", req.DeviceType, p.Percentage),
			Type:    "progress_update",
		}

	case EventCompleteRepair:
		if p.FinalPrice == nil || *p.FinalPrice <= 0 {
			return nil, fmt.Errorf("%w: a positive final price is required", ErrValidation)
		}
		out.Updates["completed_at"] = &now
		out.Updates["final_price"] = *p.FinalPrice
		// keep the agreed price in sync so payment reads one figure
		out.Updates["agreed_price"] = *p.FinalPrice
		out.Updates["completion_notes"] = strings.TrimSpace(p.CompletionNotes)
		out.Updates["progress_percentage"] = 100
		out.Updates["payment_completed"] = false
		if p.RepairDuration != nil {
			out.Updates["repair_duration"] = *p.RepairDuration
		}
		out.SystemMessage = fmt.Sprintf("Repair has been completed! Final price: $%.2f", *p.FinalPrice)
		out.Notification = &NotificationIntent{
			UserID:  req.CustomerID,
			Title:   "Repair Completed",
			Message: fmt.Sprintf("Your %s repair has been completed! Please review and complete payment.", req.DeviceType),
			Type:    "repair_completed",
		}

	case EventCancel:
		// no side effects; only unaccepted requests can be cancelled
	}

	return out, nil
}

// checkIdentity enforces that the acting user actually owns their side of
// the request.
func checkIdentity(req *models.RepairRequest, actor Actor) error {
	switch actor.Role {
	case models.UserTypeCustomer:
		if req.CustomerID != actor.UserID {
			return fmt.Errorf("%w: request belongs to another customer", ErrNotParticipant)
		}
	case models.UserTypeTechnician:
		if actor.UserID == req.CustomerID {
			return fmt.Errorf("%w: a customer cannot act as the technician on their own request", ErrNotParticipant)
		}
		// Pending events bind the technician; later events require the
		// already-assigned one.
		if req.TechnicianID != nil && *req.TechnicianID != actor.UserID {
			return fmt.Errorf("%w: request is assigned to another technician", ErrNotParticipant)
		}
		if req.TechnicianID == nil && req.Status != models.StatusPending {
			return fmt.Errorf("%w: request has no assigned technician", ErrNotParticipant)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrWrongActor, actor.Role)
	}
	return nil
}

// StatusBroadcaster pushes live status updates to connected clients. The
// websocket hub implements it; a nil broadcaster is valid.
type StatusBroadcaster interface {
	BroadcastRequestUpdate(requestID uint, customerID uint, technicianID *uint, status models.RepairRequestStatus)
}

// LifecycleService owns the repair-request state machine. Every transition
// is validated by PlanTransition and applied in one transaction guarded by an
// optimistic status check, so a retried or racing handler fails the guard
// instead of duplicating side effects.
type LifecycleService struct {
	db        *gorm.DB
	messaging *MessagingService
	events    StatusBroadcaster
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(db *gorm.DB, messaging *MessagingService, events StatusBroadcaster) *LifecycleService {
	return &LifecycleService{db: db, messaging: messaging, events: events}
}

// Submit creates a new repair request in Pending for the customer.
func (s *LifecycleService) Submit(actor Actor, create models.RepairRequestCreate) (*models.RepairRequest, error) {
	if actor.Role != models.UserTypeCustomer {
		return nil, fmt.Errorf("%w: only customers submit repair requests", ErrWrongActor)
	}
	if strings.TrimSpace(create.DeviceType) == "" || strings.TrimSpace(create.Description) == "" {
		return nil, fmt.Errorf("%w: deviceType and description are required", ErrValidation)
	}
	if create.LocationLat != nil && create.LocationLng != nil {
		if lat, lng := *create.LocationLat, *create.LocationLng; lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return nil, fmt.Errorf("%w: invalid location coordinates", ErrValidation)
		}
	}

	request := models.RepairRequest{
		CustomerID:   actor.UserID,
		CustomerName: actor.Name,
		DeviceType:   strings.TrimSpace(create.DeviceType),
		Description:  strings.TrimSpace(create.Description),
		Address:      strings.TrimSpace(create.Address),
		LocationLat:  create.LocationLat,
		LocationLng:  create.LocationLng,
		Emergency:    create.Emergency,
		Status:       models.StatusPending,
	}

	if err := s.db.Create(&request).Error; err != nil {
		return nil, err
	}

	log.Printf("📨 Repair request %d submitted by customer %d (%s)", request.ID, actor.UserID, request.DeviceType)
	s.broadcast(&request)
	return &request, nil
}

// Transition applies one lifecycle event to a request.
func (s *LifecycleService) Transition(requestID uint, event Event, actor Actor, p TransitionParams) (*models.RepairRequest, error) {
	var request models.RepairRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	outcome, err := PlanTransition(&request, event, actor, p)
	if err != nil {
		return nil, err
	}

	var systemMessage *models.Message
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Optimistic concurrency: the request must still be in the status
		// the plan was made against. Losing a race rejects the whole
		// transition without mutating anything.
		query := tx.Model(&models.RepairRequest{}).
			Where("id = ? AND status = ?", request.ID, request.Status)
		if outcome.ProgressGuard != nil {
			query = query.Where("progress_percentage <= ?", *outcome.ProgressGuard)
		}
		res := query.Updates(outcome.Updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request %d was changed by a concurrent update", ErrConflict, request.ID)
		}

		if outcome.Progress != nil {
			if err := tx.Create(outcome.Progress).Error; err != nil {
				return err
			}
		}

		if outcome.SystemMessage != "" {
			msg, err := s.messaging.PostSystemMessageTx(tx, &request, outcome.SystemMessage)
			if err != nil {
				return err
			}
			systemMessage = msg
		}

		if outcome.Notification != nil {
			if err := createNotification(tx, outcome.Notification, request.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	s.messaging.Broadcast(systemMessage)

	log.Printf("🔄 Request %d: %s → %s (event %s by user %d)", request.ID, request.Status, outcome.NewStatus, event, actor.UserID)

	var updated models.RepairRequest
	if err := s.db.Preload("ProgressUpdates").First(&updated, request.ID).Error; err != nil {
		return nil, err
	}
	s.broadcast(&updated)
	return &updated, nil
}

func (s *LifecycleService) broadcast(req *models.RepairRequest) {
	if s.events != nil {
		s.events.BroadcastRequestUpdate(req.ID, req.CustomerID, req.TechnicianID, req.Status)
	}
}

// createNotification files a notification row inside the caller's
// transaction.
func createNotification(tx *gorm.DB, intent *NotificationIntent, requestID uint) error {
	n := models.Notification{
		UserID:    intent.UserID,
		Title:     intent.Title,
		Message:   intent.Message,
		Type:      intent.Type,
		RequestID: &requestID,
	}
	return tx.Create(&n).Error
}
