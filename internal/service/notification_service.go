package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/pkg/config"
	"github.com/xen-network/cms-api/pkg/jobs"
)

// Notification is one outbound email handed to the relay.
type Notification struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationSender delivers a single notification.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}

// RelaySender posts notifications to the configured HTTP relay. A non-2xx
// response is a delivery failure.
type RelaySender struct {
	url    string
	client *http.Client
}

// NewRelaySender constructs a RelaySender.
func NewRelaySender(url string, timeout time.Duration) *RelaySender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RelaySender{url: url, client: &http.Client{Timeout: timeout}}
}

// Send implements NotificationSender.
func (s *RelaySender) Send(ctx context.Context, n Notification) error {
	if s.url == "" {
		return fmt.Errorf("notification relay not configured")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}
	return nil
}

// NotificationService dispatches best-effort notifications through a
// background queue. Enqueue failures and delivery failures are logged,
// never propagated to the primary operation.
type NotificationService struct {
	queue      *jobs.Queue
	sender     NotificationSender
	metrics    *MetricsService
	logger     *zap.Logger
	from       string
	adminInbox string
}

// NewNotificationService constructs the service and its worker queue.
func NewNotificationService(sender NotificationSender, metrics *MetricsService, logger *zap.Logger, cfg config.NotificationsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		sender:     sender,
		metrics:    metrics,
		logger:     logger,
		from:       cfg.FromAddress,
		adminInbox: cfg.AdminInbox,
	}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start begins background dispatch.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyBookingConfirmed queues the confirmation email for a booking.
// Best effort: a full queue or stopped worker only logs.
func (s *NotificationService) NotifyBookingConfirmed(booking *models.Booking, confirmedBy string) {
	body := fmt.Sprintf("Hi %s,\n\nYour %s booking with XEN has been confirmed by %s.\n\nThe XEN Team",
		booking.ContactName, booking.ServiceType, confirmedBy)
	s.enqueue(Notification{
		To:      booking.ContactEmail,
		From:    s.from,
		Subject: "Your XEN booking is confirmed",
		Body:    body,
	})
}

// NotifyInquiryReceived queues the internal alert for a new contact inquiry.
func (s *NotificationService) NotifyInquiryReceived(inquiry *models.Inquiry) {
	if s.adminInbox == "" {
		return
	}
	body := fmt.Sprintf("New %s inquiry from %s %s <%s>:\n\n%s",
		inquiry.InquiryType, inquiry.FirstName, inquiry.LastName, inquiry.Email, inquiry.Message)
	s.enqueue(Notification{
		To:      s.adminInbox,
		From:    s.from,
		Subject: "New contact inquiry",
		Body:    body,
	})
}

func (s *NotificationService) enqueue(n Notification) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "email",
		Payload: n,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("to", n.To), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordNotificationFailure()
		}
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		s.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.sender.Send(ctx, n); err != nil {
		if job.Attempt >= 1 && s.metrics != nil {
			s.metrics.RecordNotificationFailure()
		}
		return err
	}
	return nil
}
