// Package notification tells a technician about a new assignment by SMS and
// the customer by email once the assignment job has committed.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldservice_backend/internal/appointments/domain"
	"fieldservice_backend/internal/email"
	"fieldservice_backend/internal/sms"
	"fieldservice_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// ContactReader loads the records needed to address a notification.
type ContactReader interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	GetTechnician(ctx context.Context, id uuid.UUID) (*domain.Person, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Person, error)
}

// Metrics records delivery results per channel.
type Metrics interface {
	Notification(channel string, err error)
}

type Notifier struct {
	contacts ContactReader
	sms      sms.Sender
	email    email.Sender
	metrics  Metrics
	loc      *time.Location
	log      *logger.Logger
}

func New(contacts ContactReader, smsSender sms.Sender, emailSender email.Sender, metrics Metrics, loc *time.Location, log *logger.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		contacts: contacts,
		sms:      smsSender,
		email:    emailSender,
		metrics:  metrics,
		loc:      loc,
		log:      log,
	}
}

// Notify sends both messages. A failure on one channel does not stop the other;
// the returned error joins every channel failure.
func (n *Notifier) Notify(ctx context.Context, appointmentID, technicianID, customerID uuid.UUID) error {
	appt, err := n.contacts.GetAppointment(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}
	tech, err := n.contacts.GetTechnician(ctx, technicianID)
	if err != nil {
		return fmt.Errorf("load technician: %w", err)
	}
	customer, err := n.contacts.GetCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("load customer: %w", err)
	}

	var errs []error

	if tech.Phone == "" {
		n.log.WithContext(ctx).Warn("technician has no phone number, skipping sms", "technicianId", technicianID)
	} else {
		err := n.sms.Send(ctx, tech.Phone, n.technicianMessage(appt))
		n.record(ChannelSMS, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}

	if customer.Email == "" {
		n.log.WithContext(ctx).Warn("customer has no email address, skipping email", "customerId", customerID)
	} else {
		err := n.email.SendAssignmentEmail(ctx, customer.Email, email.AssignmentEmail{
			CustomerName:    customer.FullName(),
			TechnicianName:  tech.FullName(),
			ReferenceNumber: appt.ReferenceNumber,
			Title:           appt.Title,
			ScheduledAt:     n.formatTime(appt.ScheduledAt),
			Address:         formatAddress(appt.Address),
		})
		n.record(ChannelEmail, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (n *Notifier) record(channel string, err error) {
	if n.metrics != nil {
		n.metrics.Notification(channel, err)
	}
}

func (n *Notifier) technicianMessage(appt *domain.Appointment) string {
	return fmt.Sprintf("New job %s: %s on %s at %s. Open the app to accept.",
		appt.ReferenceNumber, appt.Title, n.formatTime(appt.ScheduledAt), formatAddress(appt.Address))
}

func (n *Notifier) formatTime(t time.Time) string {
	return t.In(n.loc).Format("Mon 2 Jan 2006 15:04 MST")
}

func formatAddress(a domain.Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.ZipCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
