package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strconv"

	gomail "gopkg.in/gomail.v2"

	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
)

func init() {
	config.LoadEnv()
}

// Subjects per transition event.
var subjects = map[events.Name]string{
	events.BookingCreated:     "Your appointment is booked",
	events.PaidInFull:         "Payment received — see you soon!",
	events.Cancelled:          "Your appointment has been cancelled",
	events.ServiceAdded:       "Your appointment was updated",
	events.BookingRescheduled: "Your appointment has been moved",
}

var eventTemplate = template.Must(template.New("event").Parse(`
<p>Hi {{.CustomerName}},</p>
<p>{{.Body}}</p>
<p>Service: {{.Service}}<br>Date: {{.Date}} at {{.TimeSlot}}</p>
<p>— The studio</p>
`))

// Notifier sends transactional email for engine transition events. It is a
// collaborator outside the engine: failures are logged, never propagated
// back into money state.
type Notifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewNotifier builds the mail collaborator from SMTP_* env vars. Returns
// nil (caller should fall back to a nop) when mail is not configured.
func NewNotifier() *Notifier {
	host := os.Getenv("SMTP_HOST")
	from := os.Getenv("FROM_EMAIL")
	if host == "" || from == "" {
		return nil
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &Notifier{
		dialer: gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS")),
		from:   from,
	}
}

func (n *Notifier) Notify(_ context.Context, event events.Event) {
	subject, ok := subjects[event.Name]
	if !ok || event.CustomerEmail == "" {
		return
	}

	var body bytes.Buffer
	data := struct {
		events.Event
		Body string
	}{Event: event, Body: bodyFor(event)}
	if err := eventTemplate.Execute(&body, data); err != nil {
		logger.ErrorLogger.Errorf("Failed to render %s email: %v", event.Name, err)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", event.CustomerEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := n.dialer.DialAndSend(m); err != nil {
		logger.ErrorLogger.Errorf("Failed to send %s email to %s: %v", event.Name, event.CustomerEmail, err)
		return
	}
	logger.InfoLogger.Infof("Sent %s email to %s for booking %s", event.Name, event.CustomerEmail, event.BookingID)
}

func bodyFor(event events.Event) string {
	switch event.Name {
	case events.BookingCreated:
		return "Thank you for booking with us. We can't wait to see you."
	case events.PaidInFull:
		return fmt.Sprintf("We've received your payment of %d. Your appointment is fully paid — here are your aftercare tips: avoid water and steam for the first 24 hours.", event.Amount)
	case events.Cancelled:
		if event.Detail != "" {
			return "Your appointment has been cancelled. " + event.Detail
		}
		return "Your appointment has been cancelled."
	case events.ServiceAdded:
		return fmt.Sprintf("We've added %q to your appointment.", event.Detail)
	case events.BookingRescheduled:
		return "Your appointment has been moved to the new time below."
	}
	return ""
}
