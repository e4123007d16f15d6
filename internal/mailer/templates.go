package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/artist-site/internal/model"
)

const brand = "Famous Arrel"

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"longDate": func(s string) string {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t.Format("Monday, January 2, 2006")
		}
		return s
	},
	"yesno": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
}

var templates = template.Must(template.New("mail").Funcs(funcs).Parse(`
{{define "booking_admin"}}<h2>New Booking Request</h2>
<h3>Event Details</h3>
<p><strong>Event Type:</strong> {{.EventType}}</p>
<p><strong>Date:</strong> {{longDate .EventDate}}</p>
<p><strong>Time:</strong> {{.EventTime}}</p>
<p><strong>Event Name:</strong> {{.EventName}}</p>
<p><strong>Venue:</strong> {{.VenueName}}</p>
<p><strong>Address:</strong> {{.VenueAddress}}</p>
<p><strong>Attire:</strong> {{.EventAttire}}</p>
<h3>Client Information</h3>
<p><strong>Name:</strong> {{.ClientName}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<h3>Package Details</h3>
<p><strong>Selected Package:</strong> {{.PackageType}}</p>
<p><strong>Total Amount:</strong> {{money .TotalAmount}}</p>
<p><strong>Deposit Required:</strong> {{money .DepositAmount}}</p>
<p><strong>Custom Arrangement Required:</strong> {{yesno .RequiresCustomArrangement}}</p>
<p><strong>Payment Method:</strong> {{if eq .PaymentMethod "check"}}Check{{else}}PayPal{{end}}</p>
<h3>Equipment Requirements</h3>
<ul>
{{if .Equipment.DrumSet}}<li>Full Professional Quality Drum Set</li>{{end}}
{{if .Equipment.Microphones}}<li>2 Microphones</li>{{end}}
{{if .Equipment.VisualDisplays}}<li>Visual Display Screens</li>{{end}}
{{if .Equipment.SoundSystem}}<li>Professional Quality Sound Systems</li>{{end}}
{{if .Equipment.IsVoiceOverRequest}}<li>VoiceOver/Production Request</li>{{end}}
</ul>
<h3>Travel Arrangements</h3>
<p>{{with .TravelArrangements}}{{.}}{{else}}No specific travel arrangements provided{{end}}</p>
{{end}}

{{define "booking_client"}}<h2>Thank you for your booking request!</h2>
<p>Dear {{.ClientName}},</p>
<p>We have received your booking request for {{.EventName}} on {{longDate .EventDate}}. Our team will review your request and get back to you within 24-48 hours.</p>
<h3>Booking Details</h3>
<p><strong>Event:</strong> {{.EventName}}</p>
<p><strong>Date:</strong> {{longDate .EventDate}}</p>
<p><strong>Time:</strong> {{.EventTime}}</p>
<p><strong>Venue:</strong> {{.VenueName}}</p>
<p><strong>Package:</strong> {{.PackageType}}</p>
<p><strong>Total Amount:</strong> {{money .TotalAmount}}</p>
<p><strong>Required Deposit:</strong> {{money .DepositAmount}}</p>
<h3>Next Steps</h3>
<ol>
<li>Wait for our confirmation email (within 24-48 hours)</li>
<li>Once confirmed, pay the deposit ({{money .DepositAmount}})</li>
<li>Payment method: {{if eq .PaymentMethod "check"}}Check payable to Fine Art Music Empire{{else}}PayPal invoice will be sent{{end}}</li>
</ol>
<p><strong>Note:</strong> The booking is not confirmed until we receive your deposit payment.</p>
<p>Best regards,<br>Famous Arrel Team</p>
{{end}}

{{define "contact_admin"}}<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Inquiry Type:</strong> {{.InquiryType}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
{{end}}

{{define "contact_reply"}}<h2>Thank you for contacting Famous Arrel</h2>
<p>Dear {{.Name}},</p>
<p>We have received your message regarding "{{.Subject}}" and will get back to you as soon as possible.</p>
<p>Best regards,<br>Famous Arrel Team</p>
{{end}}

{{define "verify"}}<h2>Confirm your subscription</h2>
<p>Thanks for signing up for the Famous Arrel newsletter.</p>
<p><a href="{{.Link}}">Click here to verify your email address</a></p>
<p>If you did not request this, you can ignore this email.</p>
{{end}}

{{define "welcome"}}<h2>Thank you for subscribing!</h2>
<p>Dear subscriber,</p>
<p>Thank you for joining our newsletter. You'll now receive updates about:</p>
<ul><li>New music releases</li><li>Upcoming performances</li><li>Special events</li><li>Exclusive content</li></ul>
<p>Best regards,<br>Famous Arrel Team</p>
{{end}}

{{define "subscriber_admin"}}<h2>New Newsletter Subscription</h2>
<p><strong>Source:</strong> {{.Source}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
{{end}}

{{define "order"}}<h2>Thank you for your order!</h2>
<p>Your payment has been received. Order reference: <strong>{{.Order.TransactionID}}</strong></p>
<table>
{{range .Lines}}<tr><td>{{.Name}}{{with .Size}} ({{.}}){{end}}</td><td>x{{.Quantity}}</td><td>{{money .LineTotal}}</td></tr>
{{end}}</table>
<p><strong>Total:</strong> {{money .Order.Total}} {{.Order.Currency}}</p>
<p>Best regards,<br>Famous Arrel Team</p>
{{end}}
`))

// OrderLine is one purchased line in an order confirmation.
type OrderLine struct {
	Name      string
	Size      string
	Quantity  int
	LineTotal decimal.Decimal
}

// Composer renders the site's transactional messages.
type Composer struct {
	AdminEmail string
	SiteURL    string
}

func render(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

func (c Composer) message(to, subject, tmpl string, data any) (Message, error) {
	html, err := render(tmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: subject, HTML: html}, nil
}

func (c Composer) BookingAdmin(b model.Booking) (Message, error) {
	m, err := c.message(c.AdminEmail, "New Booking Request: "+b.EventName, "booking_admin", b)
	m.ReplyTo = b.Email
	return m, err
}

func (c Composer) BookingClient(b model.Booking) (Message, error) {
	return c.message(b.Email, "Your Booking Request - "+brand, "booking_client", b)
}

func (c Composer) ContactAdmin(ct model.Contact) (Message, error) {
	m, err := c.message(c.AdminEmail, fmt.Sprintf("New Contact Form: %s - %s", ct.InquiryType, ct.Subject), "contact_admin", ct)
	m.ReplyTo = ct.Email
	return m, err
}

func (c Composer) ContactReply(ct model.Contact) (Message, error) {
	return c.message(ct.Email, "Thank you for contacting "+brand, "contact_reply", ct)
}

// VerifyLink is the address a subscriber follows to verify.
func (c Composer) VerifyLink(token string) string {
	return c.SiteURL + "/verify-email?token=" + url.QueryEscape(token)
}

func (c Composer) Verification(email, token string) (Message, error) {
	link := c.VerifyLink(token)
	m, err := c.message(email, "Please verify your "+brand+" newsletter subscription", "verify", map[string]string{"Link": link})
	m.Text = "Verify your subscription: " + link
	return m, err
}

func (c Composer) Welcome(email string) (Message, error) {
	return c.message(email, "Welcome to "+brand+" Newsletter!", "welcome", nil)
}

func (c Composer) SubscriberAdmin(source string, at time.Time) (Message, error) {
	return c.message(c.AdminEmail, "New Newsletter Subscriber", "subscriber_admin",
		map[string]string{"Source": source, "Date": at.UTC().Format(time.RFC1123)})
}

func (c Composer) OrderConfirmation(o model.Order, lines []OrderLine) (Message, error) {
	return c.message(o.Email, "Your "+brand+" order", "order", map[string]any{"Order": o, "Lines": lines})
}
