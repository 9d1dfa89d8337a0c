// Package export renders the downloadable plain-text status summary.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/format"
	"github.com/swiftloan/backend/internal/tracking"
)

const ContentType = "text/plain; charset=utf-8"

type Contact struct {
	Email string
	Phone string
	Hours string
}

var DefaultContact = Contact{
	Email: "support@swiftloan.in",
	Phone: "1800-120-4455",
	Hours: "Mon-Sat, 9:00 AM - 7:00 PM IST",
}

const (
	rule   = "========================================"
	divide = "----------------------------------------"
)

// Filename follows Loan_Status_<application_number>_<YYYY-MM-DD>.txt.
func Filename(applicationNumber string, at time.Time) string {
	return fmt.Sprintf("Loan_Status_%s_%s.txt", applicationNumber, format.ISODate(at))
}

func Summary(app application.Application, stages []tracking.Stage, generatedAt time.Time) string {
	return SummaryWithContact(app, stages, generatedAt, DefaultContact)
}

func SummaryWithContact(app application.Application, stages []tracking.Stage, generatedAt time.Time, contact Contact) string {
	var b strings.Builder
	info := app.Status.Info()
	done, total := tracking.Progress(stages)

	b.WriteString(rule + "\n")
	b.WriteString("   LOAN APPLICATION STATUS SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", format.DateTime(generatedAt))

	section(&b, "APPLICATION DETAILS")
	field(&b, "Application Number", app.ApplicationNumber)
	field(&b, "Applicant Name", app.FullName)
	field(&b, "Email", app.Email)
	field(&b, "Phone", app.Phone)
	field(&b, "Loan Amount", format.INR(app.LoanAmount))
	field(&b, "Loan Tenure", fmt.Sprintf("%d years", app.LoanTenure))
	field(&b, "Applied On", format.Date(app.CreatedAt))
	b.WriteString("\n")

	section(&b, "CURRENT STATUS")
	field(&b, "Status", info.Label)
	field(&b, "Current Stage", tracking.CurrentStage(stages).Name)
	field(&b, "Progress", fmt.Sprintf("%d/%d stages completed", done, total))
	field(&b, "Last Updated", format.DateTime(app.UpdatedAt))
	b.WriteString("\n")

	section(&b, "PROPERTY DETAILS")
	field(&b, "Property Type", app.PropertyType)
	field(&b, "Address", app.PropertyAddress)
	field(&b, "City", app.PropertyCity)
	field(&b, "State", app.PropertyState)
	field(&b, "Pincode", app.PropertyPincode)
	field(&b, "Property Value", format.INR(app.PropertyValue))
	b.WriteString("\n")

	section(&b, "APPLICATION PROGRESS")
	for i, s := range stages {
		fmt.Fprintf(&b, "%d. %s [%s] %s - %s\n", i+1, s.Glyph(), s.Label(), s.Name, s.Date)
	}
	b.WriteString("\n")

	b.WriteString(divide + "\n")
	b.WriteString("For queries, contact us:\n")
	fmt.Fprintf(&b, "Email: %s\n", contact.Email)
	fmt.Fprintf(&b, "Phone: %s\n", contact.Phone)
	fmt.Fprintf(&b, "Hours: %s\n", contact.Hours)
	b.WriteString(rule + "\n")
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString(divide + "\n")
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "%-19s: %s\n", label, value)
}
