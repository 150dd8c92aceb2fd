package notification

import (
	"strings"

	"chefly/models"
)

// catalogEntry fixes the category, default priority and phrasing for one
// event type. Title and body are owned here, never by the caller, so every
// channel phrases an event the same way.
type catalogEntry struct {
	Category           models.NotificationCategory
	Priority           models.NotificationPriority
	Title              string
	Body               string
	RequireInteraction bool
	Actions            []models.NotificationAction
}

var catalog = map[models.NotificationType]catalogEntry{
	models.TypeBookingRequested: {
		Category: models.CategoryBooking,
		Priority: models.PriorityHigh,
		Title:    "New booking request",
		Body:     "{customerName} requested a booking for {date}.",
		Actions: []models.NotificationAction{
			{Action: "accept", Title: "Accept"},
			{Action: "decline", Title: "Decline"},
		},
		RequireInteraction: true,
	},
	models.TypeBookingConfirmed: {
		Category: models.CategoryBooking,
		Priority: models.PriorityNormal,
		Title:    "Booking confirmed",
		Body:     "Your booking with {chefName} on {date} is confirmed.",
	},
	models.TypeBookingCancelled: {
		Category: models.CategoryBooking,
		Priority: models.PriorityHigh,
		Title:    "Booking cancelled",
		Body:     "Your booking on {date} was cancelled.",
	},
	models.TypeBookingCompleted: {
		Category: models.CategoryBooking,
		Priority: models.PriorityNormal,
		Title:    "Booking completed",
		Body:     "Your booking with {chefName} is complete. Leave a review!",
	},
	models.TypeBookingReminder: {
		Category: models.CategoryBooking,
		Priority: models.PriorityHigh,
		Title:    "Upcoming booking",
		Body:     "Reminder: your booking with {chefName} is on {date}.",
	},
	models.TypeBookingRejected: {
		Category: models.CategoryBooking,
		Priority: models.PriorityNormal,
		Title:    "Booking declined",
		Body:     "{chefName} is unavailable for your requested date.",
	},
	models.TypePaymentPending: {
		Category: models.CategoryPayment,
		Priority: models.PriorityNormal,
		Title:    "Payment pending",
		Body:     "Your payment of {amount} is being processed.",
	},
	models.TypePaymentSuccess: {
		Category: models.CategoryPayment,
		Priority: models.PriorityNormal,
		Title:    "Payment received",
		Body:     "Your payment of {amount} went through.",
	},
	models.TypePaymentFailed: {
		Category:           models.CategoryPayment,
		Priority:           models.PriorityUrgent,
		Title:              "Payment failed",
		Body:               "Your payment of {amount} could not be processed. Please update your payment method.",
		RequireInteraction: true,
	},
	models.TypePaymentRefunded: {
		Category: models.CategoryPayment,
		Priority: models.PriorityNormal,
		Title:    "Payment refunded",
		Body:     "Your refund of {amount} is on its way.",
	},
	models.TypeMessageReceived: {
		Category: models.CategoryMessage,
		Priority: models.PriorityNormal,
		Title:    "New message",
		Body:     "{senderName} sent you a message.",
	},
	models.TypeReviewReceived: {
		Category: models.CategoryReview,
		Priority: models.PriorityLow,
		Title:    "New review",
		Body:     "{customerName} left you a review.",
	},
	models.TypeReviewResponse: {
		Category: models.CategoryReview,
		Priority: models.PriorityLow,
		Title:    "Review response",
		Body:     "{chefName} responded to your review.",
	},
	models.TypeChefApplicationApproved: {
		Category: models.CategorySystem,
		Priority: models.PriorityHigh,
		Title:    "Application approved",
		Body:     "Congratulations! Your chef application was approved.",
	},
	models.TypeChefApplicationRejected: {
		Category: models.CategorySystem,
		Priority: models.PriorityNormal,
		Title:    "Application update",
		Body:     "Your chef application was not approved this time.",
	},
	models.TypeSystemAnnouncement: {
		Category: models.CategorySystem,
		Priority: models.PriorityLow,
		Title:    "Chefly update",
		Body:     "{message}",
	},
	models.TypeAccountUpdate: {
		Category: models.CategorySystem,
		Priority: models.PriorityNormal,
		Title:    "Account update",
		Body:     "{message}",
	},
}

// Types returns every recognized notification type.
func Types() []models.NotificationType {
	out := make([]models.NotificationType, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	return out
}

// BuildPayload renders the canonical payload for one dispatch. Category always
// comes from the catalog; the caller may only raise priority above the
// per-type default, never lower it.
func BuildPayload(t models.NotificationType, data map[string]string, priorityOverride models.NotificationPriority) (models.NotificationPayload, error) {
	entry, ok := catalog[t]
	if !ok {
		return models.NotificationPayload{}, ErrInvalidEventType
	}

	priority := entry.Priority
	if priorityOverride.IsValid() && priorityOverride.AtLeast(priority) {
		priority = priorityOverride
	}

	return models.NotificationPayload{
		Type:               t,
		Title:              interpolate(entry.Title, data),
		Body:               interpolate(entry.Body, data),
		Data:               data,
		Category:           entry.Category,
		Priority:           priority,
		RequireInteraction: entry.RequireInteraction,
		Actions:            entry.Actions,
	}, nil
}

// interpolate substitutes {key} placeholders with values from data in a
// single left-to-right pass. Substituted values are emitted verbatim and
// never rescanned, so braces inside data cannot trigger further expansion.
// Keys without a value collapse to an empty string so no template braces
// leak into user-facing text.
func interpolate(tmpl string, data map[string]string) string {
	var b strings.Builder
	for {
		start := strings.Index(tmpl, "{")
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.Index(tmpl[start:], "}")
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		b.WriteString(tmpl[:start])
		b.WriteString(data[tmpl[start+1:start+end]])
		tmpl = tmpl[start+end+1:]
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
