package notify

import "fmt"

// Template identifies one of the fixed notification triggers. Message text
// is derived from the template and its context only, so redelivering the
// same trigger produces identical content.
type Template string

const (
	TemplateStatusChange     Template = "status_change"
	TemplatePayoutApproved   Template = "payout_approved"
	TemplatePayoutRejected   Template = "payout_rejected"
	TemplateAccountSuspended Template = "account_suspended"
	TemplateAccountActivated Template = "account_activated"
	TemplateVendorApproved   Template = "vendor_approved"
	TemplateVendorRejected   Template = "vendor_rejected"
)

// Context carries the values a template may interpolate.
type Context struct {
	OrderNumber string
	StatusName  string
	Detail      string
}

func render(template Template, ctx Context) (title, message string) {
	switch template {
	case TemplateStatusChange:
		return "Order " + ctx.StatusName,
			fmt.Sprintf("Order %s is now %s.", ctx.OrderNumber, ctx.StatusName)
	case TemplatePayoutApproved:
		return "Payout approved",
			fmt.Sprintf("Your payout request has been approved. %s", ctx.Detail)
	case TemplatePayoutRejected:
		return "Payout rejected",
			fmt.Sprintf("Your payout request has been rejected. %s", ctx.Detail)
	case TemplateAccountSuspended:
		return "Account suspended",
			"Your account has been suspended by the platform administrators."
	case TemplateAccountActivated:
		return "Account activated",
			"Your account is active again. Welcome back!"
	case TemplateVendorApproved:
		return "Vendor application approved",
			"Your restaurant has been approved and can now receive orders."
	case TemplateVendorRejected:
		return "Vendor application rejected",
			fmt.Sprintf("Your restaurant application was rejected. %s", ctx.Detail)
	}
	return "Notification", ctx.Detail
}
