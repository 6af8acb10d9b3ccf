package notification

// Type is the closed enumeration of business events that can produce a
// notification. New events require an explicit addition here so that every
// place matching on types (template lookup, preference overrides, stats
// grouping) stays exhaustive.
type Type string

// Account and security events.
const (
	TypeUserRegistered        Type = "user.registered"
	TypeEmailVerified         Type = "user.email_verified"
	TypePasswordChanged       Type = "user.password_changed"
	TypePasswordResetRequest  Type = "user.password_reset_requested"
	TypeProfileUpdated        Type = "user.profile_updated"
	TypeAccountDeactivated    Type = "user.account_deactivated"
	TypeAccountReactivated    Type = "user.account_reactivated"
	TypeLoginNewDevice        Type = "security.login_new_device"
	TypeSecurityAlert         Type = "security.alert"
	TypeTwoFactorEnabled      Type = "security.two_factor_enabled"
	TypeTwoFactorDisabled     Type = "security.two_factor_disabled"
	TypeSessionRevoked        Type = "security.session_revoked"
)

// Billing events.
const (
	TypePaymentReceived       Type = "billing.payment_received"
	TypePaymentFailed         Type = "billing.payment_failed"
	TypeInvoiceCreated        Type = "billing.invoice_created"
	TypeInvoiceOverdue        Type = "billing.invoice_overdue"
	TypeSubscriptionStarted   Type = "billing.subscription_started"
	TypeSubscriptionRenewed   Type = "billing.subscription_renewed"
	TypeSubscriptionCancelled Type = "billing.subscription_cancelled"
	TypeSubscriptionExpiring  Type = "billing.subscription_expiring"
	TypeTrialStarted          Type = "billing.trial_started"
	TypeTrialEnding           Type = "billing.trial_ending"
	TypeRefundIssued          Type = "billing.refund_issued"
)

// Property and listing events.
const (
	TypePropertyListed       Type = "property.listed"
	TypePropertyUpdated      Type = "property.updated"
	TypePropertySold         Type = "property.sold"
	TypePropertyPriceChanged Type = "property.price_changed"
	TypePropertyFavorited    Type = "property.favorited"
	TypeViewingScheduled     Type = "property.viewing_scheduled"
	TypeViewingReminder      Type = "property.viewing_reminder"
	TypeViewingCancelled     Type = "property.viewing_cancelled"
	TypeOfferReceived        Type = "property.offer_received"
	TypeOfferAccepted        Type = "property.offer_accepted"
	TypeOfferRejected        Type = "property.offer_rejected"
	TypeInquiryReceived      Type = "property.inquiry_received"
)

// Social and messaging events.
const (
	TypeMessageReceived Type = "social.message_received"
	TypeMentionReceived Type = "social.mention_received"
	TypeReviewReceived  Type = "social.review_received"
	TypeCommentReceived Type = "social.comment_received"
	TypeFollowerAdded   Type = "social.follower_added"
)

// System and marketing events.
const (
	TypeMaintenanceScheduled Type = "system.maintenance_scheduled"
	TypeSystemUpdate         Type = "system.update"
	TypeAnnouncement         Type = "system.announcement"
	TypeWelcome              Type = "system.welcome"
	TypeDigest               Type = "marketing.digest"
	TypeNewsletter           Type = "marketing.newsletter"
	TypePromotion            Type = "marketing.promotion"
)

var allTypes = []Type{
	TypeUserRegistered, TypeEmailVerified, TypePasswordChanged,
	TypePasswordResetRequest, TypeProfileUpdated, TypeAccountDeactivated,
	TypeAccountReactivated, TypeLoginNewDevice, TypeSecurityAlert,
	TypeTwoFactorEnabled, TypeTwoFactorDisabled, TypeSessionRevoked,
	TypePaymentReceived, TypePaymentFailed, TypeInvoiceCreated,
	TypeInvoiceOverdue, TypeSubscriptionStarted, TypeSubscriptionRenewed,
	TypeSubscriptionCancelled, TypeSubscriptionExpiring, TypeTrialStarted,
	TypeTrialEnding, TypeRefundIssued,
	TypePropertyListed, TypePropertyUpdated, TypePropertySold,
	TypePropertyPriceChanged, TypePropertyFavorited, TypeViewingScheduled,
	TypeViewingReminder, TypeViewingCancelled, TypeOfferReceived,
	TypeOfferAccepted, TypeOfferRejected, TypeInquiryReceived,
	TypeMessageReceived, TypeMentionReceived, TypeReviewReceived,
	TypeCommentReceived, TypeFollowerAdded,
	TypeMaintenanceScheduled, TypeSystemUpdate, TypeAnnouncement,
	TypeWelcome, TypeDigest, TypeNewsletter, TypePromotion,
}

var typeSet = func() map[Type]struct{} {
	m := make(map[Type]struct{}, len(allTypes))
	for _, t := range allTypes {
		m[t] = struct{}{}
	}
	return m
}()

// AllTypes returns every known notification type in a stable order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether the type is part of the closed enumeration.
func (t Type) Valid() bool {
	_, ok := typeSet[t]
	return ok
}

// Marketing reports whether the type belongs to the marketing group, which
// is subject to per-user frequency caps.
func (t Type) Marketing() bool {
	switch t {
	case TypeDigest, TypeNewsletter, TypePromotion:
		return true
	}
	return false
}
