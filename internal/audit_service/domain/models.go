package domain

import (
	"github.com/ttacon/libphonenumber"
)

// RegistrationStatus is the compliance verification state recorded for a
// messaging service (mirrors the provider's A2P campaign status values).
type RegistrationStatus string

const (
	RegistrationVerified   RegistrationStatus = "VERIFIED"
	RegistrationInProgress RegistrationStatus = "IN_PROGRESS"
	RegistrationFailed     RegistrationStatus = "FAILED"
)

// CapacityStatus tracks whether a messaging service can accept traffic.
type CapacityStatus string

const (
	CapacityReady CapacityStatus = "ready"
	CapacitySpam  CapacityStatus = "spam"
	CapacityFull  CapacityStatus = "full"
)

// RelayNumber is a provisioned relay phone number as stored locally.
// The usage counters are lifetime totals and never decrease.
type RelayNumber struct {
	Number         string
	Enabled        bool
	TextsForwarded int
	TextsBlocked   int
	CallsForwarded int
	CallsBlocked   int
	// CountryCode is the ISO-3166 alpha-2 code of the owner's verified
	// real number.
	CountryCode string
	// ServiceSID links the number to a local MessagingService record;
	// nil when the number has never been added to a service.
	ServiceSID *string
}

// TextsUsed reports whether the number has ever handled a text.
func (n RelayNumber) TextsUsed() bool {
	return n.TextsForwarded > 0 || n.TextsBlocked > 0
}

// CallsUsed reports whether the number has ever handled a call.
func (n RelayNumber) CallsUsed() bool {
	return n.CallsForwarded > 0 || n.CallsBlocked > 0
}

// Used reports whether any usage counter is non-zero.
func (n RelayNumber) Used() bool {
	return n.TextsUsed() || n.CallsUsed()
}

// MessagingService is the local record of a provider-side messaging service.
type MessagingService struct {
	SID          string
	FriendlyName string
	// Channel tags which deployment the service belongs to, and whether it
	// is the deployment's number service or main-number service.
	Channel            string
	UseCase            string
	CampaignUseCase    string
	RegistrationStatus RegistrationStatus
	CapacityStatus     CapacityStatus
}

// CountryCode derives the ISO-3166 alpha-2 region for an E.164 number.
// Returns "" when the number cannot be parsed.
func CountryCode(e164 string) string {
	num, err := libphonenumber.Parse(e164, "")
	if err != nil {
		return ""
	}
	return libphonenumber.GetRegionCodeForNumber(num)
}
