package domain

// RemoteNumber is a phone number as reported by the provider's live
// inventory. Only the identity matters for reconciliation; service
// memberships are attached to RemoteService instead.
type RemoteNumber struct {
	Number string
}

// RemoteCampaign is a provider-side A2P compliance campaign attached to a
// messaging service.
type RemoteCampaign struct {
	Status  string
	UseCase string
}

// RemoteService is the provider's record of a messaging service with its
// member numbers and compliance state pre-resolved, so reconciliation never
// needs a secondary fetch.
type RemoteService struct {
	SID           string
	FriendlyName  string
	UseCase       string
	U2PRegistered bool
	Members       []string
	Campaigns     []RemoteCampaign
}

// SyncPolicy identifies this deployment's expected state in a provider
// account that may be shared with other deployments.
type SyncPolicy struct {
	// MainNumber is the single shared number for the non-per-user flow.
	// It is configured, never stored as a RelayNumber.
	MainNumber string
	// NumberChannel is the channel of the service relay numbers belong to.
	NumberChannel string
	// MainNumberChannel is the channel of the main number's service.
	MainNumberChannel string
	// ServiceOptionalCountries lists country codes whose numbers do not
	// need a service membership (no A2P requirement there).
	ServiceOptionalCountries []string
}

// ServiceOptional reports whether numbers from the given country may stay
// outside a messaging service without being flagged.
func (p SyncPolicy) ServiceOptional(countryCode string) bool {
	for _, cc := range p.ServiceOptionalCountries {
		if cc == countryCode {
			return true
		}
	}
	return false
}
