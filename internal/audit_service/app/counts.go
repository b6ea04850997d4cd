package app

// Counts is the full reconciliation breakdown. It is built once per snapshot
// pair by folding classified records into this fixed-shape tree and is never
// mutated afterwards; callers share the same instance across Issues, Clean
// and MarkdownReport.
type Counts struct {
	Summary                 SummaryCounts          `json:"summary"`
	RelayNumbers            RelayNumberCounts      `json:"relay_numbers"`
	TwilioNumbers           TwilioNumberCounts     `json:"twilio_numbers"`
	TwilioMessagingServices MessagingServiceCounts `json:"twilio_messaging_services"`
}

// SummaryCounts totals the classified leaf instances across the three joined
// groups. OK + NeedsCleaning always equals the leaf total, and NeedsCleaning
// equals Issues().
type SummaryCounts struct {
	OK            int `json:"ok"`
	NeedsCleaning int `json:"needs_cleaning"`
}

// RelayNumberCounts classifies local numbers by enabled state and usage,
// independent of the remote inventory. "Used" means any usage counter is
// non-zero; the texts/calls/both split covers used numbers exactly.
type RelayNumberCounts struct {
	All       int `json:"all"`
	Disabled  int `json:"disabled"`
	Enabled   int `json:"enabled"`
	Used      int `json:"used"`
	UsedTexts int `json:"used_texts"`
	UsedCalls int `json:"used_calls"`
	UsedBoth  int `json:"used_both"`
}

// TwilioNumberCounts joins the two number inventories. The main number is
// excluded from the generic join and tracked separately.
type TwilioNumberCounts struct {
	All          int `json:"all"`
	InBothDB     int `json:"in_both_db"`
	OnlyRelayDB  int `json:"only_relay_db"`
	OnlyTwilioDB int `json:"only_twilio_db"`
	// OnlyServiceMembers counts numbers that appear in a remote service
	// member list but in neither number inventory: malformed upstream data,
	// one issue each.
	OnlyServiceMembers int `json:"only_service_members"`

	// CountryCodes buckets every local number (in-both and local-only) by
	// country code.
	CountryCodes map[string]*CountryCounts `json:"country_codes"`

	// MainNumber is 1 when the configured main number exists remotely.
	// MainNumberDetail is nil exactly when it is absent; absent is a
	// distinct state from present-with-zero-memberships.
	MainNumber       int               `json:"main_number"`
	MainNumberDetail *MainNumberCounts `json:"main_number_detail,omitempty"`
}

// CountryCounts classifies one country's numbers by service membership.
type CountryCounts struct {
	All               int `json:"all"`
	InService         int `json:"in_service"`
	OnlyRelayService  int `json:"only_relay_service"`
	OnlyTwilioService int `json:"only_twilio_service"`
	NoService         int `json:"no_service"`
	// ServiceOptional marks countries where NoService is acceptable.
	ServiceOptional bool `json:"service_optional"`
	// ServiceFit is nil while InService is zero; the correct/wrong split
	// only exists once at least one number is in a service on both sides.
	ServiceFit *ServiceFitCounts `json:"service_fit,omitempty"`
}

// ServiceFitCounts splits in-service numbers by whether both sides agree on
// the deployment's own number service.
type ServiceFitCounts struct {
	CorrectService int `json:"correct_service"`
	WrongService   int `json:"wrong_service"`
}

// MainNumberCounts classifies the main number's service membership.
type MainNumberCounts struct {
	InService    int `json:"in_service"`
	NoService    int `json:"no_service"`
	WrongService int `json:"wrong_service"`
}

// MessagingServiceCounts joins the two service inventories.
type MessagingServiceCounts struct {
	All          int `json:"all"`
	InBothDB     int `json:"in_both_db"`
	OnlyRelayDB  int `json:"only_relay_db"`
	OnlyTwilioDB int `json:"only_twilio_db"`
	// Sync is nil while InBothDB is zero.
	Sync *ServiceSyncCounts `json:"sync,omitempty"`
}

// ServiceSyncCounts compares services present on both sides. Ready, Spam and
// Full sub-bucket GoodData by the local capacity status.
type ServiceSyncCounts struct {
	GoodData  int `json:"synced_with_good_data"`
	BadData   int `json:"synced_but_bad_data"`
	OutOfSync int `json:"out_of_sync"`
	Ready     int `json:"ready"`
	Spam      int `json:"spam"`
	Full      int `json:"full"`
}
