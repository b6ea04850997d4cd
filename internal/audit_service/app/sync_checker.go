package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

// SyncChecker reconciles the local relay inventory against the provider's
// live inventory. The classification is computed once per instance from a
// point-in-time snapshot pair and memoized; Issues, Clean and MarkdownReport
// all operate on that cached view, so a report and a subsequent clean never
// disagree about what they saw.
//
// A SyncChecker is not safe for concurrent use. Run one per audit.
type SyncChecker struct {
	numbers  domain.RelayNumberRepository
	services domain.MessagingServiceRepository
	remote   domain.RemoteInventory
	policy   domain.SyncPolicy
	logger   *slog.Logger

	result  *classification
	cleaned map[string]bool
}

// classification is the memoized result of one reconciliation pass.
type classification struct {
	counts *Counts
	issues int
	// staleLinks lists numbers whose local service link points at a service
	// that no longer exists at the provider; the only auto-fixable anomaly.
	staleLinks []string
}

func NewSyncChecker(
	numbers domain.RelayNumberRepository,
	services domain.MessagingServiceRepository,
	remote domain.RemoteInventory,
	policy domain.SyncPolicy,
	logger *slog.Logger,
) *SyncChecker {
	return &SyncChecker{
		numbers:  numbers,
		services: services,
		remote:   remote,
		policy:   policy,
		logger:   logger.With("component", "sync_checker"),
		cleaned:  make(map[string]bool),
	}
}

// Counts returns the nested count breakdown, fetching and classifying on
// first use. Any fetch or read error aborts the run; nothing is cached on
// failure.
func (c *SyncChecker) Counts(ctx context.Context) (*Counts, error) {
	cls, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return cls.counts, nil
}

// Issues returns the total number of anomaly instances. Zero means the two
// inventories are fully synced.
func (c *SyncChecker) Issues(ctx context.Context) (int, error) {
	cls, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	return cls.issues, nil
}

// Clean applies the auto-fixable corrections derived from the cached
// classification and returns how many were applied. Only provably stale
// local service links are touched; anything that would create, move or
// delete a provider resource is report-only. Individual failures are logged
// and skipped, and already-fixed anomalies are not fixed twice.
func (c *SyncChecker) Clean(ctx context.Context) (int, error) {
	cls, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, number := range cls.staleLinks {
		if c.cleaned[number] {
			continue
		}
		if err := c.numbers.ClearServiceLink(ctx, number); err != nil {
			c.logger.WarnContext(ctx, "Failed to clear stale service link",
				"number", number, "error", err)
			continue
		}
		c.cleaned[number] = true
		fixed++
	}
	if fixed > 0 {
		c.logger.InfoContext(ctx, "Cleared stale service links", "fixed", fixed)
	}
	return fixed, nil
}

// MarkdownReport renders the cached counts as the hierarchical text report.
func (c *SyncChecker) MarkdownReport(ctx context.Context) (string, error) {
	cls, err := c.load(ctx)
	if err != nil {
		return "", err
	}
	return cls.counts.MarkdownReport(), nil
}

func (c *SyncChecker) load(ctx context.Context) (*classification, error) {
	if c.result != nil {
		return c.result, nil
	}

	// Remote first: it is the operation that fails, and a failed fetch must
	// abort the whole run before any classification happens.
	remoteNumbers, err := c.remote.ListNumbers(ctx)
	if err != nil {
		return nil, err
	}
	remoteServices, err := c.remote.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	localNumbers, err := c.numbers.ListNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relay numbers: %w", err)
	}
	localServices, err := c.services.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messaging services: %w", err)
	}

	c.result = classify(localNumbers, localServices, remoteNumbers, remoteServices, c.policy)
	c.logger.DebugContext(ctx, "Reconciliation computed",
		"issues", c.result.issues,
		"relay_numbers", c.result.counts.RelayNumbers.All,
		"twilio_numbers", c.result.counts.TwilioNumbers.All,
		"messaging_services", c.result.counts.TwilioMessagingServices.All,
	)
	return c.result, nil
}

// classify folds the two snapshots into a fixed-shape count tree. It is a
// pure function of its inputs and total over the declared domain: no value
// combination panics, and inconsistent upstream data becomes a bucket rather
// than an error.
func classify(
	localNumbers []domain.RelayNumber,
	localServices []domain.MessagingService,
	remoteNumbers []domain.RemoteNumber,
	remoteServices []domain.RemoteService,
	policy domain.SyncPolicy,
) *classification {
	cls := &classification{counts: &Counts{}}
	counts := cls.counts
	counts.TwilioNumbers.CountryCodes = make(map[string]*CountryCounts)

	ok := 0
	issues := 0

	// Local usage classification, independent of the remote snapshot.
	rn := &counts.RelayNumbers
	for _, n := range localNumbers {
		rn.All++
		if !n.Enabled {
			rn.Disabled++
			continue
		}
		rn.Enabled++
		if !n.Used() {
			continue
		}
		rn.Used++
		switch {
		case n.TextsUsed() && n.CallsUsed():
			rn.UsedBoth++
		case n.TextsUsed():
			rn.UsedTexts++
		default:
			rn.UsedCalls++
		}
	}

	// Remote lookup tables. Membership lists are sorted so that a provider
	// reporting more than one service per number still classifies
	// deterministically.
	remoteNumberSet := make(map[string]bool, len(remoteNumbers))
	for _, r := range remoteNumbers {
		remoteNumberSet[r.Number] = true
	}
	memberships := make(map[string][]string)
	remoteServiceByID := make(map[string]domain.RemoteService, len(remoteServices))
	for _, s := range remoteServices {
		remoteServiceByID[s.SID] = s
		for _, member := range s.Members {
			memberships[member] = append(memberships[member], s.SID)
		}
	}
	for _, sids := range memberships {
		sort.Strings(sids)
	}

	localByNumber := make(map[string]domain.RelayNumber, len(localNumbers))
	for _, n := range localNumbers {
		if n.Number == policy.MainNumber {
			continue
		}
		localByNumber[n.Number] = n
	}

	expectedNumberService := expectedServiceSID(localServices, policy.NumberChannel)
	expectedMainService := expectedServiceSID(localServices, policy.MainNumberChannel)

	// Number join. The main number is excluded here and handled below.
	tn := &counts.TwilioNumbers
	for _, n := range localNumbers {
		if n.Number == policy.MainNumber {
			continue
		}
		tn.All++
		if remoteNumberSet[n.Number] {
			tn.InBothDB++
		} else {
			tn.OnlyRelayDB++
		}

		cc := n.CountryCode
		if cc == "" {
			cc = domain.CountryCode(n.Number)
		}
		if cc == "" {
			// Unparseable numbers still need a bucket; ZZ is the ISO
			// placeholder for unknown regions.
			cc = "ZZ"
		}
		bucket := tn.CountryCodes[cc]
		if bucket == nil {
			bucket = &CountryCounts{ServiceOptional: policy.ServiceOptional(cc)}
			tn.CountryCodes[cc] = bucket
		}
		bucket.All++

		relaySID := n.ServiceSID
		twilioSIDs := memberships[n.Number]
		switch {
		case relaySID == nil && len(twilioSIDs) == 0:
			bucket.NoService++
			if bucket.ServiceOptional {
				ok++
			} else {
				issues++
			}
		case relaySID != nil && len(twilioSIDs) == 0:
			bucket.OnlyRelayService++
			issues++
			if _, exists := remoteServiceByID[*relaySID]; !exists {
				// The linked service is gone from the provider entirely:
				// clearing the link cannot lose provider state.
				cls.staleLinks = append(cls.staleLinks, n.Number)
			}
		case relaySID == nil:
			bucket.OnlyTwilioService++
			issues++
		default:
			bucket.InService++
			if bucket.ServiceFit == nil {
				bucket.ServiceFit = &ServiceFitCounts{}
			}
			if expectedNumberService != "" &&
				*relaySID == expectedNumberService &&
				containsSID(twilioSIDs, expectedNumberService) {
				bucket.ServiceFit.CorrectService++
				ok++
			} else {
				bucket.ServiceFit.WrongService++
				issues++
			}
		}
	}
	for number := range remoteNumberSet {
		if number == policy.MainNumber {
			continue
		}
		if _, exists := localByNumber[number]; exists {
			continue
		}
		// More numbers in the provider account than in the local store is
		// legitimate: other deployments share the account.
		tn.All++
		tn.OnlyTwilioDB++
	}

	// Main number. Absence is a distinct state from "present with no
	// service", so the detail block is omitted entirely when it is missing.
	if policy.MainNumber != "" && remoteNumberSet[policy.MainNumber] {
		tn.All++
		tn.MainNumber = 1
		detail := &MainNumberCounts{}
		tn.MainNumberDetail = detail
		switch sids := memberships[policy.MainNumber]; {
		case len(sids) == 0:
			detail.NoService = 1
			issues++
		case expectedMainService != "" && containsSID(sids, expectedMainService):
			detail.InService = 1
			ok++
		default:
			detail.WrongService = 1
			issues++
		}
	} else {
		issues++
	}

	// Service member lists pointing at numbers that exist in neither
	// inventory are upstream inconsistencies; detecting them is the point,
	// so they get a bucket instead of an error.
	for member := range memberships {
		if member == policy.MainNumber || remoteNumberSet[member] {
			continue
		}
		if _, exists := localByNumber[member]; exists {
			continue
		}
		tn.All++
		tn.OnlyServiceMembers++
		issues++
	}

	// Service join by SID.
	ms := &counts.TwilioMessagingServices
	localServiceByID := make(map[string]domain.MessagingService, len(localServices))
	for _, s := range localServices {
		localServiceByID[s.SID] = s
		ms.All++
		r, exists := remoteServiceByID[s.SID]
		if !exists {
			ms.OnlyRelayDB++
			issues++
			continue
		}
		ms.InBothDB++
		if ms.Sync == nil {
			ms.Sync = &ServiceSyncCounts{}
		}
		switch compareService(s, r) {
		case serviceGoodData:
			ms.Sync.GoodData++
			switch s.CapacityStatus {
			case domain.CapacitySpam:
				ms.Sync.Spam++
				issues++
			case domain.CapacityFull:
				ms.Sync.Full++
				issues++
			default:
				ms.Sync.Ready++
				ok++
			}
		case serviceBadData:
			ms.Sync.BadData++
			issues++
		case serviceOutOfSync:
			ms.Sync.OutOfSync++
			issues++
		}
	}
	for sid := range remoteServiceByID {
		if _, exists := localServiceByID[sid]; exists {
			continue
		}
		ms.All++
		ms.OnlyTwilioDB++
		issues++
	}

	counts.Summary = SummaryCounts{OK: ok, NeedsCleaning: issues}
	cls.issues = issues
	return cls
}

type serviceSyncState int

const (
	serviceGoodData serviceSyncState = iota
	serviceBadData
	serviceOutOfSync
)

// compareService decides how a service present on both sides lines up.
// OutOfSync means the provider contradicts a local VERIFIED registration;
// BadData means both sides have the service but the fields disagree.
func compareService(local domain.MessagingService, remote domain.RemoteService) serviceSyncState {
	var campaignStatus, campaignUseCase string
	if len(remote.Campaigns) > 0 {
		campaignStatus = remote.Campaigns[0].Status
		campaignUseCase = remote.Campaigns[0].UseCase
	}

	if local.RegistrationStatus == domain.RegistrationVerified &&
		(campaignStatus != string(domain.RegistrationVerified) || !remote.U2PRegistered) {
		return serviceOutOfSync
	}
	if local.FriendlyName != remote.FriendlyName ||
		local.UseCase != remote.UseCase ||
		string(local.RegistrationStatus) != campaignStatus ||
		local.CampaignUseCase != campaignUseCase {
		return serviceBadData
	}
	return serviceGoodData
}

// expectedServiceSID finds the local service for a deployment channel. Ties
// (which would be an operator mistake) resolve to the smallest SID so the
// result stays deterministic.
func expectedServiceSID(services []domain.MessagingService, channel string) string {
	best := ""
	for _, s := range services {
		if s.Channel != channel {
			continue
		}
		if best == "" || s.SID < best {
			best = s.SID
		}
	}
	return best
}

func containsSID(sids []string, sid string) bool {
	for _, s := range sids {
		if s == sid {
			return true
		}
	}
	return false
}
