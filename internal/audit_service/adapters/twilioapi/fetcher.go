package twilioapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	messaging "github.com/twilio/twilio-go/rest/messaging/v1"

	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

// Fetcher reads the provider-side inventory through the Twilio REST API and
// flattens it into comparable snapshots: service memberships and A2P
// campaign state are resolved per service at fetch time, so the engine never
// needs a secondary fetch.
//
// twilio-go does not thread contexts through its generated API; timeout
// policy lives on the underlying HTTP client instead, and any transport,
// auth or rate-limit failure surfaces as a FetchError that aborts the whole
// reconciliation run.
type Fetcher struct {
	client *twilio.RestClient
	logger *slog.Logger
}

func NewFetcher(accountSID, authToken string, logger *slog.Logger) *Fetcher {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	client.SetTimeout(30 * time.Second)
	return &Fetcher{
		client: client,
		logger: logger.With("component", "twilio_fetcher"),
	}
}

// ListNumbers returns every incoming phone number visible to the account.
func (f *Fetcher) ListNumbers(ctx context.Context) ([]domain.RemoteNumber, error) {
	records, err := f.client.Api.ListIncomingPhoneNumber(&openapi.ListIncomingPhoneNumberParams{})
	if err != nil {
		return nil, domain.NewFetchError("incoming phone numbers", err)
	}
	numbers := numbersFromAPI(records)
	f.logger.DebugContext(ctx, "Fetched incoming phone numbers", "count", len(numbers))
	return numbers, nil
}

// ListServices returns every messaging service with its member numbers and
// A2P campaigns attached.
func (f *Fetcher) ListServices(ctx context.Context) ([]domain.RemoteService, error) {
	records, err := f.client.MessagingV1.ListService(&messaging.ListServiceParams{})
	if err != nil {
		return nil, domain.NewFetchError("messaging services", err)
	}
	services := make([]domain.RemoteService, 0, len(records))
	for _, r := range records {
		if r.Sid == nil {
			continue
		}
		members, err := f.client.MessagingV1.ListPhoneNumber(*r.Sid, &messaging.ListPhoneNumberParams{})
		if err != nil {
			return nil, domain.NewFetchError("service phone numbers", err)
		}
		campaigns, err := f.client.MessagingV1.ListUsAppToPerson(*r.Sid, &messaging.ListUsAppToPersonParams{})
		if err != nil {
			return nil, domain.NewFetchError("service A2P campaigns", err)
		}
		services = append(services, serviceFromAPI(r, members, campaigns))
	}
	f.logger.DebugContext(ctx, "Fetched messaging services", "count", len(services))
	return services, nil
}

func numbersFromAPI(records []openapi.ApiV2010IncomingPhoneNumber) []domain.RemoteNumber {
	numbers := make([]domain.RemoteNumber, 0, len(records))
	for _, r := range records {
		if r.PhoneNumber == nil {
			continue
		}
		numbers = append(numbers, domain.RemoteNumber{Number: *r.PhoneNumber})
	}
	return numbers
}

func serviceFromAPI(
	service messaging.MessagingV1Service,
	members []messaging.MessagingV1PhoneNumber,
	campaigns []messaging.MessagingV1UsAppToPerson,
) domain.RemoteService {
	out := domain.RemoteService{
		SID:          deref(service.Sid),
		FriendlyName: deref(service.FriendlyName),
		UseCase:      deref(service.Usecase),
	}
	if service.UsAppToPersonRegistered != nil {
		out.U2PRegistered = *service.UsAppToPersonRegistered
	}
	for _, m := range members {
		if m.PhoneNumber == nil {
			continue
		}
		out.Members = append(out.Members, *m.PhoneNumber)
	}
	for _, c := range campaigns {
		out.Campaigns = append(out.Campaigns, domain.RemoteCampaign{
			Status:  deref(c.CampaignStatus),
			UseCase: deref(c.UsAppToPersonUsecase),
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
