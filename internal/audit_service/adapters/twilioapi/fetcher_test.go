package twilioapi

import (
	"testing"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	messaging "github.com/twilio/twilio-go/rest/messaging/v1"

	"github.com/stretchr/testify/assert"

	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestNumbersFromAPI(t *testing.T) {
	records := []openapi.ApiV2010IncomingPhoneNumber{
		{PhoneNumber: strPtr("+13015550001")},
		{PhoneNumber: nil},
		{PhoneNumber: strPtr("+13015550002")},
	}

	numbers := numbersFromAPI(records)

	assert.Equal(t, []domain.RemoteNumber{
		{Number: "+13015550001"},
		{Number: "+13015550002"},
	}, numbers, "records without a phone number are skipped")
}

func TestNumbersFromAPIEmpty(t *testing.T) {
	assert.Empty(t, numbersFromAPI(nil))
}

func TestServiceFromAPI(t *testing.T) {
	service := messaging.MessagingV1Service{
		Sid:                     strPtr("MG00000000000000000000000000000001"),
		FriendlyName:            strPtr("Relay Numbers Prod"),
		Usecase:                 strPtr("notifications"),
		UsAppToPersonRegistered: boolPtr(true),
	}
	members := []messaging.MessagingV1PhoneNumber{
		{PhoneNumber: strPtr("+13015550001")},
		{PhoneNumber: nil},
		{PhoneNumber: strPtr("+13015550002")},
	}
	campaigns := []messaging.MessagingV1UsAppToPerson{
		{CampaignStatus: strPtr("VERIFIED"), UsAppToPersonUsecase: strPtr("PROXY")},
	}

	got := serviceFromAPI(service, members, campaigns)

	assert.Equal(t, domain.RemoteService{
		SID:           "MG00000000000000000000000000000001",
		FriendlyName:  "Relay Numbers Prod",
		UseCase:       "notifications",
		U2PRegistered: true,
		Members:       []string{"+13015550001", "+13015550002"},
		Campaigns:     []domain.RemoteCampaign{{Status: "VERIFIED", UseCase: "PROXY"}},
	}, got)
}

func TestServiceFromAPISparseRecord(t *testing.T) {
	// The generated API types are all pointers; a sparse record must not
	// panic and maps to zero values.
	got := serviceFromAPI(messaging.MessagingV1Service{Sid: strPtr("MG0")}, nil, nil)

	assert.Equal(t, "MG0", got.SID)
	assert.Empty(t, got.FriendlyName)
	assert.False(t, got.U2PRegistered)
	assert.Empty(t, got.Members)
	assert.Empty(t, got.Campaigns)
}
