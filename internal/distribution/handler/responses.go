package handler

import (
	"time"

	"cohortd/internal/distribution"
	"cohortd/internal/participant"
)

// participantPayload is the wire shape of a participant snapshot. Kept apart
// from the domain model so the JSON contract can evolve independently.
type participantPayload struct {
	ParticipantID      string `json:"participantId"`
	NHSNumber          string `json:"nhsNumber"`
	ScreeningServiceID string `json:"screeningServiceId"`

	NamePrefix         string `json:"namePrefix,omitempty"`
	GivenName          string `json:"givenName,omitempty"`
	OtherGivenNames    string `json:"otherGivenNames,omitempty"`
	FamilyName         string `json:"familyName,omitempty"`
	PreviousFamilyName string `json:"previousFamilyName,omitempty"`
	DateOfBirth        string `json:"dateOfBirth,omitempty"`
	Gender             string `json:"gender,omitempty"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	AddressLine3 string `json:"addressLine3,omitempty"`
	AddressLine4 string `json:"addressLine4,omitempty"`
	AddressLine5 string `json:"addressLine5,omitempty"`
	Postcode     string `json:"postcode,omitempty"`

	TelephoneNumber     string `json:"telephoneNumber,omitempty"`
	MobileNumber        string `json:"mobileNumber,omitempty"`
	EmailAddress        string `json:"emailAddress,omitempty"`
	PreferredLanguage   string `json:"preferredLanguage,omitempty"`
	InterpreterRequired bool   `json:"interpreterRequired,omitempty"`

	PrimaryCareProvider              string `json:"primaryCareProvider,omitempty"`
	PrimaryCareProviderEffectiveFrom string `json:"primaryCareProviderEffectiveFrom,omitempty"`
	ReasonForRemoval                 string `json:"reasonForRemoval,omitempty"`
	ReasonForRemovalEffectiveFrom    string `json:"reasonForRemovalEffectiveFrom,omitempty"`

	ServiceProvider       string `json:"serviceProvider,omitempty"`
	ExceptionFlag         bool   `json:"exceptionFlag,omitempty"`
	SupersededByNHSNumber string `json:"supersededByNhsNumber,omitempty"`
}

func (p participantPayload) toModel() participant.Participant {
	model := participant.Participant{
		ParticipantID:      p.ParticipantID,
		NHSNumber:          p.NHSNumber,
		ScreeningServiceID: p.ScreeningServiceID,

		NamePrefix:         p.NamePrefix,
		GivenName:          p.GivenName,
		OtherGivenNames:    p.OtherGivenNames,
		FamilyName:         p.FamilyName,
		PreviousFamilyName: p.PreviousFamilyName,
		DateOfBirth:        p.DateOfBirth,
		Gender:             p.Gender,

		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		AddressLine3: p.AddressLine3,
		AddressLine4: p.AddressLine4,
		AddressLine5: p.AddressLine5,
		Postcode:     p.Postcode,

		TelephoneNumber:     p.TelephoneNumber,
		MobileNumber:        p.MobileNumber,
		EmailAddress:        p.EmailAddress,
		PreferredLanguage:   p.PreferredLanguage,
		InterpreterRequired: p.InterpreterRequired,

		PrimaryCareProvider:              p.PrimaryCareProvider,
		PrimaryCareProviderEffectiveFrom: p.PrimaryCareProviderEffectiveFrom,
		ReasonForRemoval:                 p.ReasonForRemoval,
		ReasonForRemovalEffectiveFrom:    p.ReasonForRemovalEffectiveFrom,

		ServiceProvider: p.ServiceProvider,
		ExceptionFlag:   p.ExceptionFlag,
	}
	if p.SupersededByNHSNumber != "" {
		superseded := p.SupersededByNHSNumber
		model.SupersededByNHSNumber = &superseded
	}
	return model
}

func fromModel(p participant.Participant) participantPayload {
	payload := participantPayload{
		ParticipantID:      p.ParticipantID,
		NHSNumber:          p.NHSNumber,
		ScreeningServiceID: p.ScreeningServiceID,

		NamePrefix:         p.NamePrefix,
		GivenName:          p.GivenName,
		OtherGivenNames:    p.OtherGivenNames,
		FamilyName:         p.FamilyName,
		PreviousFamilyName: p.PreviousFamilyName,
		DateOfBirth:        p.DateOfBirth,
		Gender:             p.Gender,

		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		AddressLine3: p.AddressLine3,
		AddressLine4: p.AddressLine4,
		AddressLine5: p.AddressLine5,
		Postcode:     p.Postcode,

		TelephoneNumber:     p.TelephoneNumber,
		MobileNumber:        p.MobileNumber,
		EmailAddress:        p.EmailAddress,
		PreferredLanguage:   p.PreferredLanguage,
		InterpreterRequired: p.InterpreterRequired,

		PrimaryCareProvider:              p.PrimaryCareProvider,
		PrimaryCareProviderEffectiveFrom: p.PrimaryCareProviderEffectiveFrom,
		ReasonForRemoval:                 p.ReasonForRemoval,
		ReasonForRemovalEffectiveFrom:    p.ReasonForRemovalEffectiveFrom,

		ServiceProvider: p.ServiceProvider,
		ExceptionFlag:   p.ExceptionFlag,
	}
	if p.SupersededByNHSNumber != nil {
		payload.SupersededByNHSNumber = *p.SupersededByNHSNumber
	}
	return payload
}

// batchResponse is the extraction response envelope.
type batchResponse struct {
	RequestID    string               `json:"requestId"`
	Replayed     bool                 `json:"replayed"`
	ServedAt     time.Time            `json:"servedAt"`
	Participants []participantPayload `json:"participants"`
}

func toBatchResponse(result distribution.ExtractResult) batchResponse {
	payloads := make([]participantPayload, 0, len(result.Participants))
	for _, p := range result.Participants {
		payloads = append(payloads, fromModel(p))
	}
	return batchResponse{
		RequestID:    result.RequestID.String(),
		Replayed:     result.Outcome == distribution.OutcomeReplay,
		ServedAt:     time.Now().UTC(),
		Participants: payloads,
	}
}
