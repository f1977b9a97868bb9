package mappers

import (
	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/persistence/models"
)

// CredentialMapper converts between credential entities and models
type CredentialMapper interface {
	ToDomain(model *models.CredentialModel) *accesscontrol.Credential
	ToModel(entity *accesscontrol.Credential) *models.CredentialModel
}

type CredentialMapperImpl struct{}

func NewCredentialMapper() CredentialMapper {
	return &CredentialMapperImpl{}
}

func (m *CredentialMapperImpl) ToDomain(model *models.CredentialModel) *accesscontrol.Credential {
	if model == nil {
		return nil
	}
	return accesscontrol.ReconstructCredential(
		model.ID,
		model.SID,
		model.BranchID,
		model.APIBaseURL,
		model.AppKey,
		model.AppSecret,
		model.WebhookSecret,
		model.IsActive,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *CredentialMapperImpl) ToModel(entity *accesscontrol.Credential) *models.CredentialModel {
	if entity == nil {
		return nil
	}
	return &models.CredentialModel{
		ID:            entity.ID(),
		SID:           entity.SID(),
		BranchID:      entity.BranchID(),
		APIBaseURL:    entity.APIBaseURL(),
		AppKey:        entity.AppKey(),
		AppSecret:     entity.AppSecret(),
		WebhookSecret: entity.WebhookSecret(),
		IsActive:      entity.IsActive(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
}
