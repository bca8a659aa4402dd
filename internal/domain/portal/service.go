package portal

import (
	"context"
	"errors"

	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/pkg/pagination"
)

var ErrNoMedicalInfo = apperr.NotFound("No medical info found")

// IdentityLookup resolves the signed-in identity for the dashboard.
type IdentityLookup interface {
	Get(ctx context.Context, id string) (*identity.Identity, error)
}

type Service struct {
	info       MedicalInfoRepository
	identities IdentityLookup
}

func NewService(info MedicalInfoRepository, identities IdentityLookup) *Service {
	return &Service{info: info, identities: identities}
}

func (s *Service) Identity(ctx context.Context, id string) (*identity.Identity, error) {
	return s.identities.Get(ctx, id)
}

func (s *Service) MyInfo(ctx context.Context, patientID string) (*MedicalInfo, error) {
	m, err := s.info.GetByPatient(ctx, patientID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrNoMedicalInfo
	}
	return m, err
}

func (s *Service) ListPatientInfo(ctx context.Context, p pagination.Params) ([]*MedicalInfo, int, error) {
	out, total, err := s.info.List(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	if out == nil {
		out = []*MedicalInfo{}
	}
	return out, total, nil
}
