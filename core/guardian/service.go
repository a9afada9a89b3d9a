package guardian

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/enrollment/core"
)

const Entity = "guardian"

type (
	Repository interface {
		GetGuardianByID(ctx context.Context, id int64, exec ...core.DBExecutor) (Guardian, error)
		GetGuardianByDocument(ctx context.Context, docType, docNumber string, exec ...core.DBExecutor) (Guardian, error)
		// CreateGuardian inserts a Guardian unless one with the same document already exists,
		// in which case the existing Guardian is returned.
		CreateGuardian(ctx context.Context, g Guardian, exec ...core.DBExecutor) (Guardian, error)
	}

	Service interface {
		GetByID(ctx context.Context, id int64) (Guardian, error)
		FindByDocument(ctx context.Context, docType, docNumber string) (Guardian, error)
		Create(ctx context.Context, ng NewGuardian) (Guardian, error)
	}

	service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) Service {
	return &service{repo: repo, validate: validate, translator: translator}
}

func (svc *service) GetByID(ctx context.Context, id int64) (Guardian, error) {
	return svc.repo.GetGuardianByID(ctx, id)
}

func (svc *service) FindByDocument(ctx context.Context, docType, docNumber string) (Guardian, error) {
	return svc.repo.GetGuardianByDocument(ctx, core.CleanString(docType, true /* lower */), core.CleanString(docNumber))
}

func (svc *service) Create(ctx context.Context, ng NewGuardian) (Guardian, error) {
	ng.Clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, ng); err != nil {
		return Guardian{}, err
	}
	return svc.repo.CreateGuardian(ctx, ng.Guardian(time.Now().UTC()))
}
