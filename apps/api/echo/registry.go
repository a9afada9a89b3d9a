package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/student"
)

// registryApi serves guardian & student lookups, used by the front desk before enrolling.
type registryApi struct {
	guardianSvc guardian.Service
	studentSvc  student.Service
}

func registerRegistryAPI(g *echo.Group, guardianSvc guardian.Service, studentSvc student.Service) {
	api := registryApi{guardianSvc: guardianSvc, studentSvc: studentSvc}

	g.GET("/guardians", api.findGuardian)
	g.GET("/guardians/:id", api.retrieveGuardian)
	g.GET("/students", api.findStudent)
	g.GET("/students/:id", api.retrieveStudent)
}

func requiredQueryParams(ctx echo.Context, names ...string) error {
	var flds []core.FieldError
	for _, name := range names {
		if core.CleanString(ctx.QueryParam(name)) == "" {
			flds = append(flds, core.FieldError{Field: name, Error: "this field is required"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Handlers

func (api *registryApi) findGuardian(ctx echo.Context) error {
	if err := requiredQueryParams(ctx, "document_type", "document_number"); err != nil {
		return err
	}
	g, err := api.guardianSvc.FindByDocument(ctx.Request().Context(), ctx.QueryParam("document_type"), ctx.QueryParam("document_number"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *registryApi) retrieveGuardian(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	g, err := api.guardianSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *registryApi) findStudent(ctx echo.Context) error {
	if err := requiredQueryParams(ctx, "document_number"); err != nil {
		return err
	}
	s, err := api.studentSvc.FindByDocument(ctx.Request().Context(), ctx.QueryParam("document_number"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *registryApi) retrieveStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	s, err := api.studentSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}
