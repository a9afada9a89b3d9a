package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/enrollment/core/enrollment"
)

type enrollmentApi struct {
	svc enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, svc enrollment.Service) {
	api := enrollmentApi{svc: svc}

	eg := g.Group("/enrollments")
	eg.POST("", api.create)
	eg.GET("/:id", api.retrieve)
	eg.POST("/:id/transfer", api.transfer)
	eg.POST("/:id/withdraw", api.withdraw)
}

// Handlers

func (api *enrollmentApi) create(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := bindJSON(ctx, &data, "enrollment"); err != nil {
		return err
	}
	detail, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, detail)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *enrollmentApi) transfer(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data enrollment.Transfer
	if err = bindJSON(ctx, &data, "transfer"); err != nil {
		return err
	}
	asgmt, err := api.svc.Transfer(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asgmt)
}

func (api *enrollmentApi) withdraw(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	asgmt, err := api.svc.Withdraw(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asgmt)
}
