package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/enrollment/core/school"
)

type schoolApi struct {
	svc school.Service
}

func registerSchoolAPI(g *echo.Group, svc school.Service) {
	api := schoolApi{svc: svc}

	gg := g.Group("/grades")
	gg.GET("", api.queryGrades)
	gg.GET("/:id", api.retrieveGrade)
	gg.GET("/:id/classrooms", api.availableClassrooms)
}

// Handlers

func (api *schoolApi) queryGrades(ctx echo.Context) error {
	grades, err := api.svc.QueryGrades(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *schoolApi) retrieveGrade(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	grade, err := api.svc.GetGrade(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api *schoolApi) availableClassrooms(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	avail, err := api.svc.ListAvailableClassrooms(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, avail)
}
