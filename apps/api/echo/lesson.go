package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Ismat-Samadov/educy/core/schedule"
	"github.com/Ismat-Samadov/educy/core/user"
)

type scheduleApi struct {
	svc     *schedule.Service
	userSvc *user.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *schedule.Service, userSvc *user.Service) {
	api := &scheduleApi{svc: svc, userSvc: userSvc}

	rg := g.Group("/rooms", jwt)
	rg.POST("", api.roomCreate, adminMiddleware())
	rg.GET("", api.roomQuery)
	rg.GET("/:id", api.roomRetrieve)

	lg := g.Group("/lessons", jwt)
	lg.POST("", api.lessonCreate, staffMiddleware())
	lg.GET("/:id", api.lessonRetrieve)
	lg.PATCH("/:id", api.lessonUpdate, staffMiddleware())
	lg.DELETE("/:id", api.lessonDelete, staffMiddleware())
}

func (api *scheduleApi) roomCreate(ctx echo.Context) error {
	data := new(schedule.NewRoom)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	room, err := api.svc.CreateRoom(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, room)
}

func (api *scheduleApi) roomQuery(ctx echo.Context) error {
	rooms, err := api.svc.QueryAllRooms(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *scheduleApi) roomRetrieve(ctx echo.Context) error {
	room, err := api.svc.GetRoomByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, room)
}

func (api *scheduleApi) lessonCreate(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	data := new(schedule.NewLesson)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	lsn, err := api.svc.CreateLesson(ctx.Request().Context(), actor, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *scheduleApi) lessonRetrieve(ctx echo.Context) error {
	lsn, err := api.svc.GetLessonByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *scheduleApi) lessonUpdate(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	data := new(schedule.UpdateLesson)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	lsn, err := api.svc.UpdateLesson(ctx.Request().Context(), actor, ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *scheduleApi) lessonDelete(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteLesson(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
