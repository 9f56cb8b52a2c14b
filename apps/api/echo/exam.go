package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Ismat-Samadov/educy/core/exam"
	"github.com/Ismat-Samadov/educy/core/user"
)

type (
	examApi struct {
		svc     *exam.Service
		userSvc *user.Service
	}

	// attemptResponse overrides the stored time_remaining with the value
	// computed from the wall clock at response time.
	attemptResponse struct {
		exam.Attempt
		TimeRemaining int `json:"time_remaining"`
	}
)

func registerExamAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *exam.Service, userSvc *user.Service) {
	api := &examApi{svc: svc, userSvc: userSvc}

	eg := g.Group("/exams", jwt)
	eg.POST("", api.examCreate, staffMiddleware())
	eg.GET("/:id", api.examRetrieve)
	eg.POST("/:id/start", api.examStart)
	eg.PATCH("/:id/submit", api.examSubmit)
	eg.GET("/:id/attempt", api.examRetrieveAttempt)
}

func (api *examApi) examCreate(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	data := new(exam.NewExam)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	exm, err := api.svc.Create(ctx.Request().Context(), actor, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, exm)
}

func (api *examApi) examRetrieve(ctx echo.Context) error {
	exm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, exm)
}

func (api *examApi) examStart(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.Start(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *examApi) examSubmit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	data := new(exam.SubmitAttempt)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	att, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), claims.Subject, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *examApi) examRetrieveAttempt(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	exm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	att, err := api.svc.GetAttempt(ctx.Request().Context(), exm.ID, claims.Subject)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, attemptResponse{
		Attempt:       att,
		TimeRemaining: api.svc.RemainingSeconds(exm, att),
	})
}
