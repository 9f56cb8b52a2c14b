package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Ismat-Samadov/educy/core/course"
	"github.com/Ismat-Samadov/educy/core/exam"
	"github.com/Ismat-Samadov/educy/core/schedule"
)

type courseApi struct {
	svc         *course.Service
	scheduleSvc *schedule.Service
	examSvc     *exam.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, scheduleSvc *schedule.Service, examSvc *exam.Service) {
	api := &courseApi{svc: svc, scheduleSvc: scheduleSvc, examSvc: examSvc}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.courseCreate, adminMiddleware())
	cg.GET("", api.courseQuery)
	cg.GET("/:id", api.courseRetrieve)
	cg.GET("/:id/sections", api.courseQuerySections)

	sg := g.Group("/sections", jwt)
	sg.POST("", api.sectionCreate, adminMiddleware())
	sg.GET("/:id", api.sectionRetrieve)
	sg.POST("/:id/enroll", api.sectionEnroll)
	sg.POST("/:id/drop", api.sectionDrop)
	sg.GET("/:id/lessons", api.sectionQueryLessons)
	sg.GET("/:id/exams", api.sectionQueryExams)
}

func (api *courseApi) courseCreate(ctx echo.Context) error {
	data := new(course.NewCourse)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) courseQuery(ctx echo.Context) error {
	courses, err := api.svc.QueryAllCourses(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) courseRetrieve(ctx echo.Context) error {
	crs, err := api.svc.GetCourseByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) courseQuerySections(ctx echo.Context) error {
	sections, err := api.svc.QuerySectionsByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *courseApi) sectionCreate(ctx echo.Context) error {
	data := new(course.NewSection)
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding request data")
	}

	sec, err := api.svc.CreateSection(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *courseApi) sectionRetrieve(ctx echo.Context) error {
	sec, err := api.svc.GetSectionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

// sectionEnroll enrolls the authenticated student themselves; there is no
// enrolling on someone else's behalf.
func (api *courseApi) sectionEnroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStudent {
		return errHttpForbidden
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) sectionDrop(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.svc.Drop(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) sectionQueryLessons(ctx echo.Context) error {
	lessons, err := api.scheduleSvc.QueryLessonsBySection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) sectionQueryExams(ctx echo.Context) error {
	exams, err := api.examSvc.QueryBySection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, exams)
}
