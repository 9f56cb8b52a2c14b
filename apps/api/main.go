package main

import (
	"fmt"
	"log"
	"os"

	echoapi "github.com/Ismat-Samadov/educy/apps/api/echo"
	"github.com/Ismat-Samadov/educy/core"
	"github.com/Ismat-Samadov/educy/core/course"
	"github.com/Ismat-Samadov/educy/core/exam"
	"github.com/Ismat-Samadov/educy/core/schedule"
	"github.com/Ismat-Samadov/educy/core/user"
	auditsvc "github.com/Ismat-Samadov/educy/services/audit"
	emailsvc "github.com/Ismat-Samadov/educy/services/email"
	logsvc "github.com/Ismat-Samadov/educy/services/logger"
	"github.com/Ismat-Samadov/educy/storage/database"
	sqlxrepos "github.com/Ismat-Samadov/educy/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(logger, err)
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	clock := core.NewClock()
	audit := auditsvc.NewService(sqlxrepos.NewAuditRepository(db), clock, logger)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), clock, mailSvc)
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db), usrSvc, clock, audit, mailSvc)
	scheduleSvc := schedule.NewService(sqlxrepos.NewLessonRepository(db), sqlxrepos.NewRoomRepository(db), courseSvc, clock, audit)
	examSvc := exam.NewService(sqlxrepos.NewExamRepository(db), courseSvc, courseSvc, usrSvc, clock, audit, mailSvc)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:     fmt.Sprintf(":%d", core.Conf.Server.Port),
			Logger:      logger,
			UserSvc:     usrSvc,
			CourseSvc:   courseSvc,
			ScheduleSvc: scheduleSvc,
			ExamSvc:     examSvc,
		},
	)
	app.Start()
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
