package routes

import (
	"time"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/controllers"
	"github.com/BerniceZTT/smartcrm/middleware"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
)

// NewEngine 组装服务、控制器和中间件
func NewEngine(cfg *config.Config, db repository.Database) *gin.Engine {
	tokens := utils.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)

	activity := service.NewActivityService(db)
	contacts := service.NewContactService(db, activity, cfg.Import.DefaultStatus)
	auth := service.NewAuthService(db, tokens)

	ctl := &Controllers{
		Auth:      controllers.NewAuthController(auth),
		Contacts:  controllers.NewContactController(contacts, service.NewImportService(db, activity, cfg.Import)),
		Notes:     controllers.NewNoteController(service.NewNoteService(db, contacts, activity)),
		FollowUps: controllers.NewFollowUpController(service.NewFollowUpService(db, contacts, activity)),
		Meetings:  controllers.NewMeetingController(service.NewMeetingService(db, contacts, activity)),
		Demos:     controllers.NewDemoController(service.NewDemoService(db, contacts, activity)),
		Activity:  controllers.NewActivityLogController(activity),
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	// 应用中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORS.Origins))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(middleware.ErrorHandler())

	RegisterRoutes(router, ctl, middleware.AuthMiddleware(auth), cfg.Metrics.Enabled)
	return router
}
