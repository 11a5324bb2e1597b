package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/flowboardhq/flowboard/internal/api/v1"
	"github.com/flowboardhq/flowboard/internal/auth"
	"github.com/flowboardhq/flowboard/internal/notify"
	"github.com/flowboardhq/flowboard/internal/realtime"
	"github.com/flowboardhq/flowboard/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, gateway *realtime.Gateway) {
	notifier := notify.New(store.Notifications())

	v1.RegisterProjectRoutes(api, store, gateway)
	v1.RegisterColumnRoutes(api, store)
	v1.RegisterTaskRoutes(api, store, gateway, notifier)
	v1.RegisterCommentRoutes(api, store, gateway, notifier)
	v1.RegisterTimeEntryRoutes(api, store)
	v1.RegisterNotificationRoutes(api, store)
}
