package worker

import (
	"github.com/stayhub/service-desk/internal/events"
	"github.com/stayhub/service-desk/internal/service"
)

// StartNotificationWorker subscribes the notification fanout to the
// lifecycle event stream.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher) {
	if notificationService == nil || dispatcher == nil {
		return
	}
	notificationService.RegisterHandlers(dispatcher)
}
