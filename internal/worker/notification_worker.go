package worker

import (
	"github.com/spec-kit/shift-scheduler/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to account
// and department events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
