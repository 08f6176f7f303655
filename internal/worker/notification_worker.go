package worker

import (
	"github.com/ticketd/ticketd/internal/service"
)

// StartNotificationWorker registers notification handlers on the event
// queue.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
