package worker

import (
	"github.com/spec-kit/workforce-service/internal/events"
	"github.com/spec-kit/workforce-service/internal/service"
)

// StartLifecycleWorker subscribes the workload and notification handlers to
// the in-process dispatcher.
func StartLifecycleWorker(dispatcher events.Dispatcher, workload *service.WorkloadService, notifications *service.NotificationService) {
	if workload != nil {
		workload.RegisterHandlers(dispatcher)
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
}
