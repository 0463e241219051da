package notifications

import "github.com/mavericks/crisis-monitor/internal/models"

// NotificationInterface defines the contract for alert notification delivery
type NotificationInterface interface {
	NotifyAlert(alert models.Alert) error
}
