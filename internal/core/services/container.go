package services

import "time"

// Options configures the services built by NewContainer. Zero values fall
// back to the package defaults.
type Options struct {
	JWTSecret        string
	RefreshSecret    string
	TokenMinutes     int
	RefreshDays      int
	LoanDays         int
	RenewalMax       int
	RenewalDays      int
	NotifyWorkers    int
	NotifyQueueSize  int
	NotifyWebhookURL string
	RefreshSpec      string
	ReminderSpec     string
	CleanupSpec      string
	Now              Clock
}

// Container holds every core service wired over one store
type Container struct {
	Auth          *AuthService
	Users         *UserService
	Catalog       *CatalogService
	Inventory     *InventoryService
	Lending       *LendingService
	Renewals      *RenewalService
	Events        *EventService
	Notifications *NotificationService
	Cron          *CronService
}

// NewContainer builds the services. The notification workers start
// immediately; call Close when done. The cron scheduler is not started.
func NewContainer(store Store, opts Options) *Container {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	notifications := NewNotificationService(store, opts.NotifyWebhookURL, opts.NotifyWorkers, opts.NotifyQueueSize, now)
	lending := NewLendingService(store, store, now, opts.LoanDays)
	auth := NewAuthService(store, store, now, opts.JWTSecret, opts.RefreshSecret, opts.TokenMinutes, opts.RefreshDays)

	return &Container{
		Auth:          auth,
		Users:         NewUserService(store, now),
		Catalog:       NewCatalogService(store, store, now),
		Inventory:     NewInventoryService(store, store),
		Lending:       lending,
		Renewals:      NewRenewalService(store, store, notifications, now, opts.RenewalMax, opts.RenewalDays),
		Events:        NewEventService(store, store, notifications, now),
		Notifications: notifications,
		Cron:          NewCronService(lending, auth, store, notifications, now, opts.RefreshSpec, opts.ReminderSpec, opts.CleanupSpec),
	}
}

// Close stops the background workers
func (c *Container) Close() {
	c.Notifications.Close()
}
