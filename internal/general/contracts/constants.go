package contracts

// Exchanges
const (
	ExchangeLocationFanout = "tracking_location_fanout"
	ExchangeNotifyTopic    = "notify_topic"
)

// Queues
const (
	QueueSMSJobs      = "sms_jobs"
	QueueLocationFeed = "location_updates_feed"
)

// Routing patterns
const (
	RouteNotifySMSPrefix = "notify.sms." // {booking_ref}
)
