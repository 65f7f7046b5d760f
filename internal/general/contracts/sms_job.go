package contracts

// SMSJobMessage asks the notification worker to deliver one text message.
// Routing key: RouteNotifySMSPrefix + booking_ref on ExchangeNotifyTopic.
// Delivery is at-least-once; the enqueuer is responsible for any
// at-most-once intent (the tracking service flips the session's sms_sent
// flag before publishing).
type SMSJobMessage struct {
	To         string `json:"to"` // E.164 or local NZ format
	Body       string `json:"body"`
	BookingRef string `json:"booking_ref,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`
	Envelope
}
