package model

// Order statuses. Any status may follow any other; admins set them freely.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Courier statuses, tracked next to the order status.
const (
	CourierAwaitingPickup = "awaiting_pickup"
	CourierInTransit      = "in_transit"
	CourierDelivered      = "delivered"
	CourierReturned       = "returned"
)

var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

var CourierStatuses = []string{CourierAwaitingPickup, CourierInTransit, CourierDelivered, CourierReturned}

// StatusTones colours status badges in tables.
var StatusTones = map[string]string{
	OrderPending:          "warning",
	OrderProcessing:       "info",
	OrderShipped:          "info",
	OrderDelivered:        "success",
	OrderCancelled:        "danger",
	CourierAwaitingPickup: "muted",
	CourierInTransit:      "info",
	CourierReturned:       "danger",
	"active":              "success",
	"draft":               "muted",
	"archived":            "danger",
	"inactive":            "muted",
}
