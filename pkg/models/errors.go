package models

// ErrorCategory is the user-facing classification of a sync failure
type ErrorCategory string

const (
	// CategoryNoActiveInterfaces means no network interface is up with IPv4
	CategoryNoActiveInterfaces ErrorCategory = "no_active_interfaces"
	// CategoryNoRoutableInterface means no active interface has a usable route
	CategoryNoRoutableInterface ErrorCategory = "no_routable_interface"
	// CategoryNameResolution means the device address could not be resolved
	CategoryNameResolution ErrorCategory = "name_resolution"
	// CategoryConnect means the TCP/HTTP connection could not be established
	CategoryConnect ErrorCategory = "connect"
	// CategoryConnectionClosed means the device dropped the connection mid-transfer
	CategoryConnectionClosed ErrorCategory = "connection_closed"
	// CategoryTimeout means a transfer exceeded its deadline
	CategoryTimeout ErrorCategory = "timeout"
	// CategoryOther is the catch-all for transport failures
	CategoryOther ErrorCategory = "other"
	// CategorySampleProject means the project is a sample and cannot be synced
	CategorySampleProject ErrorCategory = "sample_project"
)

var categoryMessages = map[ErrorCategory]string{
	CategoryNoActiveInterfaces: "No active network connection was found on this computer. " +
		"Connect to the same WiFi network as the device and try again.",
	CategoryNoRoutableInterface: "This computer is connected to a network, but no address could be " +
		"found that the device can use to reach it. Check the network settings and try again.",
	CategoryNameResolution: "The address you gave for the device could not be understood. " +
		"Please check it and try again.",
	CategoryConnect: "Could not connect to the device. Check to be sure the devices are on the same " +
		"WiFi network and that there is not a firewall blocking things.",
	CategoryConnectionClosed: "The connection to the device closed unexpectedly. Please don't use the " +
		"device for other things during the transfer. If the device is going to sleep, you can change " +
		"its settings to prevent this.",
	CategoryTimeout: "The transfer took too long and timed out.",
	CategoryOther: "Something went wrong with the transfer. Please try again, or report the problem " +
		"if it keeps happening.",
	CategorySampleProject: "Device synchronization does not work with the sample project. " +
		"Please use a real project.",
}

// Message returns the user-facing text for the category
func (c ErrorCategory) Message() string {
	if msg, ok := categoryMessages[c]; ok {
		return msg
	}
	return categoryMessages[CategoryOther]
}

// Retryable reports whether the category goes through the retry decision
func (c ErrorCategory) Retryable() bool {
	return c == CategoryTimeout
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
