package client

import "fmt"

// Kind classifies why a claim did not go through.
type Kind string

const (
	KindDeviceRestricted Kind = "device_restricted"
	KindIPRestricted     Kind = "ip_restricted"
	KindValidation       Kind = "validation_error"
	KindNetwork          Kind = "network_error"
	KindTimeout          Kind = "timeout_error"
	KindServer           Kind = "server_error"
	KindUnknown          Kind = "unknown_error"
)

var messages = map[Kind]string{
	KindDeviceRestricted: "You have already claimed materials on this device.",
	KindIPRestricted:     "Too many claims from this network. Please try again later or switch networks.",
	KindValidation:       "Invalid input. Please check and try again.",
	KindNetwork:          "Network connection failed. Please check your network and try again.",
	KindTimeout:          "The request timed out. Please try again later.",
	KindServer:           "The server is temporarily unavailable. Please try again later.",
	KindUnknown:          "Unknown error. Please try again later.",
}

// Message returns the user-facing text for kind. Unrecognized kinds get the
// generic message.
func Message(kind Kind) string {
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return messages[KindUnknown]
}

// Failure is a claim rejection or transport fault. Message is always safe to
// show to the user; Err holds the underlying cause, if any.
type Failure struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func newFailure(kind Kind, status int, err error) *Failure {
	return &Failure{Kind: kind, Message: Message(kind), Status: status, Err: err}
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
