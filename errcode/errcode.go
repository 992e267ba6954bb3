package errcode

// Code is a stable, wire-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable). The command channel maps these onto
// its "ERR ..." replies verbatim.
const (
	OK                Code = "ok"
	UnknownCommand    Code = "unknown command"
	UnknownSubcommand Code = "unknown subcommand"
	InvalidParams     Code = "insufficient options"
	UnknownFlag       Code = "unknown flag"
	BadID             Code = "bad id"
	BadData           Code = "invalid data"
	BadLength         Code = "data invalid length"
	NotBusOn          Code = "not in BusOn state"
	AlreadyBusOn      Code = "already in BusOn"
	AlreadyBusOff     Code = "already in BusOff"
	UnknownKey        Code = "unknown key"
	UnknownTopic      Code = "unknown topic"
	Busy              Code = "busy"
	LineTooLong       Code = "line too long"
	Storage           Code = "storage fault"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
