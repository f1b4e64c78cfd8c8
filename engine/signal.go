package engine

import "github.com/sirupsen/logrus"

// Signal is the closed set of lifecycle events the driver emits,
// mirroring ucoap_out_signal exactly. A host uses these to drive LEDs,
// counters, or its own debug log independent of this package's own
// structured logging.
type Signal uint8

const (
	SignalRoutinePacketWillStart Signal = iota
	SignalRoutinePacketDidFinish
	SignalTxRetrPacket
	SignalTxAckPacket
	SignalAckDidReceive
	SignalNrstDidReceive
	SignalWrongPacketDidReceive
	SignalResponseByteDidReceive
	SignalResponseTooLongError
	SignalResponseDidReceive
)

func (s Signal) String() string {
	switch s {
	case SignalRoutinePacketWillStart:
		return "RoutinePacketWillStart"
	case SignalRoutinePacketDidFinish:
		return "RoutinePacketDidFinish"
	case SignalTxRetrPacket:
		return "TxRetrPacket"
	case SignalTxAckPacket:
		return "TxAckPacket"
	case SignalAckDidReceive:
		return "AckDidReceive"
	case SignalNrstDidReceive:
		return "NrstDidReceive"
	case SignalWrongPacketDidReceive:
		return "WrongPacketDidReceive"
	case SignalResponseByteDidReceive:
		return "ResponseByteDidReceive"
	case SignalResponseTooLongError:
		return "ResponseTooLongError"
	case SignalResponseDidReceive:
		return "ResponseDidReceive"
	default:
		return "Signal(unknown)"
	}
}

// SignalSink receives every Signal the driver emits, along with whatever
// structured fields are relevant to it. Only RoutinePacketWillStart
// carries fields ("code", plus "type" for UDP); every other signal is
// emitted with a nil map.
type SignalSink interface {
	Signal(s Signal, fields map[string]interface{})
}

// LogrusSink is a SignalSink that logs every signal as a structured
// debug entry, in the style of transport_uart.go's logMsg helper.
// NewHandle does not install it; assign it to Handle.Signals to use it.
type LogrusSink struct {
	Logger *logrus.Logger
}

func (l LogrusSink) Signal(s Signal, fields map[string]interface{}) {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(fields).Debug(s.String())
}

// NopSink discards every signal. Useful for tests that don't want log
// noise from a Handle's normal operation.
type NopSink struct{}

func (NopSink) Signal(Signal, map[string]interface{}) {}
