package credauth

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/credauth/internal/audit"
)

// Audit event kinds.
const (
	AuditRegister   = audit.KindRegister
	AuditLogin      = audit.KindLogin
	AuditLogout     = audit.KindLogout
	AuditTOTPSetup  = audit.KindTOTPSetup
	AuditTOTPVerify = audit.KindTOTPVerify
)

type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	FileSink       = audit.FileSink
	SlogSink       = audit.SlogSink
	MultiSink      = audit.MultiSink
)

// NewChannelSink returns a sink that buffers events in a channel of the given size.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// OpenFileSink appends JSON lines to path, creating it with mode 0600.
func OpenFileSink(path string) (*FileSink, error) {
	return audit.OpenFileSink(path)
}

// NewSlogSink logs events through logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return audit.NewSlogSink(logger)
}
