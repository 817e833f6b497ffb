package actors

import (
	"fmt"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// Message tags.
const (
	TagIncrementRequest = "increment_request"
	TagReportRequest    = "report_request"
	TagReplyCount       = "reply_count"
)

// IncrementRequest asks a counter to add N.
type IncrementRequest struct {
	N int64
}

func (IncrementRequest) Tag() string { return TagIncrementRequest }

func (m IncrementRequest) Canonical() ir.IRObject {
	return ir.IRObject{"n": ir.IRInt(m.N)}
}

func (m IncrementRequest) String() string {
	return fmt.Sprintf("IncrementRequest(%d)", m.N)
}

// ReportRequest asks a counter to reply with its count.
type ReportRequest struct{}

func (ReportRequest) Tag() string { return TagReportRequest }

func (ReportRequest) Canonical() ir.IRObject { return ir.IRObject{} }

func (ReportRequest) String() string { return "ReportRequest" }

// ReplyCount carries a counter's count back to the requester.
type ReplyCount struct {
	N int64
}

func (ReplyCount) Tag() string { return TagReplyCount }

func (m ReplyCount) Canonical() ir.IRObject {
	return ir.IRObject{"n": ir.IRInt(m.N)}
}

func (m ReplyCount) String() string {
	return fmt.Sprintf("ReplyCount(%d)", m.N)
}

func decodeN(fields ir.IRObject) (int64, error) {
	n, ok := fields.Int("n")
	if !ok {
		return 0, fmt.Errorf("missing integer field n")
	}
	return n, nil
}

func registerMessages(c *actor.Codec) {
	c.RegisterMessage(TagIncrementRequest, func(f ir.IRObject) (actor.Message, error) {
		n, err := decodeN(f)
		if err != nil {
			return nil, err
		}
		return IncrementRequest{N: n}, nil
	})
	c.RegisterMessage(TagReportRequest, func(ir.IRObject) (actor.Message, error) {
		return ReportRequest{}, nil
	})
	c.RegisterMessage(TagReplyCount, func(f ir.IRObject) (actor.Message, error) {
		n, err := decodeN(f)
		if err != nil {
			return nil, err
		}
		return ReplyCount{N: n}, nil
	})
}
