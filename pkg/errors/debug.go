package errors

import (
	"errors"
	"fmt"
)

// UpstreamDetailer is implemented by transport errors that carry the
// platform API response that produced them.
type UpstreamDetailer interface {
	UpstreamStatus() int
	UpstreamEndpoint() string
	UpstreamMessage() string
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus   int    `json:"upstream_status,omitempty"`
	UpstreamEndpoint string `json:"upstream_endpoint,omitempty"`
	UpstreamMessage  string `json:"upstream_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var ud UpstreamDetailer
	if errors.As(err, &ud) {
		d.UpstreamStatus = ud.UpstreamStatus()
		d.UpstreamEndpoint = ud.UpstreamEndpoint()
		d.UpstreamMessage = ud.UpstreamMessage()
	}

	return d
}
