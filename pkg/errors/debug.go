package errors

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	GoogleStatus  int    `json:"google_status,omitempty"`
	GoogleMessage string `json:"google_message,omitempty"`
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

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		d.GoogleStatus = apiErr.Code
		d.GoogleMessage = apiErr.Message
	}

	return d
}
