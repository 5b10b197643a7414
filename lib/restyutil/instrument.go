package restyutil

import (
	"fmt"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives a rendered dump of a single request/response exchange.
type InstrumentOutput interface {
	Write(id string, contents string)
}

// InstrumentClient dumps every exchange made by `client` into `output`, ids are
// zero padded sequence numbers so the files sort in request order.
//
// `output` can be nil, if it is, then the function is a no-op
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	nextId := func() string {
		return fmt.Sprintf("%04d", atomic.AddUint64(&idcounter, 1))
	}

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		output.Write(nextId(), formatHttpMessage(res))
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		output.Write(nextId(), formatHttpError(req, err))
	})
}
