package restyutil

import (
	"fmt"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives one rendered exchange per request.
type InstrumentOutput interface {
	Write(id string, contents string)
}

// InstrumentClient dumps every exchange the client makes to output, a nil
// output makes this a no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(&idcounter, 1)
		output.Write(fmt.Sprintf("%04d.txt", id), formatHttpMessage(res))
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		id := atomic.AddUint64(&idcounter, 1)
		output.Write(fmt.Sprintf("%04d.err.txt", id), formatHttpRequest(req)+"\n\n---- ERROR ----\n\n"+err.Error())
	})
}
