//go:build !unix

package eventloop

import (
	E "github.com/iwai/evstream/common/exceptions"
)

func newPoller() (poller, error) {
	return nil, E.New("event loop not supported on this platform")
}
