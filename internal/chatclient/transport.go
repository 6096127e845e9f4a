package chatclient

import (
	"context"

	"github.com/gorilla/websocket"
)

// gorillaDial builds the default DialFunc over gorilla's dialer.
func gorillaDial(url string) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}
