package websocket

import "time"

// AllChannel receives every message broadcast on the hub
const AllChannel = "all"

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second

	maxMessageSize = 512
	sendBuffer     = 256
)
