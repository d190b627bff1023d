package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// channelBuffer lets a slow in-process subscriber fall behind by this many
// records before publishing waits on it.
const channelBuffer = 64

var (
	GoChannelFactory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
		return gochannel.NewGoChannel(cfg, logger)
	}
)

// channelPublisher keeps outcome records in the execution environment. The
// caller subscribes to the returned pub/sub itself, which is mostly useful for
// local runs and tests. Records published with no subscriber are dropped.
func channelPublisher(logger watermill.LoggerAdapter) message.Publisher {
	return GoChannelFactory(gochannel.Config{OutputChannelBuffer: channelBuffer}, logger)
}
