package transport

import (
	net_http "net/http"
	"net/url"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

var (
	HTTPPublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return http.NewPublisher(config, logger)
	}
)

// httpPublisher posts each outcome record as JSON to NotifyURL/<topic>. The
// message metadata travels in watermill's metadata header and the function is
// identified by the User-Agent.
func httpPublisher(conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	base := conf.NotifyURL
	agent := clientName(conf)
	return HTTPPublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*net_http.Request, error) {
				target, err := url.JoinPath(base, topic)
				if err != nil {
					return nil, err
				}
				req, err := http.DefaultMarshalMessageFunc(target, msg)
				if err != nil {
					return nil, err
				}
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("User-Agent", agent)
				return req, nil
			},
		},
		logger,
	)
}
