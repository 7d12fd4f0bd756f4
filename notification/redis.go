package notification

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/jibbril/setupbot/setup"
)

const DefaultRedisChannel = "setupbot:setups"

// Redis publishes every setup as a JSON setup.Event on a pub/sub channel.
type Redis struct {
	client  *goredis.Client
	channel string
	timeout time.Duration
}

type RedisParams struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func NewRedis(ctx context.Context, params RedisParams) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     params.Addr,
		Password: params.Password,
		DB:       params.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return newRedis(client, params.Channel), nil
}

func newRedis(client *goredis.Client, channel string) *Redis {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &Redis{client: client, channel: channel, timeout: 5 * time.Second}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Notify(text string) {
	r.publish(r.channel+":messages", text)
}

func (r *Redis) OnSetup(s setup.Setup) {
	payload, err := json.Marshal(s.Event())
	if err != nil {
		log.WithError(err).Error("notification/redis: encode setup")
		return
	}
	r.publish(r.channel, payload)
}

func (r *Redis) OnError(err error) {
	r.publish(r.channel+":errors", err.Error())
}

func (r *Redis) publish(channel string, payload interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.WithError(err).WithField("channel", channel).Error("notification/redis: publish")
	}
}
