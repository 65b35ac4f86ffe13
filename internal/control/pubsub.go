// Package control implements the redis pub/sub control plane. Moderation
// tooling publishes on a small set of well-known channels and this consumer
// applies the effects to live sessions.
package control

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gobancho-project/gobancho/internal/auth"
	"github.com/gobancho-project/gobancho/internal/bancho"
	"github.com/gobancho-project/gobancho/internal/packet"
)

// Control channels. The names are fixed by the external tooling that
// publishes on them.
const (
	ChannelBan            = "peppy:ban"
	ChannelChangePassword = "peppy:change_pass"
	ChannelChangeUsername = "peppy:change_username"
	ChannelNotification   = "peppy:notification"
)

// PubSub consumes control messages from redis and applies them to the
// session registry.
type PubSub struct {
	rdb      *redis.Client
	handlers *bancho.Handlers
	verifier *auth.Verifier
	logger   zerolog.Logger
}

func NewPubSub(rdb *redis.Client, handlers *bancho.Handlers, verifier *auth.Verifier) *PubSub {
	return &PubSub{
		rdb:      rdb,
		handlers: handlers,
		verifier: verifier,
		logger:   log.With().Str("component", "control").Logger(),
	}
}

// Run subscribes to the control channels and consumes messages until the
// context is cancelled. Messages that fail to parse are logged and dropped;
// the subscription itself stays up.
func (p *PubSub) Run(ctx context.Context) error {
	sub := p.rdb.Subscribe(ctx,
		ChannelBan,
		ChannelChangePassword,
		ChannelChangeUsername,
		ChannelNotification,
	)
	defer sub.Close()

	// Force the subscribe round-trip so startup fails fast when redis is
	// unreachable.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	p.logger.Info().Msg("control plane subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("control plane stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			p.dispatch(ctx, msg)
		}
	}
}

func (p *PubSub) dispatch(ctx context.Context, msg *redis.Message) {
	var err error
	switch msg.Channel {
	case ChannelBan:
		err = p.onBan(ctx, msg.Payload)
	case ChannelChangePassword:
		err = p.onChangePassword(msg.Payload)
	case ChannelChangeUsername:
		err = p.onChangeUsername(msg.Payload)
	case ChannelNotification:
		err = p.onNotification(msg.Payload)
	default:
		// Pattern drift from the publisher side; nothing to do.
		return
	}
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("channel", msg.Channel).
			Str("payload", msg.Payload).
			Msg("control message rejected")
	}
}

// onBan re-reads the target's privileges and pushes the restriction to their
// live session, if any.
func (p *PubSub) onBan(ctx context.Context, payload string) error {
	userID, err := strconv.ParseInt(payload, 10, 32)
	if err != nil {
		return err
	}

	s := p.handlers.Registry().GetID(int32(userID))
	if s == nil {
		// Offline; the new privileges apply on next login.
		return nil
	}
	return p.handlers.HandleRestriction(ctx, s)
}

// onChangePassword drops cached verifications for the old hash so stale
// credentials stop working immediately.
func (p *PubSub) onChangePassword(payload string) error {
	p.verifier.InvalidateHash(payload)
	return nil
}

type changeUsernameMessage struct {
	UserID      int32  `json:"userID"`
	NewUsername string `json:"newUsername"`
}

// onChangeUsername renames a live session and bounces the client so it picks
// the new name up.
func (p *PubSub) onChangeUsername(payload string) error {
	var m changeUsernameMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return err
	}

	s := p.handlers.Registry().GetID(m.UserID)
	if s == nil {
		return nil
	}
	s.SetUsername(m.NewUsername)
	s.Enqueue(packet.Notification("Your username has been changed. Please relog."))
	s.Enqueue(packet.ServerRestart(0))

	p.logger.Info().
		Int32("user_id", m.UserID).
		Str("username", m.NewUsername).
		Msg("username changed")
	return nil
}

type notificationMessage struct {
	UserID  int32  `json:"userID"`
	Message string `json:"message"`
}

func (p *PubSub) onNotification(payload string) error {
	var m notificationMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return err
	}

	s := p.handlers.Registry().GetID(m.UserID)
	if s == nil {
		return nil
	}
	s.Enqueue(packet.Notification(m.Message))
	return nil
}

// NewRedisClient builds a redis client with the dial settings the control
// plane expects.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		MinIdleConns: 1,
	})
}
