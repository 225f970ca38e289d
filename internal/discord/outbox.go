package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/keshon/domme-dispatch/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	EmbedColor = 0xb01e66
	ErrorColor = 0xd83c3e

	// maxMessageLength is Discord's limit for message content.
	maxMessageLength = 2000
)

// api is the part of *discordgo.Session the adapter needs.
type api interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// outbox paces every outgoing request through one limiter shared by all
// messages and retries requests Discord failed transiently.
type outbox struct {
	api     api
	limiter *retrylimit.Limiter
	retry   retrylimit.Config
}

func newOutbox(a api, limit rate.Limit, burst int, logger zerolog.Logger) *outbox {
	retry := retrylimit.DefaultConfig()
	retry.Retryable = transient
	retry.Throttled = throttled
	retry.Logger = logger
	return &outbox{api: a, limiter: retrylimit.NewLimiter(limit, burst), retry: retry}
}

func (o *outbox) do(ctx context.Context, fn func(opt discordgo.RequestOption) error) error {
	return retrylimit.Do(ctx, o.limiter, o.retry, func(ctx context.Context) error {
		return fn(discordgo.WithContext(ctx))
	})
}

func (o *outbox) reply(ctx context.Context, channelID, text string, ref *discordgo.MessageReference) error {
	for i, part := range chunk(text, maxMessageLength) {
		err := o.do(ctx, func(opt discordgo.RequestOption) error {
			var err error
			if i == 0 && ref != nil {
				_, err = o.api.ChannelMessageSendReply(channelID, part, ref, opt)
			} else {
				_, err = o.api.ChannelMessageSend(channelID, part, opt)
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("send message to %s: %w", channelID, err)
		}
	}
	return nil
}

func (o *outbox) direct(ctx context.Context, userID, text string) error {
	var ch *discordgo.Channel
	err := o.do(ctx, func(opt discordgo.RequestOption) error {
		var err error
		ch, err = o.api.UserChannelCreate(userID, opt)
		return err
	})
	if err != nil {
		return fmt.Errorf("open direct channel with %s: %w", userID, err)
	}
	return o.reply(ctx, ch.ID, text, nil)
}

func (o *outbox) embed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	err := o.do(ctx, func(opt discordgo.RequestOption) error {
		_, err := o.api.ChannelMessageSendEmbed(channelID, embed, opt)
		return err
	})
	if err != nil {
		return fmt.Errorf("send embed to %s: %w", channelID, err)
	}
	return nil
}

func statusCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

// transient reports whether Discord may accept the same request later.
func transient(err error) bool {
	code := statusCode(err)
	return code == http.StatusTooManyRequests || code >= 500
}

func throttled(err error) bool {
	return statusCode(err) == http.StatusTooManyRequests
}

// chunk splits text into parts of at most size bytes, preferring line breaks.
func chunk(text string, size int) []string {
	var parts []string
	for len(text) > size {
		cut := strings.LastIndexByte(text[:size], '\n')
		if cut <= 0 {
			cut = size
			// do not split a UTF-8 sequence
			for cut > 0 && !utf8Start(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = size
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
