package telegram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"mime"
	"path/filepath"

	"terabox-relay-bot/internal/dialer"
	"terabox-relay-bot/internal/media"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// MTProtoClient is the elevated upload identity: a user-account session with
// a higher per-file size ceiling than the Bot API.
type MTProtoClient struct {
	client *telegram.Client
	api    *tg.Client
	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
}

// MTProtoConfig holds configuration for the user session.
type MTProtoConfig struct {
	SessionFile string
	APIID       int
	APIHash     string
	Phone       string
	ProxyURL    string
}

// NewMTProtoClient starts the user client and blocks until it is authorized
// or failed. A first run with no session file walks the terminal code flow.
func NewMTProtoClient(cfg MTProtoConfig) (*MTProtoClient, error) {
	ctx, cancel := context.WithCancel(context.Background())

	options := telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: cfg.SessionFile},
		Logger:         zap.L(),
	}

	if cfg.ProxyURL != "" {
		dial, err := dialer.CreateProxyDialerFromURL(cfg.ProxyURL)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
		}
		options.Resolver = dcs.Plain(dcs.PlainOptions{Dial: dial.DialContext})
	}

	client := telegram.NewClient(cfg.APIID, cfg.APIHash, options)

	c := &MTProtoClient{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- client.Run(ctx, func(ctx context.Context) error {
			c.api = client.API()

			status, err := client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get auth status: %w", err)
			}

			if !status.Authorized {
				if cfg.Phone == "" {
					return fmt.Errorf("phone number required for authentication")
				}
				flow := auth.NewFlow(
					auth.CodeOnly(cfg.Phone, &codeOnlyAuth{}),
					auth.SendCodeOptions{},
				)
				if err := client.Auth().IfNecessary(ctx, flow); err != nil {
					return fmt.Errorf("authentication failed: %w", err)
				}
			}

			close(c.ready)

			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-c.ready:
		return c, nil
	case err := <-errChan:
		cancel()
		if err != nil && err != context.Canceled {
			return nil, fmt.Errorf("failed to initialize client: %w", err)
		}
		return nil, fmt.Errorf("client initialization failed")
	}
}

type codeOnlyAuth struct{}

func (a *codeOnlyAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Enter authentication code: ")
	var code string
	fmt.Scanln(&code)
	return code, nil
}

// Upload sends a local file to the chat through the user session and returns
// the relay message reference.
func (c *MTProtoClient) Upload(chatID int64, filePath, caption, thumbPath string) (Receipt, error) {
	up := uploader.NewUploader(c.api).WithPartSize(512 * 1024)

	inputFile, err := up.FromPath(c.ctx, filePath)
	if err != nil {
		return Receipt{}, fmt.Errorf("upload %q: %w", filePath, err)
	}

	var inputMedia tg.InputMediaClass
	switch media.KindOf(filePath) {
	case media.KindImage:
		inputMedia = &tg.InputMediaUploadedPhoto{File: inputFile}
	default:
		doc := &tg.InputMediaUploadedDocument{
			File:     inputFile,
			MimeType: guessMIME(filePath),
			Attributes: []tg.DocumentAttributeClass{
				&tg.DocumentAttributeFilename{FileName: filepath.Base(filePath)},
			},
		}
		if media.KindOf(filePath) == media.KindVideo {
			doc.Attributes = append(doc.Attributes, &tg.DocumentAttributeVideo{
				SupportsStreaming: true,
			})
			if thumbPath != "" {
				if thumb, err := up.FromPath(c.ctx, thumbPath); err == nil {
					doc.SetThumb(thumb)
				}
			}
		}
		inputMedia = doc
	}

	peer, err := c.resolvePeer(chatID)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to resolve peer: %w", err)
	}

	updates, err := c.api.MessagesSendMedia(c.ctx, &tg.MessagesSendMediaRequest{
		Peer:     peer,
		Media:    inputMedia,
		Message:  caption,
		RandomID: randID(),
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to send media: %w", err)
	}

	msgID := extractMessageID(updates)
	if msgID == 0 {
		return Receipt{}, fmt.Errorf("failed to get message ID from response")
	}
	return Receipt{ChatID: chatID, MessageID: msgID}, nil
}

// Close gracefully stops the user client.
func (c *MTProtoClient) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// resolvePeer converts a Bot-API-style chat ID to an InputPeerClass by
// scanning the account's dialogs for the access hash.
func (c *MTProtoClient) resolvePeer(chatID int64) (tg.InputPeerClass, error) {
	dialogs, err := c.api.MessagesGetDialogs(c.ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dialogs: %w", err)
	}

	var chats []tg.ChatClass
	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	}

	for _, chat := range chats {
		switch ch := chat.(type) {
		case *tg.Channel:
			// Channel IDs in Bot API format: -100... prefix
			fullID := int64(-1000000000000) - ch.ID
			if fullID == chatID {
				return &tg.InputPeerChannel{
					ChannelID:  ch.ID,
					AccessHash: ch.AccessHash,
				}, nil
			}
		case *tg.Chat:
			if -int64(ch.ID) == chatID {
				return &tg.InputPeerChat{ChatID: ch.ID}, nil
			}
		}
	}

	return nil, fmt.Errorf("chat ID %d not found in dialogs (make sure the user account is a member of this chat)", chatID)
}

func extractMessageID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.Updates:
		for _, update := range u.Updates {
			if msg, ok := update.(*tg.UpdateNewMessage); ok {
				if m, ok := msg.Message.(*tg.Message); ok {
					return m.ID
				}
			}
			if msg, ok := update.(*tg.UpdateNewChannelMessage); ok {
				if m, ok := msg.Message.(*tg.Message); ok {
					return m.ID
				}
			}
		}
	case *tg.UpdateShortSentMessage:
		return u.ID
	}
	return 0
}

func randID() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func guessMIME(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
