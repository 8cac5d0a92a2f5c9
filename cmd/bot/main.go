package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"terabox-relay-bot/internal/aria2"
	"terabox-relay-bot/internal/config"
	"terabox-relay-bot/internal/delivery"
	"terabox-relay-bot/internal/dialer"
	"terabox-relay-bot/internal/fetch"
	"terabox-relay-bot/internal/gate"
	"terabox-relay-bot/internal/keepalive"
	"terabox-relay-bot/internal/linkcheck"
	"terabox-relay-bot/internal/logger"
	"terabox-relay-bot/internal/resolver"
	"terabox-relay-bot/internal/status"
	"terabox-relay-bot/internal/telegram"

	tele "gopkg.in/telebot.v4"
)

// Options applied to the aria2 daemon once at startup.
var daemonOptions = map[string]string{
	"max-tries":       "50",
	"retry-wait":      "3",
	"continue":        "true",
	"allow-overwrite": "true",
	"min-split-size":  "4M",
	"split":           "10",
}

type app struct {
	cfg        *config.Config
	bot        *tele.Bot
	classifier *linkcheck.Classifier
	gate       *gate.Gate
	resolver   resolver.Resolver
	fetcher    *fetch.Orchestrator
	deliverer  *delivery.Orchestrator
}

func main() {
	cfg, err := config.ParseConfig()
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	keepalive.Start(cfg.Web.Addr)

	daemon := aria2.NewClient(cfg.Aria2.RPCURL, cfg.Aria2.Secret)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := daemon.SetGlobalOptions(ctx, daemonOptions); err != nil {
		logger.Warn.Printf("Failed to apply daemon options (is aria2 running?): %v", err)
	}
	cancel()

	bot, err := newBot(cfg)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	// The elevated identity raises the per-file ceiling. A startup failure
	// downgrades to the bot identity rather than aborting.
	var capacity telegram.Uploader = telegram.NewBotUploader(bot)
	threshold := cfg.Bot.SplitSizeBytes
	if cfg.Mtproto.Enabled() {
		client, err := telegram.NewMTProtoClient(telegram.MTProtoConfig{
			SessionFile: cfg.Mtproto.SessionFile,
			APIID:       cfg.Mtproto.APIID,
			APIHash:     cfg.Mtproto.APIHash,
			Phone:       cfg.Mtproto.Phone,
			ProxyURL:    cfg.Mtproto.Proxy,
		})
		if err != nil {
			logger.Error.Printf("Elevated identity unavailable, falling back to bot uploads: %v", err)
		} else {
			defer client.Close()
			capacity = client
			threshold = cfg.Bot.UserSplitSizeBytes
			logger.Info.Println("Elevated upload identity ready")
		}
	}

	a := &app{
		cfg:        cfg,
		bot:        bot,
		classifier: linkcheck.NewClassifier(nil),
		gate:       gate.New(cfg.Access.ChannelID, cfg.Access.OnLookupError, gate.BotLookup(bot)),
		resolver:   resolver.NewClient(cfg.Resolver.Endpoint, cfg.Resolver.APIKey, &http.Client{Timeout: cfg.Resolver.Timeout}),
		fetcher:    fetch.NewOrchestrator(daemon, cfg.Aria2.DownloadDir, cfg.Aria2.PollEvery, cfg.Aria2.MetadataTimeout),
		deliverer:  delivery.New(bot, cfg.Bot.RelayChatID, capacity, threshold),
	}

	bot.Handle("/start", a.handleStart)
	bot.Handle(tele.OnText, a.handleText)

	logger.Info.Println("Bot started")
	bot.Start()
}

func newBot(cfg *config.Config) (*tele.Bot, error) {
	settings := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	if cfg.Bot.Proxy != "" {
		dial, err := dialer.CreateProxyDialerFromURL(cfg.Bot.Proxy)
		if err != nil {
			return nil, fmt.Errorf("create proxy dialer: %w", err)
		}
		settings.Client = &http.Client{
			Transport: &http.Transport{DialContext: dial.DialContext},
		}
		logger.Info.Printf("Using proxy: %s", cfg.Bot.Proxy)
	}

	return tele.NewBot(settings)
}

func (a *app) handleStart(c tele.Context) error {
	text := fmt.Sprintf(
		"👋 Hi %s!\n\nSend me a Terabox share link and I will fetch the file for you.\n\nSupported domains:\n%s",
		c.Sender().FirstName,
		strings.Join(a.classifier.Domains(), ", "),
	)
	return c.Send(text, a.joinMarkup())
}

const (
	msgJoinRequired = "You must join our channel to use this bot."
	msgNoURL        = "Please send a Terabox share link."
	msgUnsupported  = "That link is not from a supported Terabox domain."
)

// screen runs the pre-flight checks on an inbound message: membership first,
// link shape second. A non-empty reply means the message is not served.
func screen(g *gate.Gate, cl *linkcheck.Classifier, userID int64, text string) (shareURL, reply string) {
	if !g.Allow(userID) {
		return "", msgJoinRequired
	}
	result, shareURL := cl.Classify(text)
	switch result {
	case linkcheck.NoURL:
		return "", msgNoURL
	case linkcheck.UnsupportedHost:
		return "", msgUnsupported
	}
	return shareURL, ""
}

func (a *app) handleText(c tele.Context) error {
	sender := c.Sender()
	who := status.Requester{ID: sender.ID, Name: sender.FirstName}

	shareURL, deny := screen(a.gate, a.classifier, sender.ID, c.Text())
	if deny == msgJoinRequired {
		return c.Reply(deny, a.joinMarkup())
	}
	if deny != "" {
		return c.Reply(deny)
	}

	statusMsg, err := a.bot.Reply(c.Message(), "⏳ Resolving link…")
	if err != nil {
		logger.Error.Printf("failed to send status message: %v", err)
		return err
	}
	editor := status.NewEditor(a.bot, statusMsg, a.cfg.Bot.EditInterval)

	if err := a.process(context.Background(), shareURL, sender.ID, editor, who); err != nil {
		editor.Finish("❌ " + err.Error())
		return nil
	}

	// success leaves only the delivered files in the chat
	editor.Delete()
	if err := a.bot.Delete(c.Message()); err != nil {
		logger.Debug.Printf("delete request message: %v", err)
	}
	return nil
}

// process runs one request end to end: resolve, fetch, deliver. The returned
// error text is shown to the requester verbatim.
func (a *app) process(ctx context.Context, shareURL string, requester int64, editor *status.Editor, who status.Requester) error {
	directURL, err := a.resolver.Resolve(ctx, shareURL)
	if err != nil {
		logger.Warn.Printf("resolve failed for %s: %v", shareURL, err)
		return fmt.Errorf("could not resolve this share link, it may be expired or private")
	}

	gid, err := a.fetcher.Submit(ctx, directURL)
	if err != nil {
		logger.Error.Printf("submit failed: %v", err)
		return fmt.Errorf("could not start the download, please try again later")
	}

	st, err := a.fetcher.Await(ctx, gid, func(s fetch.Snapshot) {
		editor.Update(status.DownloadCard(s, who))
	})
	if err != nil {
		a.fetcher.Discard(ctx, gid, st)
		logger.Warn.Printf("download %s failed: %v", gid, err)
		if err == fetch.ErrStalled {
			return fmt.Errorf("the download never started, the file may no longer exist")
		}
		return fmt.Errorf("download failed: %v", err)
	}

	asset, err := a.fetcher.Collect(ctx, st)
	if err != nil {
		logger.Error.Printf("collect %s failed: %v", gid, err)
		return fmt.Errorf("the download finished but produced no file")
	}
	logger.Info.Printf("fetched %s (%d bytes) for user %d", asset.Name, asset.Size, requester)

	if err := a.deliverer.Deliver(asset, requester, editor, who); err != nil {
		return fmt.Errorf("upload to Telegram failed, the file may be too large")
	}
	return nil
}

func (a *app) joinMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var row tele.Row
	if a.cfg.Access.JoinURL != "" {
		row = append(row, markup.URL("📢 Join Channel", a.cfg.Access.JoinURL))
	}
	if a.cfg.Access.DeveloperURL != "" {
		row = append(row, markup.URL("👨‍💻 Developer", a.cfg.Access.DeveloperURL))
	}
	if len(row) > 0 {
		markup.Inline(row)
	}
	return markup
}
