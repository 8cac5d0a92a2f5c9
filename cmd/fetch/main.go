// Command fetch resolves and downloads a share link from the terminal,
// bypassing Telegram. Useful for debugging the resolver and the daemon
// without a bot token.
package main

import (
	"context"
	"net/http"

	"terabox-relay-bot/internal/aria2"
	"terabox-relay-bot/internal/config"
	"terabox-relay-bot/internal/fetch"
	"terabox-relay-bot/internal/linkcheck"
	"terabox-relay-bot/internal/logger"
	"terabox-relay-bot/internal/resolver"

	"github.com/alecthomas/kong"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var cli struct {
	Config string `help:"Path to config file." default:"config.yaml" type:"path"`
	Direct bool   `help:"Treat the URL as a direct download URL and skip the resolver."`
	URL    string `arg:"" help:"Share link (or direct URL with --direct)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("fetch"),
		kong.Description("Resolve a share link and download it through aria2."),
	)

	cfg, err := config.LoadConfig(cli.Config)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	directURL := cli.URL
	if !cli.Direct {
		classifier := linkcheck.NewClassifier(nil)
		if result, _ := classifier.Classify(cli.URL); result != linkcheck.Supported {
			logger.Error.Fatalf("Not a supported share link: %s", cli.URL)
		}

		r := resolver.NewClient(cfg.Resolver.Endpoint, cfg.Resolver.APIKey,
			&http.Client{Timeout: cfg.Resolver.Timeout})
		directURL, err = r.Resolve(ctx, cli.URL)
		if err != nil {
			logger.Error.Fatalf("Resolve failed: %v", err)
		}
		logger.Info.Printf("Resolved to %s", directURL)
	}

	daemon := aria2.NewClient(cfg.Aria2.RPCURL, cfg.Aria2.Secret)
	fetcher := fetch.NewOrchestrator(daemon, cfg.Aria2.DownloadDir, cfg.Aria2.PollEvery, cfg.Aria2.MetadataTimeout)

	gid, err := fetcher.Submit(ctx, directURL)
	if err != nil {
		logger.Error.Fatalf("Submit failed: %v", err)
	}
	logger.Info.Printf("Download started, GID %s", gid)

	progress := mpb.New(mpb.WithWidth(60))
	bar := progress.New(0,
		mpb.BarStyle(),
		mpb.PrependDecorators(decor.Name("downloading ")),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .2f / % .2f"),
			decor.Name(" "),
			decor.AverageSpeed(decor.SizeB1024(0), "% .2f"),
		),
	)

	st, err := fetcher.Await(ctx, gid, func(s fetch.Snapshot) {
		bar.SetTotal(s.Total, false)
		bar.SetCurrent(s.Completed)
	})
	if err != nil {
		bar.Abort(true)
		progress.Wait()
		fetcher.Discard(ctx, gid, st)
		logger.Error.Fatalf("Download failed: %v", err)
	}
	bar.SetTotal(st.TotalLength, true)
	progress.Wait()

	asset, err := fetcher.Collect(ctx, st)
	if err != nil {
		logger.Error.Fatalf("Collect failed: %v", err)
	}
	logger.Info.Printf("Saved %s (%d bytes) to %s", asset.Name, asset.Size, asset.Path)
}
