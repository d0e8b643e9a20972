// Command wmtile renders watermark tiles, reveals blind watermarks in
// screenshots and serves both over HTTP.
//
// Usage:
//
//	wmtile render [-config wm.yaml] [-text line]... [-output tile.png] [-html page.html]
//	wmtile reveal -input shot.png [-output revealed.png]
//	wmtile serve  [-config wm.yaml] [-addr :8080]
//
// serve reads WMTILE_ADDR and WMTILE_MAX_UPLOAD as defaults for the listen
// address and the /reveal upload limit.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "golang.org/x/image/webp" // register decoder
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/watermark"
	"github.com/gogpu/watermark/blind"
	"github.com/gogpu/watermark/dom"
	"github.com/gogpu/watermark/internal/server"
	"github.com/gogpu/watermark/pattern"
)

const (
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 15 * time.Second
	serverIdleTimeout  = 60 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "render":
		err = runRender(args)
	case "reveal":
		err = runReveal(args)
	case "serve":
		err = runServe(args)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("wmtile: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wmtile render|reveal|serve [flags]")
	os.Exit(2)
}

// lines collects repeated -text flags.
type lines []string

func (l *lines) String() string     { return strings.Join(*l, "\n") }
func (l *lines) Set(s string) error { *l = append(*l, s); return nil }

func setVerbose(on bool) {
	if on {
		watermark.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

// baseOptions loads the config file, if any, and applies text overrides.
func baseOptions(config string, text lines) ([]watermark.Option, error) {
	var opts []watermark.Option
	if config != "" {
		opt, err := watermark.LoadConfig(config)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	if len(text) > 0 {
		opts = append(opts, watermark.WithText(text...))
	}
	return opts, nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var text lines
	var (
		config  = fs.String("config", "", "YAML, TOML or JSON options file")
		output  = fs.String("output", "tile.png", "output PNG file")
		page    = fs.String("html", "", "also write an HTML page with the watermark mounted")
		verbose = fs.Bool("v", false, "debug logging")
	)
	fs.Var(&text, "text", "text line (repeatable)")
	_ = fs.Parse(args)
	setVerbose(*verbose)

	opts, err := baseOptions(*config, text)
	if err != nil {
		return err
	}
	o := watermark.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	tile, err := pattern.Default().Draw(ctx, o.Options)
	if err != nil {
		return err
	}
	data, err := tile.PNG()
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return err
	}
	log.Printf("Tile saved to %s (%gx%g)", *output, tile.Width, tile.Height)

	if *page == "" {
		return nil
	}
	doc := dom.New()
	wm, err := watermark.New(ctx, doc, append(opts, watermark.WithSecure(false))...)
	if err != nil {
		return err
	}
	defer wm.Destroy()

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(*page, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Printf("Page saved to %s", *page)
	return nil
}

func runReveal(args []string) error {
	fs := flag.NewFlagSet("reveal", flag.ExitOnError)
	var (
		input  = fs.String("input", "", "screenshot to decode")
		output = fs.String("output", "revealed.png", "output PNG file")
	)
	_ = fs.Parse(args)
	if *input == "" {
		return errors.New("reveal: -input is required")
	}

	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("reveal: decode %s: %w", *input, err)
	}

	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := png.Encode(out, blind.RevealImage(img)); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Printf("Revealed image saved to %s", *output)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var text lines
	var (
		config  = fs.String("config", "", "YAML, TOML or JSON options file")
		addr    = fs.String("addr", getEnv("WMTILE_ADDR", ":8080"), "listen address")
		verbose = fs.Bool("v", false, "debug logging")
	)
	fs.Var(&text, "text", "default text line (repeatable)")
	_ = fs.Parse(args)
	setVerbose(*verbose)

	opts, err := baseOptions(*config, text)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      server.New(server.Config{Base: opts, MaxUpload: getEnvInt64("WMTILE_MAX_UPLOAD", server.DefaultMaxUpload)}),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
