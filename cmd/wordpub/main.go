package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/wordpub/internal/api"
	"github.com/dgallion1/wordpub/internal/config"
	"github.com/dgallion1/wordpub/internal/outline"
	"github.com/dgallion1/wordpub/internal/pipeline"
	"github.com/dgallion1/wordpub/internal/report"
)

type appContext struct {
	log    *slog.Logger
	styles *config.StyleMap
}

var cli struct {
	StyleMap string `help:"Path to a YAML style map layered over the defaults." type:"path"`
	Verbose  bool   `help:"Enable debug logging." short:"v"`

	Convert convertCmd `cmd:"" help:"Convert a document to publication XML."`
	Report  reportCmd  `cmd:"" help:"Convert a document and print the conversion report."`
	Outline outlineCmd `cmd:"" help:"Print the heading outline of a document."`
	Serve   serveCmd   `cmd:"" help:"Run the HTTP conversion API."`
}

type convertCmd struct {
	Input  string `arg:"" help:"Input document (.docx or bare document part)." type:"existingfile"`
	Output string `help:"Output path; stdout when omitted." short:"o" type:"path"`
}

func (c *convertCmd) Run(app *appContext) error {
	raw, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	res, err := pipeline.New(app.styles, app.log).Convert(context.Background(), raw)
	if err != nil {
		return err
	}
	for _, a := range res.Anomalies {
		app.log.Warn("anomaly", "kind", string(a.Kind), "detail", a.Detail)
	}
	if c.Output == "" {
		_, err = os.Stdout.Write(res.XML)
		return err
	}
	return os.WriteFile(c.Output, res.XML, 0o644)
}

type reportCmd struct {
	Input string `arg:"" help:"Input document." type:"existingfile"`
	HTML  bool   `help:"Render the report as HTML instead of Markdown."`
}

func (c *reportCmd) Run(app *appContext) error {
	raw, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	res, err := pipeline.New(app.styles, app.log).Convert(context.Background(), raw)
	if err != nil {
		return err
	}
	if c.HTML {
		html, err := report.HTML(c.Input, res)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(html)
		return err
	}
	fmt.Print(report.Markdown(c.Input, res))
	return nil
}

type outlineCmd struct {
	Input string `arg:"" help:"Input document archive." type:"existingfile"`
}

func (c *outlineCmd) Run(app *appContext) error {
	f, err := os.Open(c.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	out, err := outline.Build(f, c.Input, app.styles)
	if err != nil {
		return err
	}
	printSections(out.Sections, "")
	fmt.Printf("\n%d paragraphs, %d headings, %d words\n",
		out.Stats.Paragraphs, out.Stats.Headings, out.Stats.Words)
	return nil
}

func printSections(secs []*outline.Section, indent string) {
	for _, s := range secs {
		fmt.Printf("%s%s\n", indent, s.Title)
		printSections(s.Sections, indent+"  ")
	}
}

type serveCmd struct{}

func (c *serveCmd) Run(app *appContext) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cli.StyleMap == "" && cfg.StyleMapPath != "" {
		styles, err := config.LoadStyleMap(cfg.StyleMapPath)
		if err != nil {
			return err
		}
		app.styles = styles
	}

	converter := pipeline.New(app.styles, app.log)
	srv := api.NewServer(converter, app.styles, app.log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		app.log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	app.log.Info("starting wordpub", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("wordpub"),
		kong.Description("Word-processor markup to publication XML converter."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	styles, err := config.LoadStyleMap(cli.StyleMap)
	if err != nil {
		log.Error("invalid style map", "error", err)
		os.Exit(1)
	}

	err = ctx.Run(&appContext{log: log, styles: styles})
	ctx.FatalIfErrorf(err)
}
