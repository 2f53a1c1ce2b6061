package main

import (
	"composer/cmd"
	"composer/services"
	"composer/types"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fairStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	poorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// accuracyLabel colours an accuracy score given as 0..1
func accuracyLabel(score float64) string {
	percent := score * 100
	label := fmt.Sprintf("%3.0f%%", percent)
	switch {
	case percent >= 80:
		return goodStyle.Render(label)
	case percent >= 60:
		return fairStyle.Render(label)
	default:
		return poorStyle.Render(label)
	}
}

type cli struct {
	app    *cmd.App
	dryRun bool
	out    io.Writer
	// progress is where bars are drawn; nil disables them
	progress io.Writer
}

func newCLI(app *cmd.App, dryRun bool) *cli {
	return &cli{app: app, dryRun: dryRun, out: os.Stdout, progress: os.Stderr}
}

func (c *cli) context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func (c *cli) newBar(total int, description string) *progressbar.ProgressBar {
	if c.progress == nil {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

// collect scans dir and draws a progress bar while doing so
func (c *cli) collect(ctx context.Context, dir string) ([]types.MusicFile, error) {
	var bar *progressbar.ProgressBar
	files, err := c.app.Scanner.Scan(ctx, dir, func(e services.ScanEvent) {
		if e.Type != types.MessageScanProgress {
			return
		}
		if bar == nil {
			bar = c.newBar(e.Total, "Scanning")
		}
		bar.Set(e.Processed)
	})
	if bar != nil {
		bar.Finish()
	}
	return files, err
}

func (c *cli) scan(dir string) error {
	ctx, stop := c.context()
	defer stop()

	files, err := c.collect(ctx, dir)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, headerStyle.Render(fmt.Sprintf("%d music files in %s", len(files), dir)))
	withLyrics := 0
	for _, f := range files {
		marker := mutedStyle.Render("  -  ")
		if f.HasLyrics() {
			marker = goodStyle.Render("lyrics")
			withLyrics++
		}
		rel, err := filepath.Rel(dir, f.Path)
		if err != nil {
			rel = f.Path
		}
		fmt.Fprintf(c.out, "%s  %-6s %s - %s %s\n", marker, f.Duration, f.Artist, f.Title, mutedStyle.Render(rel))
	}
	fmt.Fprintf(c.out, "\n%d with lyrics, %d without\n", withLyrics, len(files)-withLyrics)
	return nil
}

func (c *cli) fetch(dir string) error {
	ctx, stop := c.context()
	defer stop()

	files, err := c.collect(ctx, dir)
	if err != nil {
		return err
	}

	var pending []types.MusicFile
	for _, f := range files {
		if !f.HasLyrics() || c.app.Settings.Get().OverwriteExistingLyrics {
			pending = append(pending, f)
		}
	}
	fmt.Fprintf(c.out, "%d of %d files need lyrics\n", len(pending), len(files))

	bar := c.newBar(len(pending), "Fetching lyrics")
	var matched, missed, skipped int
	var report []string
	for _, f := range pending {
		line, err := c.fetchOne(ctx, f)
		switch {
		case err == nil:
			matched++
		case errors.Is(err, services.ErrLyricsExist):
			skipped++
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			missed++
			line = fmt.Sprintf("%s %s: %v", poorStyle.Render("miss"), f.String(), err)
		}
		if line != "" {
			report = append(report, line)
		}
		bar.Add(1)
	}
	bar.Finish()

	for _, line := range report {
		fmt.Fprintln(c.out, line)
	}
	verb := "saved"
	if c.dryRun {
		verb = "found"
	}
	fmt.Fprintf(c.out, "\nLyrics %s for %d files, %d without a match, %d skipped\n", verb, matched, missed, skipped)
	return nil
}

// fetchOne stores (or with -dry-run, only finds) the best match for f
func (c *cli) fetchOne(ctx context.Context, f types.MusicFile) (string, error) {
	if !c.dryRun {
		outcome, err := c.app.Lyrics.AutoDownload(ctx, f)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", accuracyLabel(outcome.Result.AccuracyScore), f.String(), mutedStyle.Render(where(outcome))), nil
	}

	best, err := c.bestMatch(ctx, f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s -> %s", accuracyLabel(best.AccuracyScore), f.String(), best.String()), nil
}

func (c *cli) bestMatch(ctx context.Context, f types.MusicFile) (*types.LyricsResult, error) {
	results, err := c.app.Lyrics.Search(ctx, types.QueryFromFile(f))
	if err != nil {
		return nil, err
	}
	minAccuracy := c.app.Settings.Get().MinAccuracy
	for i := range results {
		if results[i].AccuracyScore < minAccuracy {
			break
		}
		if results[i].Source != types.SourceLocal {
			return &results[i], nil
		}
	}
	return nil, services.ErrNoMatch
}

func where(o *services.DownloadOutcome) string {
	var parts []string
	if o.LRCPath != "" {
		parts = append(parts, o.LRCPath)
	}
	if o.Embedded {
		parts = append(parts, "embedded")
	}
	return strings.Join(parts, ", ")
}

func (c *cli) file(path string, lyricsID int, search bool) error {
	ctx, stop := c.context()
	defer stop()

	if !c.app.Scanner.IsSupported(path) {
		return fmt.Errorf("%s: %w", path, services.ErrUnsupportedFile)
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	f := c.app.Scanner.ExtractMetadata(path)
	fmt.Fprintf(c.out, "%s %s\n", headerStyle.Render(f.String()), mutedStyle.Render(f.Album+" "+f.Duration))

	switch {
	case search:
		return c.printResults(ctx, f)
	case lyricsID > 0:
		result, err := c.app.Lyrics.GetByID(ctx, lyricsID)
		if err != nil {
			return err
		}
		services.ScoreResult(result, types.QueryFromFile(f))
		return c.store(ctx, f, result)
	default:
		result, err := c.bestMatch(ctx, f)
		if err != nil {
			return err
		}
		return c.store(ctx, f, result)
	}
}

func (c *cli) printResults(ctx context.Context, f types.MusicFile) error {
	results, err := c.app.Lyrics.Search(ctx, types.QueryFromFile(f))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No lyrics found")
		return nil
	}

	for _, r := range results {
		kind := "plain"
		if r.HasSyncedLyrics() {
			kind = "synced"
		}
		fmt.Fprintf(c.out, "%s %8d  %s %s\n", accuracyLabel(r.AccuracyScore), r.ID, r.String(),
			mutedStyle.Render(fmt.Sprintf("[%s, %s, %s]", r.Album, r.DisplayDuration(), kind)))
	}
	return nil
}

func (c *cli) store(ctx context.Context, f types.MusicFile, result *types.LyricsResult) error {
	if c.dryRun {
		fmt.Fprintf(c.out, "Would store %s (%s)\n\n", result.String(), accuracyLabel(result.AccuracyScore))
		fmt.Fprintln(c.out, c.app.Lyrics.RenderLyrics(result))
		return nil
	}

	outcome, err := c.app.Lyrics.Download(ctx, f.Path, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s Lyrics saved: %s\n", goodStyle.Render("ok"), where(outcome))
	if outcome.BackupPath != "" {
		fmt.Fprintf(c.out, "Previous lyrics kept in %s\n", outcome.BackupPath)
	}
	return nil
}
