package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/autoplay"
	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type reciteOptions struct {
	sections map[api.SectionKind]*int
	from     int
	reciter  string
	quality  string
	text     bool
}

func newReciteCmd() *cobra.Command {
	opts := reciteOptions{sections: map[api.SectionKind]*int{}}

	cmd := &cobra.Command{
		Use:   "recite",
		Short: "Play a surah, juz, manzil, ruku or page verse by verse",
		Example: "  quranradio recite --surah 36\n" +
			"  quranradio recite --juz 30 --from 12 --reciter ar.husary",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupConsoleLogging()
			kind, number, err := opts.section()
			if err != nil {
				return err
			}
			return runRecite(cmd.Context(), opts, kind, number)
		},
	}

	for _, kind := range []api.SectionKind{api.SectionSurah, api.SectionJuz, api.SectionManzil, api.SectionRuku, api.SectionPage} {
		n := new(int)
		opts.sections[kind] = n
		cmd.Flags().IntVar(n, string(kind), 0, fmt.Sprintf("%s number (1-%d)", kind, kind.Max()))
	}
	cmd.Flags().IntVar(&opts.from, "from", 1, "Start at this verse of the section")
	cmd.Flags().StringVar(&opts.reciter, "reciter", "", "Verse audio edition (default from config)")
	cmd.Flags().StringVar(&opts.quality, "quality", "", "Audio quality: high or low (default from config)")
	cmd.Flags().BoolVar(&opts.text, "text", false, "Print verse text and translation")
	return cmd
}

// section returns the one section selected by flags.
func (o reciteOptions) section() (api.SectionKind, int, error) {
	var (
		kind   api.SectionKind
		number int
	)
	for k, n := range o.sections {
		if *n == 0 {
			continue
		}
		if kind != "" {
			return "", 0, errors.New("choose exactly one of --surah, --juz, --manzil, --ruku, --page")
		}
		kind, number = k, *n
	}
	if kind == "" {
		return "", 0, errors.New("one of --surah, --juz, --manzil, --ruku, --page is required")
	}
	if number < 1 || number > kind.Max() {
		return "", 0, fmt.Errorf("%s must be between 1 and %d", kind, kind.Max())
	}
	return kind, number, nil
}

func runRecite(parent context.Context, opts reciteOptions, kind api.SectionKind, number int) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	edition := cfg.Reciter
	if opts.reciter != "" {
		edition = opts.reciter
	}
	if opts.quality != "" {
		cfg.Quality = quran.ParseQuality(opts.quality)
	}

	c := newClients(cfg)
	section, err := autoplay.LoadSection(ctx, c.alquran, kind, number, edition)
	if err != nil {
		return err
	}
	if opts.from < 1 || opts.from > len(section.Verses) {
		return fmt.Errorf("--from must be between 1 and %d for %s", len(section.Verses), section.Title())
	}

	port, _, ctrl := newPlayback(cfg)
	port.SetVolume(cfg.Volume)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer func() {
		cancelRun()
		<-ctrl.Done()
	}()
	go func() {
		if err := ctrl.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Error().Err(err).Msg("Player controller stopped")
		}
	}()

	preparer := autoplay.NewPreparer(c.alquran, c.resolver, edition, cfg.Quality, cfg.Resolver.Workers)
	session := autoplay.NewSession(ctrl, preparer, edition)

	fmt.Printf("%s · %s · %d verses (%s)\n", config.AppName, section.Title(), len(section.Verses), edition)
	fmt.Println("Resolving verse audio...")
	if err := session.Start(ctx, section, opts.from-1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range session.Events() {
			printEvent(e, opts.text)
		}
	}()

	err = session.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopped.")
		err = nil
	}
	cancelRun()
	<-done
	return err
}

func printEvent(e autoplay.Event, withText bool) {
	switch e.Kind {
	case autoplay.EventHighlight:
		fmt.Printf("▶ %s\n", e.Verse.Key())
		if withText {
			if e.Verse.Text != "" {
				fmt.Printf("  %s\n", e.Verse.Text)
			}
			if e.Verse.Translation != "" {
				fmt.Printf("  %s\n", e.Verse.Translation)
			}
		}
	case autoplay.EventVerseError:
		fmt.Printf("⚠ %s skipped: %s\n", e.Verse.Key(), e.Err)
	case autoplay.EventBlocked:
		fmt.Println("⊘ Audio output is blocked")
	case autoplay.EventFinished:
		fmt.Println("✓ Finished")
	}
}
