package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gogpu/imgpipe"
)

type decodeReport struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	Format     string   `json:"format,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Frames     int      `json:"frames"`
	DurationMS int64    `json:"duration_ms"`
	DelaysMS   []int64  `json:"delays_ms,omitempty"`
	Bytes      int      `json:"bytes"`
	Error      string   `json:"error,omitempty"`
	Dumped     []string `json:"dumped,omitempty"`
}

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var dumpDir string

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a file and summarize its frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := imgpipe.NewChanSink(1)
			defer sink.Close()
			loader := imgpipe.NewLoader(sink, ctx.pipelineOptions()...)

			loader.Load(args[0])
			ev := <-sink.Events()
			loader.Wait()

			report, frames := summarize(ev)
			if loaded, ok := ev.(imgpipe.ImageLoaded); ok && dumpDir != "" {
				paths, err := dumpFrames(dumpDir, loaded.Path, frames)
				if err != nil {
					return err
				}
				report.Dumped = paths
			}

			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd, report, ev)
			}

			if failed, ok := ev.(imgpipe.ImageError); ok {
				var readErr *imgpipe.ReadError
				switch {
				case jsonOut:
					return errors.New(failed.Message)
				case errors.As(failed.Err, &readErr):
					return readErr
				default:
					return fmt.Errorf("%s: %w", failed.Message, failed.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the summary as JSON")
	cmd.Flags().StringVar(&dumpDir, "dump", "", "Write every decoded frame as PNG into this directory")
	return cmd
}

func summarize(ev imgpipe.Event) (decodeReport, imgpipe.FrameSequence) {
	report := decodeReport{ID: ev.RequestID().String(), Path: ev.SourcePath()}
	switch ev := ev.(type) {
	case imgpipe.ImageError:
		report.Error = ev.Message
		return report, nil
	case imgpipe.ImageLoaded:
		report.Format = ev.Format.String()
		report.Frames = len(ev.Frames)
		report.DurationMS = ev.Frames.Duration().Milliseconds()
		if len(ev.Frames) > 0 {
			report.Width, report.Height = ev.Frames[0].Width, ev.Frames[0].Height
		}
		for _, f := range ev.Frames {
			report.Bytes += len(f.Pix)
			if len(ev.Frames) > 1 {
				report.DelaysMS = append(report.DelaysMS, f.Delay.Milliseconds())
			}
		}
		return report, ev.Frames
	}
	return report, nil
}

func printReport(cmd *cobra.Command, r decodeReport, ev imgpipe.Event) {
	out := cmd.OutOrStdout()
	if r.Error != "" {
		// The error itself is reported by main.
		return
	}
	elapsed := ""
	if loaded, ok := ev.(imgpipe.ImageLoaded); ok {
		elapsed = time.Since(loaded.Start).Round(time.Millisecond).String()
	}
	rows := [][]string{{
		r.Path,
		r.Format,
		fmt.Sprintf("%dx%d", r.Width, r.Height),
		strconv.Itoa(r.Frames),
		(time.Duration(r.DurationMS) * time.Millisecond).String(),
		humanize.IBytes(uint64(r.Bytes)),
		elapsed,
	}}
	headers := []string{"Path", "Format", "Size", "Frames", "Duration", "Memory", "Elapsed"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
	for _, p := range r.Dumped {
		fmt.Fprintf(out, "wrote %s\n", p)
	}
}

// dumpFrames writes each frame as <base>_<n>.png inside dir.
func dumpFrames(dir, source string, frames imgpipe.FrameSequence) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump directory %q: %w", dir, err)
	}
	base := filepath.Base(source)
	base = base[:len(base)-len(filepath.Ext(base))]
	paths := make([]string, 0, len(frames))
	for i, f := range frames {
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.png", base, i))
		if err := writePNG(path, f); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(path string, f imgpipe.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := png.Encode(file, f.Image()); err != nil {
		file.Close()
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return file.Close()
}
