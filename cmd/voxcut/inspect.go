package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/katalvlaran/voxcut/config"
	"github.com/katalvlaran/voxcut/volio"
)

func runInitConfig(_ context.Context, args []string, stdout, stderr io.Writer) error {
	var out string
	var force bool
	fs := pflag.NewFlagSet("init-config", pflag.ContinueOnError)
	fs.StringVarP(&out, "output", "o", "voxcut.yaml", "path of the configuration file")
	fs.BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	if done, err := parse(fs, args, stderr); done || err != nil {
		return err
	}
	if !force {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("init-config: %s exists (use --force to overwrite)", out)
		}
	}
	if err := config.WriteDefault(out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", out)

	return nil
}

func runInspect(_ context.Context, args []string, stdout, stderr io.Writer) error {
	var verify bool
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.BoolVar(&verify, "verify", false, "decompress the payload and check its digest")
	if done, err := parse(fs, args, stderr); done || err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("inspect: no files given")
	}
	for _, path := range fs.Args() {
		h, err := volio.ReadFile(path, func(r io.Reader) (volio.Header, error) {
			if verify {
				h, _, err := volio.Decode(r)
				return h, err
			}

			return volio.ReadHeader(r)
		})
		if err != nil {
			return fmt.Errorf("inspect: %s: %w", path, err)
		}
		printHeader(stdout, path, h)
	}

	return nil
}

func printHeader(w io.Writer, path string, h volio.Header) {
	fmt.Fprintf(w, "%s:\n", path)
	fmt.Fprintf(w, "  kind         %s (v%d)\n", h.Kind, h.Version)
	switch h.Kind {
	case volio.KindGrid:
		fmt.Fprintf(w, "  extent       %dx%dx%d\n", h.Extent.X, h.Extent.Y, h.Extent.Z)
		fmt.Fprintf(w, "  spacing      %g,%g,%g\n", h.Spacing.X, h.Spacing.Y, h.Spacing.Z)
		fmt.Fprintf(w, "  components   %d\n", h.Components)
	case volio.KindLabels:
		fmt.Fprintf(w, "  region       %s\n", h.Region)
	}
	fmt.Fprintf(w, "  compression  %s\n", h.Compression)
	fmt.Fprintf(w, "  size         %d (stored %d)\n", h.Size, h.Stored)
	fmt.Fprintf(w, "  blake3       %s\n", hex.EncodeToString(h.Checksum[:]))
}
