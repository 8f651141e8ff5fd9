package cmd

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/rnagent/assets"
	"github.com/pithecene-io/rnagent/runtime"
	"github.com/pithecene-io/rnagent/types"
)

// ScaffoldCommand returns the scaffold command.
// Scaffold asks the generation service to build an app into --project and
// writes the streamed files inside it.
func ScaffoldCommand() *cli.Command {
	flags := append(InvocationFlags(),
		&cli.StringFlag{
			Name:     "prompt",
			Usage:    "What to build",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "app-name",
			Usage:    "Application name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "brand-color",
			Usage: "Brand color (e.g. #7C3AED)",
		},
		&cli.StringSliceFlag{
			Name:  "image",
			Usage: "Local reference image to upload (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "image-url",
			Usage: "Reference image URL passed through as-is (repeatable)",
		},
	)
	flags = append(flags, StorageFlags()...)

	return &cli.Command{
		Name:   "scaffold",
		Usage:  "Generate a new app into an existing project directory",
		Flags:  flags,
		Action: scaffoldAction,
	}
}

func scaffoldAction(c *cli.Context) error {
	p, err := prepare(c)
	if err != nil {
		return err
	}

	imageURLs := append([]string(nil), c.StringSlice("image-url")...)
	if images := c.StringSlice("image"); len(images) > 0 {
		store, err := buildAssetStore(c.Context, p.cfg.Storage, p.logger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("asset storage: %v", err), runtime.ExitCodeInvalid)
		}
		uploaded, err := uploadFiles(c.Context, store, images)
		if err != nil {
			return cli.Exit(err.Error(), runtime.ExitCodeInvalid)
		}
		imageURLs = append(imageURLs, uploaded...)
	}

	params := runtime.ScaffoldParams{
		ProjectPath: c.String("project"),
		Prompt:      c.String("prompt"),
		AppName:     c.String("app-name"),
		BrandColor:  c.String("brand-color"),
		ImageURLs:   imageURLs,
	}
	return runInvocation(c, p, types.OperationScaffold, func(ctx context.Context, agent *runtime.Agent) (*runtime.RunResult, error) {
		return agent.Scaffold(ctx, params)
	})
}

// uploadFiles uploads each local file and returns the URLs in order.
func uploadFiles(ctx context.Context, store *assets.Store, paths []string) ([]string, error) {
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read image %q: %w", path, err)
		}
		u, err := store.Upload(ctx, filepath.Base(path), detectContentType(path, data), data)
		if err != nil {
			return nil, fmt.Errorf("upload %q failed: %w", path, err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// detectContentType prefers the extension, then sniffs the content.
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
