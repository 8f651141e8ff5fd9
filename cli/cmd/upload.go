package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/runtime"
)

// UploadResponse is the response for the upload command.
type UploadResponse struct {
	URLs []string `json:"urls" yaml:"urls"`
}

// UploadCommand returns the upload command.
// Upload stores reference images and prints URLs usable as --image-url.
func UploadCommand() *cli.Command {
	flags := append([]cli.Flag{ConfigFlag, FormatFlag}, StorageFlags()...)
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload reference images and print their URLs",
		ArgsUsage: "<file>...",
		Flags:     flags,
		Action:    uploadAction,
		Subcommands: []*cli.Command{
			{
				Name:      "delete",
				Usage:     "Delete previously uploaded images by URL",
				ArgsUsage: "<url>...",
				Flags:     append([]cli.Flag{ConfigFlag}, StorageFlags()...),
				Action:    deleteUploadAction,
			},
		},
	}
}

func uploadAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("upload requires at least one file", runtime.ExitCodeInvalid)
	}

	p, err := prepare(c)
	if err != nil {
		return err
	}
	store, err := buildAssetStore(c.Context, p.cfg.Storage, p.logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("asset storage: %v", err), runtime.ExitCodeInvalid)
	}

	urls, err := uploadFiles(c.Context, store, c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeConnection)
	}
	return p.renderer.Render(UploadResponse{URLs: urls})
}

func deleteUploadAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("delete requires at least one url", runtime.ExitCodeInvalid)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}
	if err := applyOverrides(c, cfg); err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}
	store, err := buildAssetStore(c.Context, cfg.Storage, log.NewLogger(nil))
	if err != nil {
		return cli.Exit(fmt.Sprintf("asset storage: %v", err), runtime.ExitCodeInvalid)
	}

	for _, u := range c.Args().Slice() {
		if err := store.Delete(c.Context, u); err != nil {
			return cli.Exit(fmt.Sprintf("delete %s failed: %v", u, err), runtime.ExitCodeConnection)
		}
	}
	return nil
}
