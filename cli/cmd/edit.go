package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/rnagent/runtime"
	"github.com/pithecene-io/rnagent/sandbox"
	"github.com/pithecene-io/rnagent/types"
)

// EditCommand returns the edit command.
// Edit sends one file and an instruction; the service streams back the
// rewritten files.
func EditCommand() *cli.Command {
	flags := append(InvocationFlags(),
		&cli.StringFlag{
			Name:     "file",
			Usage:    "File to edit, relative to --project",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "content",
			Usage: "Current file content (read from --file when omitted)",
		},
		&cli.StringFlag{
			Name:     "prompt",
			Usage:    "Edit instruction",
			Required: true,
		},
	)

	return &cli.Command{
		Name:   "edit",
		Usage:  "Modify one file of an existing project",
		Flags:  flags,
		Action: editAction,
	}
}

func editAction(c *cli.Context) error {
	p, err := prepare(c)
	if err != nil {
		return err
	}

	project := c.String("project")
	rel := c.String("file")

	content := c.String("content")
	if !c.IsSet("content") {
		content, err = readProjectFile(project, rel)
		if err != nil {
			return cli.Exit(err.Error(), runtime.ExitCodeInvalid)
		}
	}

	params := runtime.EditParams{
		ProjectPath:  project,
		RelativePath: rel,
		Content:      content,
		Prompt:       c.String("prompt"),
	}
	return runInvocation(c, p, types.OperationEdit, func(ctx context.Context, agent *runtime.Agent) (*runtime.RunResult, error) {
		return agent.Edit(ctx, params)
	})
}

// readProjectFile reads rel through the project sandbox so the edit source
// obeys the same containment rules as writes.
func readProjectFile(project, rel string) (string, error) {
	root, err := sandbox.Open(project)
	if err != nil {
		return "", err
	}
	content, err := root.ReadFile(rel)
	if err != nil {
		return "", fmt.Errorf("cannot read %q: %w", rel, err)
	}
	return content, nil
}
