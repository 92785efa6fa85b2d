package main

import (
	"tagroll/internal/controller"
	"tagroll/internal/detect"
	"tagroll/internal/ui"

	"github.com/spf13/cobra"
)

var (
	pushType    string
	pushService string
	pushMeta    []string
)

var pushCmd = &cobra.Command{
	Use:   "push <tag>",
	Short: "Record a deployment tag",
	Long: `Record a deployment tag at the end of the history.

The deployment mechanism is detected from the tag (image references are
docker, commit hashes and version tags are git, pm2: prefixes are pm2,
anything else is custom) unless --type is given.

Examples:
  tagroll push v1.2.0
  tagroll push myapp:v2.0 --service web
  tagroll push deadbeefcafe --meta ticket=OPS-123`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVarP(&pushType, "type", "t", "", "Deployment mechanism (docker, git, pm2, custom); detected when omitted")
	pushCmd.Flags().StringVarP(&pushService, "service", "s", "", "Service or container name (docker/pm2)")
	pushCmd.Flags().StringArrayVarP(&pushMeta, "meta", "m", nil, "Metadata as key=value (repeatable)")
}

func runPush(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	meta, err := parseMetadata(pushMeta)
	if err != nil {
		return fail(err)
	}

	service := pushService
	if service == "" {
		service = a.cfg.Service
	}

	entry, err := a.controller.Push(controller.PushRequest{
		Tag:      args[0],
		Kind:     detect.Kind(pushType),
		Service:  service,
		Metadata: meta,
	})
	if err != nil {
		return fail(err)
	}

	if flagJSON {
		return emitJSON(entry)
	}

	ui.Success("Recorded %s (%s)", entry.Tag, entry.Kind)
	if entry.Service != "" {
		ui.Muted("  service: %s", entry.Service)
	}
	return nil
}
