package cli

import (
	"fmt"
	"strings"

	"github.com/humanbelnik/storypoker/internal/client/gateway"
	"github.com/humanbelnik/storypoker/internal/model"
	"github.com/spf13/cobra"
)

type CreateOptions struct {
	*RootOptions
	Name    string
	As      string
	Stories []string
}

func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and start estimating",
		Long: `Create a room with an initial backlog and join it as its first member.

Example:
  pokerctl create --name "Sprint 42" --as alice --story "Login page" --story "Signup: email check"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts := make([]model.StoryDraft, 0, len(opts.Stories))
			for _, raw := range opts.Stories {
				drafts = append(drafts, parseStoryDraft(raw))
			}

			gw := gateway.New(opts.GatewayURL)
			resp, err := gw.CreateRoom(cmd.Context(), opts.Name, opts.As, drafts)
			if err != nil {
				return fmt.Errorf("create room: %w", err)
			}

			printCredential(cmd, resp.Room.ID, resp.Credential)
			return runSession(cmd.Context(), opts.RootOptions, resp.Room.ID, resp.Credential, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "room name (required)")
	cmd.Flags().StringVar(&opts.As, "as", "", "your display name (required)")
	cmd.Flags().StringArrayVar(&opts.Stories, "story", nil, `story as "title" or "title: description", repeatable`)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("story")

	return cmd
}

type JoinOptions struct {
	*RootOptions
	As         string
	Credential string
}

func NewJoinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JoinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join a room",
		Long: `Join a room as a new member. Passing the credential printed on a previous
join makes you the same member again.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := args[0]

			var gwOpts []gateway.Option
			if opts.Credential != "" {
				gwOpts = append(gwOpts, gateway.WithCredential(roomID, opts.Credential))
			}
			gw := gateway.New(opts.GatewayURL, gwOpts...)

			resp, err := gw.JoinRoom(cmd.Context(), roomID, opts.As)
			if err != nil {
				return fmt.Errorf("join room: %w", err)
			}

			printCredential(cmd, roomID, resp.Credential)
			return runSession(cmd.Context(), opts.RootOptions, roomID, resp.Credential, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "your display name (required)")
	cmd.Flags().StringVar(&opts.Credential, "credential", "", "credential from an earlier join")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

type WatchOptions struct {
	*RootOptions
	Credential string
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "watch <room-id>",
		Short:        "Reopen a room you already joined",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), opts.RootOptions, args[0], opts.Credential, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Credential, "credential", "", "credential printed by create or join (required)")
	_ = cmd.MarkFlagRequired("credential")

	return cmd
}

func parseStoryDraft(raw string) model.StoryDraft {
	title, description, _ := strings.Cut(raw, ":")
	return model.StoryDraft{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
}

func printCredential(cmd *cobra.Command, roomID, credential string) {
	fmt.Fprintf(cmd.ErrOrStderr(), "room: %s\ncredential: %s\n", roomID, credential)
}
