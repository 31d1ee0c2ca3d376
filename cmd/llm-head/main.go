package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/FergusFettes/llm-head/internal/cli"
	"github.com/FergusFettes/llm-head/internal/errs"
	"github.com/FergusFettes/llm-head/internal/paths"
	"github.com/FergusFettes/llm-head/internal/safedb"
)

var (
	// Build info (set via ldflags).
	Version = "dev"
	Build   = "unknown"
)

var (
	// Global flags.
	flagDatabase string
	flagJSON     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "llm-head",
		Short: "Branchable conversation history for LLM logs",
		Long: `llm-head tracks a movable head over a tree of LLM exchanges.

Every exchange is a node linked to the exchange it continued from.
Moving the head back (or jumping anywhere with set) and then appending
a new exchange branches the conversation instead of extending it.

Running llm-head with no subcommand shows the current head.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default action: show
			return runShow()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "Path to logs.db (or "+paths.EnvDataDir+" env var)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "JSON output for scripting")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("llm-head v{{.Version}} (build: " + Build + ", " + goruntime.Version() + ")\n")

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(backCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(appendCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(conversationsCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(mcpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes retryable storage contention (75, EX_TEMPFAIL)
// from everything else so wrappers can retry the command.
func exitCode(err error) int {
	if errors.Is(err, errs.ErrStoreUnavailable) {
		return 75
	}
	return 1
}

// cmdContext returns the context for one command invocation. Commands are
// single bounded operations; the database busy timeout is the only
// deadline that applies.
func cmdContext() context.Context {
	return context.Background()
}

// withDatabase opens the logs database, runs fn, and closes it.
func withDatabase(fn func(db *safedb.DB) error) error {
	db, err := cli.OpenDatabase(flagDatabase)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

// printJSON emits a result struct for --json mode.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current head response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow()
		},
	}
}

func runShow() error {
	return withDatabase(func(db *safedb.DB) error {
		res, err := cli.Show(cmdContext(), db)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(res)
		}
		if !res.HeadSet {
			fmt.Println("No head currently set")
			return nil
		}
		fmt.Printf("Current head is at response %s\n", res.ID)
		if res.ParentID != "" {
			fmt.Printf("Parent: %s (depth %d)\n", res.ParentID, res.Depth)
		} else {
			fmt.Println("Parent: none (root)")
		}
		fmt.Printf("\nPrompt:\n%s\n\nResponse:\n%s\n", res.Prompt, res.Response)
		return nil
	})
}

func backCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Move head to parent of current response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Back(cmdContext(), db)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				fmt.Printf("Head moved back to response %s (was %s)\n", res.ID, res.PreviousID)
				return nil
			})
		},
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <response-id>",
		Short: "Set the current head to a specific response ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Set(cmdContext(), db, args[0])
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				fmt.Printf("Head is now at response %s\n", res.ID)
				return nil
			})
		},
	}
}

func appendCmd() *cobra.Command {
	var opts cli.AppendOptions

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Record a new exchange under the current head",
		Long: `Records a prompt/response pair as a child of the current head and
moves the head to it. This is the hook the generation flow calls after
producing content; appending after back or set creates a branch.

The response text is read from --response, or from stdin when omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Response == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read response from stdin: %w", err)
				}
				opts.Response = string(data)
			}
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Append(cmdContext(), db, opts)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				fmt.Printf("Appended response %s\n", res.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "Prompt of the exchange")
	cmd.Flags().StringVar(&opts.Response, "response", "", "Response text (default: stdin)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model that produced the response")
	cmd.Flags().StringVar(&opts.System, "system", "", "System prompt, if any")
	return cmd
}

func logCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the conversation transcript from root to head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Log(cmdContext(), db, cli.LogOptions{ConversationID: conversationID})
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				if !res.Found {
					fmt.Println("No conversations yet")
					return nil
				}
				fmt.Print(res.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Conversation ID (default: most recently active)")
	return cmd
}

func treeCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the conversation's branch tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Tree(cmdContext(), db, cli.LogOptions{ConversationID: conversationID})
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				if !res.Found {
					fmt.Println("No conversations yet")
					return nil
				}
				fmt.Print(res.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Conversation ID (default: most recently active)")
	return cmd
}

func conversationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conversations",
		Short: "List conversations, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Conversations(cmdContext(), db)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				if len(res.Conversations) == 0 {
					fmt.Println("No conversations yet")
					return nil
				}
				for _, c := range res.Conversations {
					name := c.Name
					if name == "" {
						name = "(unnamed)"
					}
					fmt.Printf("%s  %s (%d responses)\n", c.ID, name, c.Responses)
				}
				return nil
			})
		},
	}
}

func backfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Persist parent links for responses logged before head tracking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *safedb.DB) error {
				res, err := cli.Backfill(db)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(res)
				}
				fmt.Printf("Backfilled parent links for %d responses\n", res.Updated)
				return nil
			})
		},
	}
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path to the logs database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagDatabase
			if path == "" {
				var err error
				path, err = paths.DatabasePath()
				if err != nil {
					return err
				}
			}
			fmt.Println(path)
			return nil
		},
	}
}
