package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"alchemist/internal/domain"
	"alchemist/internal/logging"
	"alchemist/internal/notify"
)

var errBatchFailed = errors.New("batch finished with errors")

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var mode int
	var dryRun bool
	var showCommands bool

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert media files and wait for the batch to finish",
		Long: "Convert compiles every file against the outputs of the chosen mode and runs the\n" +
			"jobs one after another. Interrupting stops the batch after the running job.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := ctx.preferences()
			if cmd.Flags().Changed("mode") {
				raw[domain.PrefType] = mode
			}

			out := cmd.OutOrStdout()
			orch := ctx.orchestrator()

			if dryRun {
				_, result, err := orch.Plan(args, raw)
				if err != nil {
					return errors.New(result.Message)
				}
				fmt.Fprintln(out, result.Message)
				printCommands(out, result.Commands)
				return nil
			}

			result, handle := orch.Start(args, raw, notify.WriterBridge{W: out})
			if !result.OK || handle == nil {
				return errors.New(result.Message)
			}
			fmt.Fprintln(out, result.Message)
			if showCommands {
				printCommands(out, result.Commands)
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case <-handle.Done():
			case <-sigCtx.Done():
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelling: the running job finishes, remaining jobs are skipped.")
				handle.Cancel()
				<-handle.Done()
			}
			orch.Wait()

			event, _ := handle.Result()
			batchLogger := logging.WithBatch("cli", result.BatchID)
			batchLogger.Debug().Bool("ok", event.OK).Msg("batch finished")
			if !event.OK {
				return errBatchFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&mode, "mode", "m", 0, "Conversion mode index (see `alchemist modes`); defaults to the saved preference")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the commands without running them")
	cmd.Flags().BoolVar(&showCommands, "show-commands", false, "Print the commands before running them")
	return cmd
}
