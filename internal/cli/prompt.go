package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/merge"
)

// promptRetry asks the user what to do with each timed-out file. End of
// input aborts.
func promptRetry(in io.Reader, out io.Writer, colored bool) merge.RetryFunc {
	reader := bufio.NewReader(in)
	warn := color.New(color.FgYellow, color.Bold)
	key := color.New(color.Bold)
	if colored {
		warn.EnableColor()
		key.EnableColor()
	} else {
		warn.DisableColor()
		key.DisableColor()
	}

	return func(_ context.Context, err *link.TransferError, path string) merge.Decision {
		fmt.Fprintf(out, "\n%s\n", warn.Sprint(err.Message()))
		fmt.Fprintf(out, "Attempting to copy %s\n", path)
		fmt.Fprintf(out, "  %s  stop the sync (files already synchronized are kept)\n", key.Sprint("[a]bort "))
		fmt.Fprintf(out, "  %s  try this file again with a longer timeout\n", key.Sprint("[r]etry "))
		fmt.Fprintf(out, "  %s  skip this file, keep the existing copy and continue\n", key.Sprint("[i]gnore"))

		for {
			fmt.Fprint(out, "Choice [a/r/i]: ")
			line, readErr := reader.ReadString('\n')

			if d, ok := parseChoice(line); ok {
				return d
			}
			if readErr != nil {
				fmt.Fprintln(out)
				return merge.Abort
			}
		}
	}
}

func parseChoice(line string) (merge.Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "a", "abort":
		return merge.Abort, true
	case "r", "retry":
		return merge.Retry, true
	case "i", "ignore":
		return merge.Ignore, true
	}
	return merge.Abort, false
}

// retryPolicy maps the configured on_timeout value to a RetryFunc.
// "ask" prompts only when a terminal is attached and aborts otherwise.
func retryPolicy(onTimeout string, maxRetries int, interactive bool, in io.Reader, out io.Writer) (merge.RetryFunc, error) {
	switch onTimeout {
	case "ask":
		if interactive {
			return promptRetry(in, out, true), nil
		}
		return merge.Fixed(merge.Abort), nil
	case "retry":
		return merge.AutoRetry(maxRetries, merge.Abort), nil
	}

	d, err := merge.ParseDecision(onTimeout)
	if err != nil {
		return nil, err
	}
	return merge.Fixed(d), nil
}
