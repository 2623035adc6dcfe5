package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/petal-labs/basalt/core"
	"github.com/petal-labs/basalt/functions"
)

type invokeFlags struct {
	body    string
	method  string
	region  string
	headers []string
	timeout time.Duration
	text    bool
	retries int
}

func (a *App) newInvokeCommand() *cobra.Command {
	var f invokeFlags

	cmd := &cobra.Command{
		Use:   "invoke <function>",
		Short: "Invoke an edge function",
		Long: `Invoke an edge function and print its response.

A --body that parses as JSON is sent as JSON; anything else is sent as text.
--retries retries transport failures, relay errors, 5xx and 429 responses with exponential backoff.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInvoke(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.body, "body", "d", "", "request body (JSON or text)")
	cmd.Flags().StringVarP(&f.method, "method", "X", "", "HTTP method (default POST)")
	cmd.Flags().StringVar(&f.region, "region", "", "region to run the function in")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "extra header as key:value (repeatable)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "request timeout (e.g. 10s)")
	cmd.Flags().BoolVar(&f.text, "text", false, "print the response as text regardless of content type")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "retry retryable failures up to N times")

	return cmd
}

func (a *App) runInvoke(cmd *cobra.Command, name string, f invokeFlags) error {
	opts, err := f.invokeOptions()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	if f.retries < 0 {
		return exitWithCode(ExitValidation, errors.New("--retries must be zero or more"))
	}

	c, err := a.apiClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var data any
	op := func() error {
		res, err := c.Functions().Invoke(ctx, name, opts)
		if err != nil {
			if retryable(err) {
				a.logger.Debug("invoke failed, retrying", "function", name, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		data = res.Data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(f.retries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return err
	}

	return a.renderInvokeResult(data)
}

func (f invokeFlags) invokeOptions() (functions.InvokeOptions, error) {
	opts := functions.InvokeOptions{
		Method:  strings.ToUpper(f.method),
		Region:  functions.Region(f.region),
		Timeout: f.timeout,
	}

	if len(f.headers) > 0 {
		opts.Headers = make(http.Header)
		for _, h := range f.headers {
			k, v, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(k) == "" {
				return opts, fmt.Errorf("invalid header %q: want key:value", h)
			}
			opts.Headers.Add(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}

	if f.body != "" {
		if json.Valid([]byte(f.body)) {
			opts.Body = json.RawMessage(f.body)
		} else {
			opts.Body = f.body
		}
	}

	if f.text {
		opts.ResponseType = core.DecodeText
	}
	return opts, nil
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	return errors.Is(err, core.ErrTransport) ||
		errors.Is(err, core.ErrServer) ||
		errors.Is(err, core.ErrRateLimited)
}

func (a *App) renderInvokeResult(data any) error {
	switch v := data.(type) {
	case io.ReadCloser:
		defer v.Close()
		_, err := io.Copy(a.stdout, v)
		return err
	case []byte:
		_, err := a.stdout.Write(v)
		return err
	case *multipart.Form:
		defer v.RemoveAll()
		return a.printJSON(v.Value)
	case string:
		if a.jsonOutput {
			return a.printJSON(v)
		}
		_, err := fmt.Fprintln(a.stdout, v)
		return err
	default:
		return a.printJSON(v)
	}
}
