package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	apperrors "github.com/proxyscout/proxyscout/internal/errors"
	"github.com/proxyscout/proxyscout/internal/observability"
)

// commandError is what RunE returns for failures the user should see with a
// semantic exit code. The message is already safe to print.
type commandError struct {
	code     foundry.ExitCode
	message  string
	envelope *errors.ErrorEnvelope
}

func (e *commandError) Error() string {
	return e.message
}

func (e *commandError) Unwrap() error {
	if e.envelope == nil {
		return nil
	}
	return e.envelope
}

// ExitCodeOf maps a command error to its foundry exit code.
func ExitCodeOf(err error) foundry.ExitCode {
	var cmdErr *commandError
	if stderrors.As(err, &cmdErr) {
		return cmdErr.code
	}
	return foundry.ExitFailure
}

func configError(err error) error {
	return &commandError{
		code:     foundry.ExitConfigInvalid,
		message:  fmt.Sprintf("invalid configuration: %v", err),
		envelope: apperrors.NewConfigInvalidError(err.Error()),
	}
}

// pipelineError converts a pipeline failure into a user-facing error. Input
// mistakes keep their message; upstream failures are logged in full and
// reported generically.
func pipelineError(ctx context.Context, err error) error {
	envelope := apperrors.FromPipelineError(ctx, err)
	logger := observability.CLILogger

	switch envelope.Code {
	case apperrors.CodeInvalidInput, apperrors.CodeNotFound:
		if logger != nil {
			logger.Debug("Rejected request", zap.String("error_code", envelope.Code), zap.Error(err))
		}
		return &commandError{code: foundry.ExitFailure, message: envelope.Message, envelope: envelope}
	case apperrors.CodeExternalService, apperrors.CodeTimeout, apperrors.CodeUpstreamRateLimited, apperrors.CodeDataProcessing:
		if logger != nil {
			logger.Warn("Proxy service request failed",
				zap.String("error_code", envelope.Code),
				zap.String("correlation_id", envelope.CorrelationID),
				zap.Error(err))
		}
		return &commandError{
			code:     foundry.ExitExternalServiceUnavailable,
			message:  "proxy check failed: " + envelope.Message,
			envelope: envelope,
		}
	default:
		if logger != nil {
			logger.Error("Command failed", zap.String("error_code", envelope.Code), zap.Error(err))
		}
		return &commandError{code: foundry.ExitFailure, message: err.Error(), envelope: envelope}
	}
}

// ExitWithCode logs err with foundry exit metadata and exits.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatal(msg, err)
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr is ExitWithCode for failures before the logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	writeFatal(msg, err)
	if !ok {
		os.Exit(int(exitCode))
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}

func writeFatal(msg string, err error) {
	var cmdErr *commandError
	switch {
	case err == nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	case stderrors.As(err, &cmdErr):
		fmt.Fprintf(os.Stderr, "Error: %s\n", cmdErr.message)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	}
}
