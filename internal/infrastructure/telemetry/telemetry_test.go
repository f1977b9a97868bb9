package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitdesk/accessgate/internal/shared/config"
	"github.com/fitdesk/accessgate/internal/shared/logger"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown := Setup(config.TelemetryConfig{ServiceName: "accessgate"}, logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.NoError(t, shutdown(context.Background()))
}
