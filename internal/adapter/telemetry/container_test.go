package telemetry

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	coretelemetry "todolists/internal/core/telemetry"
	"todolists/pkg/config"
)

func TestNewContainer_WithoutTracing(t *testing.T) {
	RegisterTestingT(t)

	cfg := config.GetDefaultConfig().Telemetry
	cfg.Enabled = false
	cfg.MetricsPort = ""

	container, err := NewContainer(cfg, "test", zap.NewNop())

	Expect(err).NotTo(HaveOccurred())
	Expect(container.TracerProvider).To(BeNil())
	Expect(container.MetricsServer).To(BeNil())
	Expect(container.AppMetrics).NotTo(BeNil())

	probe := container.NewTelemetryProbe(otelzap.New(zap.NewNop()))
	Expect(probe).To(BeAssignableToTypeOf(coretelemetry.NewNoOpProbe()))

	Expect(container.Shutdown(context.Background())).To(Succeed())
}
