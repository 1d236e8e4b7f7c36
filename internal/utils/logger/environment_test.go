package logger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("Logger Environment", func() {
	Describe("#newProductionLoggerConfig", func() {
		It("should log json at info level with stack traces", func() {
			cfg := newProductionLoggerConfig()

			Expect(cfg.Level.Level()).To(Equal(zap.InfoLevel))
			Expect(cfg.Development).To(BeFalse())
			Expect(cfg.DisableStacktrace).To(BeFalse())
			Expect(cfg.Encoding).To(Equal("json"))
			Expect(cfg.EncoderConfig.TimeKey).To(Equal("timestamp"))
			Expect(cfg.OutputPaths).To(Equal([]string{"stdout"}))
		})
	})

	Describe("#newStagingLoggerConfig", func() {
		It("should drop caller and stack traces", func() {
			cfg := newStagingLoggerConfig()

			Expect(cfg.Level.Level()).To(Equal(zap.InfoLevel))
			Expect(cfg.DisableCaller).To(BeTrue())
			Expect(cfg.DisableStacktrace).To(BeTrue())
			Expect(cfg.Encoding).To(Equal("json"))
		})
	})

	Describe("#newDevelopmentLoggerConfig", func() {
		It("should log console output at debug level", func() {
			cfg := newDevelopmentLoggerConfig()

			Expect(cfg.Level.Level()).To(Equal(zap.DebugLevel))
			Expect(cfg.Development).To(BeTrue())
			Expect(cfg.Encoding).To(Equal("console"))
			Expect(cfg.OutputPaths).To(Equal([]string{"stdout"}))
		})
	})

	Describe("#newTestLoggerConfig", func() {
		It("should only log warnings and above", func() {
			cfg := newTestLoggerConfig()

			Expect(cfg.Level.Level()).To(Equal(zap.WarnLevel))
		})
	})
})
