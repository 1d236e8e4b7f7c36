package logger

import (
	"bytes"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dwarvesf/bridge-relayer/internal/types/environments"
)

type customWriteHook struct {
	called bool
}

func (h *customWriteHook) OnWrite(_ *zapcore.CheckedEntry, _ []zapcore.Field) {
	h.called = true
}

var _ = Describe("Logger", func() {
	var logger *Logger

	Describe("#New", func() {
		DescribeTable("builds a logger for every environment",
			func(env environments.Environment) {
				logger = New(env)
				Expect(logger).NotTo(BeNil())
				Expect(logger.wrappedLogger).NotTo(BeNil())
			},
			Entry("production", environments.Production),
			Entry("development", environments.Development),
			Entry("staging", environments.Staging),
			Entry("test", environments.Test),
		)

		It("should fall back to production settings for an unknown environment", func() {
			logger = New(environments.Environment("unknown"))
			core := logger.wrappedLogger.Core()
			Expect(core.Enabled(zapcore.InfoLevel)).To(BeTrue())
			Expect(core.Enabled(zapcore.DebugLevel)).To(BeFalse())
		})
	})

	Describe("structured fields", func() {
		var logs *observer.ObservedLogs

		BeforeEach(func() {
			var core zapcore.Core
			core, logs = observer.New(zapcore.DebugLevel)
			logger = &Logger{wrappedLogger: zap.New(core)}
		})

		It("should attach base fields from With", func() {
			child := logger.With(map[string]string{"intent_id": "0xabc"})
			child.Info("[AdvanceOnDeposit][Verify]", map[string]string{"chain_id": "80002"})

			Expect(logs.Len()).To(Equal(1))
			ctx := logs.All()[0].ContextMap()
			Expect(ctx).To(HaveKeyWithValue("intent_id", "0xabc"))
			Expect(ctx).To(HaveKeyWithValue("chain_id", "80002"))
		})

		It("should not leak base fields into the parent", func() {
			_ = logger.With(map[string]string{"intent_id": "0xabc"})
			logger.Warn("parent entry")

			Expect(logs.All()[0].ContextMap()).NotTo(HaveKey("intent_id"))
		})

		It("should redact key material", func() {
			logger.Error("[Issue][Generate]", map[string]string{
				"private_key": "0xdeadbeef",
				"vault_token": "s.abc",
				"address":     "0x1234",
			})

			ctx := logs.All()[0].ContextMap()
			Expect(ctx).To(HaveKeyWithValue("private_key", redacted))
			Expect(ctx).To(HaveKeyWithValue("vault_token", redacted))
			Expect(ctx).To(HaveKeyWithValue("address", "0x1234"))
		})
	})

	Describe("#Fatal", func() {
		It("should invoke the fatal hook", func() {
			hook := &customWriteHook{}
			logger = &Logger{
				wrappedLogger: zap.New(
					zapcore.NewCore(
						zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
						zapcore.AddSync(&bytes.Buffer{}),
						zap.FatalLevel,
					),
					zap.WithFatalHook(hook),
				),
			}

			logger.Fatal("fatal message", map[string]string{"key": "value"})
			Expect(hook.called).To(BeTrue())
		})
	})

	Describe("#transformStrMapToFields", func() {
		It("should transform a string map to zap fields", func() {
			fields := transformStrMapToFields(map[string]string{
				"key1": "value1",
				"key2": "value2",
			})

			sort.Slice(fields, func(i, j int) bool {
				return fields[i].Key < fields[j].Key
			})

			Expect(fields).To(HaveLen(2))
			Expect(fields[0]).To(Equal(zap.String("key1", "value1")))
			Expect(fields[1]).To(Equal(zap.String("key2", "value2")))
		})

		It("should return an empty slice for an empty input map", func() {
			Expect(transformStrMapToFields(map[string]string{})).To(BeEmpty())
		})
	})
})
