// Package logging provides structured logging for personarank runs.
//
// Logger wraps Zap with:
//   - A Trace level below Debug, selected with level: trace, for per-section detail
//   - Context-aware methods that add trace, run and document correlation
//   - JSON or console encoding to stderr or stdout
//
// # Usage
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithDocument(ctx, "guide.pdf")
//	logger.Info(ctx, "document segmented", zap.Int("sections", n))
//
// Output includes the correlation fields:
//
//	{"ts":"2025-07-01T10:15:30.123Z","level":"info","msg":"document segmented",
//	 "service":"personarank","run.id":"5f0c...","document":"guide.pdf","sections":12}
//
// Components that only need a plain *zap.Logger receive Underlying().
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	// ... exercise code with tl.Logger ...
//	tl.AssertLogged(t, zapcore.WarnLevel, "document skipped")
package logging
