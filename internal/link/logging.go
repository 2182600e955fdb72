package link

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrorLogging logs server-reported and transport failures and passes the
// response and error through unchanged.
func ErrorLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, op *Operation) (*Response, error) {
			res, err := next.Send(ctx, op)
			if res != nil {
				for _, ge := range res.Errors {
					logger.Error("[GraphQL error]",
						zap.String("operation", op.Name),
						zap.String("message", ge.Message),
						zap.Any("locations", ge.Locations),
						zap.Any("path", ge.Path),
					)
				}
			}
			if err != nil {
				fields := []zap.Field{zap.String("operation", op.Name), zap.Error(err)}
				var ne *NetworkError
				if errors.As(err, &ne) && ne.StatusCode != 0 {
					fields = append(fields, zap.Int("status", ne.StatusCode))
				}
				logger.Error("[Network error]", fields...)
			}
			return res, err
		})
	}
}
