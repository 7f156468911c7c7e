package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// DefaultRPCTimeout applies when UnaryTimeout is given no positive duration.
const DefaultRPCTimeout = 10 * time.Second

// UnaryTimeout returns a client interceptor that gives calls without a
// deadline one of d. A caller's own deadline is left alone.
func UnaryTimeout(d time.Duration) grpc.UnaryClientInterceptor {
	if d <= 0 {
		d = DefaultRPCTimeout
	}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
