package api

import (
	"context"

	"google.golang.org/grpc"
)

// unary builds a MethodDesc whose handler decodes Req, runs the interceptor
// chain and dispatches to call.
func unary[Req any, Resp any](
	service, method string,
	call func(srv any, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// invoke performs a unary JSON call.
func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
