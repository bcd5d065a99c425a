package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/middleware"
)

// callerFunc is a unary procedure that runs on behalf of an authenticated user.
type callerFunc[Req, Res any] func(ctx context.Context, caller string, req *Req) (*Res, error)

// handle registers fn under procedure. The caller comes from the context set
// by middleware.RequireAuth; a handler reached without one is rejected.
func handle[Req, Res any](mux *http.ServeMux, procedure string, fn callerFunc[Req, Res], opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			caller := middleware.GetUserID(ctx)
			if caller == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errNoCaller)
			}
			res, err := fn(ctx, caller, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		handlerOptions(opts)...,
	))
}

// handlePublic registers a procedure that needs no caller.
func handlePublic[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *Req) (*Res, error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		handlerOptions(opts)...,
	))
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON()}, opts...)
}
