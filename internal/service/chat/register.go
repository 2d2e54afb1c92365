package chat

import (
	"google.golang.org/grpc"

	"github.com/unimeet/match-core/internal/api"
	"github.com/unimeet/match-core/internal/app"
)

// Registrar ties the Chat service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Chat service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterChatServiceServer(s, NewChatService(r.appCtx))
}
