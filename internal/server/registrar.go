package server

import "google.golang.org/grpc"

// Registrar is a common interface for all gRPC service registrars
// (matching.Registrar, chat.Registrar).
type Registrar interface {
	Register(s *grpc.Server)
}
