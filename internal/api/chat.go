package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ChatServiceName = "unimeet.chat.v1.ChatService"

const (
	ChatService_FindOrCreateChat_FullMethodName  = "/" + ChatServiceName + "/FindOrCreateChat"
	ChatService_SendMessage_FullMethodName       = "/" + ChatServiceName + "/SendMessage"
	ChatService_MarkChatRead_FullMethodName      = "/" + ChatServiceName + "/MarkChatRead"
	ChatService_ListMessages_FullMethodName      = "/" + ChatServiceName + "/ListMessages"
	ChatService_ListChats_FullMethodName         = "/" + ChatServiceName + "/ListChats"
	ChatService_SubscribeMessages_FullMethodName = "/" + ChatServiceName + "/SubscribeMessages"
)

// --- messages ---

type Chat struct {
	ID          string `json:"id"`
	User1ID     string `json:"user1_id"`
	User2ID     string `json:"user2_id"`
	LastMessage string `json:"last_message"`
	// UpdatedAt is the last message time in unix ms; 0 until the first message.
	UpdatedAt int64 `json:"updated_at,omitempty"`
	User1Read bool  `json:"user1_read"`
	User2Read bool  `json:"user2_read"`
}

type Message struct {
	ID          string `json:"id"`
	ChatID      string `json:"chat_id"`
	SenderID    string `json:"sender_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	CreatedAt   int64  `json:"created_at"` // unix ms
	// Cursor resumes a listing or subscription right after this message.
	Cursor string `json:"cursor,omitempty"`
}

type FindOrCreateChatRequest struct {
	// User1ID defaults to the caller, who must be one of the pair.
	User1ID string `json:"user1_id,omitempty"`
	User2ID string `json:"user2_id"`
}

type FindOrCreateChatResponse struct {
	Chat    *Chat `json:"chat"`
	Created bool  `json:"created"`
}

type SendMessageRequest struct {
	ChatID      string `json:"chat_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"` // default text
}

type SendMessageResponse struct {
	Message *Message `json:"message"`
	Chat    *Chat    `json:"chat"`
}

type MarkChatReadRequest struct {
	ChatID string `json:"chat_id"`
}

type MarkChatReadResponse struct {
	Chat *Chat `json:"chat"`
}

type ListMessagesRequest struct {
	ChatID          string `json:"chat_id"`
	PaginationToken string `json:"pagination_token,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

type ListMessagesResponse struct {
	Messages            []*Message `json:"messages"`
	NextPaginationToken string     `json:"next_pagination_token,omitempty"`
}

type ListChatsRequest struct {
	ActiveOnly bool `json:"active_only,omitempty"`
}

type ListChatsResponse struct {
	Chats []*Chat `json:"chats"`
}

type SubscribeMessagesRequest struct {
	ChatID string `json:"chat_id"`
	// ResumeToken is the Cursor of the last message seen. Empty streams
	// only messages sent after the subscription starts.
	ResumeToken string `json:"resume_token,omitempty"`
}

// --- server ---

// ChatServiceServer is the server API for ChatService.
type ChatServiceServer interface {
	FindOrCreateChat(context.Context, *FindOrCreateChatRequest) (*FindOrCreateChatResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	MarkChatRead(context.Context, *MarkChatReadRequest) (*MarkChatReadResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error)
	SubscribeMessages(*SubscribeMessagesRequest, grpc.ServerStreamingServer[Message]) error
}

// UnimplementedChatServiceServer can be embedded for forward compatibility.
type UnimplementedChatServiceServer struct{}

func (UnimplementedChatServiceServer) FindOrCreateChat(context.Context, *FindOrCreateChatRequest) (*FindOrCreateChatResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FindOrCreateChat not implemented")
}
func (UnimplementedChatServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedChatServiceServer) MarkChatRead(context.Context, *MarkChatReadRequest) (*MarkChatReadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkChatRead not implemented")
}
func (UnimplementedChatServiceServer) ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMessages not implemented")
}
func (UnimplementedChatServiceServer) ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListChats not implemented")
}
func (UnimplementedChatServiceServer) SubscribeMessages(*SubscribeMessagesRequest, grpc.ServerStreamingServer[Message]) error {
	return status.Error(codes.Unimplemented, "method SubscribeMessages not implemented")
}

func chatServer(srv any) ChatServiceServer { return srv.(ChatServiceServer) }

func _ChatService_SubscribeMessages_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeMessagesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return chatServer(srv).SubscribeMessages(m, &grpc.GenericServerStream[SubscribeMessagesRequest, Message]{ServerStream: stream})
}

// ChatService_ServiceDesc is the grpc.ServiceDesc for ChatService.
var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "FindOrCreateChat", func(srv any, ctx context.Context, in *FindOrCreateChatRequest) (*FindOrCreateChatResponse, error) {
			return chatServer(srv).FindOrCreateChat(ctx, in)
		}),
		unary(ChatServiceName, "SendMessage", func(srv any, ctx context.Context, in *SendMessageRequest) (*SendMessageResponse, error) {
			return chatServer(srv).SendMessage(ctx, in)
		}),
		unary(ChatServiceName, "MarkChatRead", func(srv any, ctx context.Context, in *MarkChatReadRequest) (*MarkChatReadResponse, error) {
			return chatServer(srv).MarkChatRead(ctx, in)
		}),
		unary(ChatServiceName, "ListMessages", func(srv any, ctx context.Context, in *ListMessagesRequest) (*ListMessagesResponse, error) {
			return chatServer(srv).ListMessages(ctx, in)
		}),
		unary(ChatServiceName, "ListChats", func(srv any, ctx context.Context, in *ListChatsRequest) (*ListChatsResponse, error) {
			return chatServer(srv).ListChats(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubscribeMessages",
			Handler:       _ChatService_SubscribeMessages_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "unimeet/chat/v1/chat.json",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// --- client ---

// ChatServiceClient calls ChatService with the JSON codec.
type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func (c *ChatServiceClient) FindOrCreateChat(ctx context.Context, in *FindOrCreateChatRequest, opts ...grpc.CallOption) (*FindOrCreateChatResponse, error) {
	return invoke[FindOrCreateChatResponse](ctx, c.cc, ChatService_FindOrCreateChat_FullMethodName, in, opts)
}

func (c *ChatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, ChatService_SendMessage_FullMethodName, in, opts)
}

func (c *ChatServiceClient) MarkChatRead(ctx context.Context, in *MarkChatReadRequest, opts ...grpc.CallOption) (*MarkChatReadResponse, error) {
	return invoke[MarkChatReadResponse](ctx, c.cc, ChatService_MarkChatRead_FullMethodName, in, opts)
}

func (c *ChatServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ChatService_ListMessages_FullMethodName, in, opts)
}

func (c *ChatServiceClient) ListChats(ctx context.Context, in *ListChatsRequest, opts ...grpc.CallOption) (*ListChatsResponse, error) {
	return invoke[ListChatsResponse](ctx, c.cc, ChatService_ListChats_FullMethodName, in, opts)
}

func (c *ChatServiceClient) SubscribeMessages(ctx context.Context, in *SubscribeMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error) {
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], ChatService_SubscribeMessages_FullMethodName, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeMessagesRequest, Message]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
